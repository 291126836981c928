package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/httpapi"
	"github.com/ironsheep/chatshot/internal/server"
	"github.com/ironsheep/chatshot/internal/watch"
)

func newServeMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, engine, err := ctx.pipeline()
			if err != nil {
				return err
			}
			logger, _ := ctx.ensureLogger()
			logger.Info("starting MCP server",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("commit", GitCommit))

			srv := server.New(p, engine, logger, Version)
			return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newServeHTTPCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Run the HTTP upload API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, engine, err := ctx.pipeline()
			if err != nil {
				return err
			}
			logger, _ := ctx.ensureLogger()

			addr := cfg.HTTP.Bind
			if bindFlag != "" {
				addr = bindFlag
			}
			h := httpapi.New(p, engine, cfg.HTTP.MaxUploadMB, logger)
			return h.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (overrides [http] bind)")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Transcribe screenshots dropped into a directory",
		Long:  "Watch a directory and write <name>" + watch.OutputSuffix + " beside every screenshot that appears in it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := ctx.pipeline()
			if err != nil {
				return err
			}
			logger, _ := ctx.ensureLogger()

			w, err := watch.New(args[0], p, debounce, logger)
			if err != nil {
				return err
			}
			if err := w.Run(cmd.Context()); err != nil {
				return err
			}
			stats := w.Stats()
			logger.Info("watch stopped", zap.Int("processed", stats.Processed), zap.Int("failed", stats.Failed))
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "How long a file must stay unchanged before it is processed")
	return cmd
}
