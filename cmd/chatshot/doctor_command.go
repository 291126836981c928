package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/chatshot/internal/ocr"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that text recognition is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			engine, err := ctx.engine()
			if err != nil {
				return err
			}
			info := ocr.Describe(cmd.Context(), engine, cfg.Recognition.Language)

			if jsonOutput {
				if err := writeJSON(cmd, info); err != nil {
					return err
				}
			} else {
				printInfo(cmd, ctx.configPath, info)
			}
			if !info.Available {
				return fmt.Errorf("text recognition unavailable: %s", info.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printInfo(cmd *cobra.Command, configPath string, info ocr.Info) {
	out := cmd.OutOrStdout()
	if configPath == "" {
		configPath = "(defaults)"
	}
	fmt.Fprintf(out, "Config:      %s\n", configPath)
	fmt.Fprintf(out, "Backend:     %s\n", info.Backend)
	fmt.Fprintf(out, "Language:    %s\n", info.Language)
	if info.Version != "" {
		fmt.Fprintf(out, "Version:     %s\n", info.Version)
	}
	if info.TessdataPath != "" {
		fmt.Fprintf(out, "Tessdata:    %s\n", info.TessdataPath)
	}
	fmt.Fprintf(out, "Available:   %s\n", yesNo(info.Available))
	if info.Error != "" {
		fmt.Fprintf(out, "Error:       %s\n", info.Error)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chatshot %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Tesseract:  %s\n", tesseractVersion())
			return nil
		},
	}
}

func tesseractVersion() string {
	if v := ocr.Version(); v != "" {
		return v
	}
	return "unavailable"
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
