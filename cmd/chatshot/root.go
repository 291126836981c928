package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/config"
	"github.com/ironsheep/chatshot/internal/logging"
	"github.com/ironsheep/chatshot/internal/ocr"
	"github.com/ironsheep/chatshot/internal/pipeline"
)

// engineFactory builds the recognition engine for a configuration.
type engineFactory func(cfg *config.Config) ocr.Engine

func newTesseractEngine(cfg *config.Config) ocr.Engine {
	return ocr.NewTesseract(cfg.Recognition.Language, cfg.Recognition.TessdataPrefix)
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	newEngine    engineFactory

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, newEngine engineFactory) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		newEngine:    newEngine,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// A .env in the working directory may carry CHATSHOT_* overrides.
		// Variables already set in the environment win.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.configErr = fmt.Errorf("load .env: %w", err)
			return
		}

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// engine returns a fresh recognition engine for the loaded configuration.
func (c *commandContext) engine() (ocr.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newEngine(cfg), nil
}

// pipeline builds a pipeline and the engine it runs on.
func (c *commandContext) pipeline() (*pipeline.Pipeline, ocr.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	engine := c.newEngine(cfg)
	p, err := pipeline.New(cfg, engine, pipeline.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return p, engine, nil
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func newRootCommand(newEngine engineFactory) *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, newEngine)

	rootCmd := &cobra.Command{
		Use:           "chatshot",
		Short:         "Recover conversations from chat screenshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureLogger()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newBubblesCommand(ctx))
	rootCmd.AddCommand(newServeMCPCommand(ctx))
	rootCmd.AddCommand(newServeHTTPCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
