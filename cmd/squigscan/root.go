package main

import (
	"context"

	"github.com/okian/squigscan/internal/config"
	"github.com/okian/squigscan/pkg/logger"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "squigscan",
		Short:         "Measurement-archive scanner and preference ranker",
		Long:          "squigscan walks the known frequency-response archives, caches every measurement once, and ranks devices against target curves.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newScanCommand())
	root.AddCommand(newScoreCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newTopCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// loadConfig loads configuration (defaults -> optional file -> env) and
// applies the configured log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}
