package main

import (
	service "github.com/okian/squigscan/internal/app"
	"github.com/spf13/cobra"
)

func newScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Re-run the scoring pass from the cache, without any network access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return service.New(cfg).Score(cmd.Context())
		},
	}
}
