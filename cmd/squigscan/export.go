package main

import (
	service "github.com/okian/squigscan/internal/app"
	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Rewrite the compact curve export from the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return service.New(cfg).Export(cmd.Context())
		},
	}
}
