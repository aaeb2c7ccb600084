package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	service "github.com/okian/squigscan/internal/app"
	"github.com/okian/squigscan/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newScanCommand() *cobra.Command {
	var (
		force       bool
		schedule    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan every archive domain and refresh the cache, rankings, and export",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if force {
				cfg.ForceRescan = true
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}

			svc := service.New(cfg)
			if schedule == "" {
				return svc.Scan(ctx)
			}
			return runScheduled(ctx, svc, schedule)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rescan domains even when their catalog hash is unchanged")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Run repeatedly on a 5-field cron schedule (e.g. \"0 3 * * *\")")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve prometheus metrics on this address while scanning")
	return cmd
}

// runScheduled loops forever, scanning at each cron tick, until the context
// is cancelled. A failed scan is logged and the loop keeps going; the next
// tick resumes from the persisted checkpoint.
func runScheduled(ctx context.Context, svc *service.Service, schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return err
	}

	log := logger.Get().Named("schedule")
	for {
		next := sched.Next(time.Now())
		log.Info(ctx, "next scan scheduled", logger.String("at", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		if err := svc.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			log.Error(ctx, "scheduled scan failed", logger.Error(err))
		}
	}
}
