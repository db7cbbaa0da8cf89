package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Vodeneev/lottostats/internal/pkg/health"
	"github.com/Vodeneev/lottostats/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and the periodic refresh of every game.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := appConfig

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		a.enableNotifier()

		if cfg.Refresh.WarmOnStart {
			a.warm(ctx)
		}

		addr, err := health.AddrFor(cfg.Health.Port)
		if err != nil {
			return err
		}
		done, err := health.Run(ctx, addr, serviceName, health.Deps{
			Catalog:     a.registry,
			Stats:       a.coord,
			Refresher:   a.coord,
			Tracker:     a.tracker,
			Collectors:  a.collectors,
			CORSOrigins: cfg.Health.CORSOrigins,
			Concurrency: cfg.Scraper.Concurrency,
		}, cfg.Health.ReadHeaderTimeout)
		if err != nil {
			return err
		}

		sched, err := scheduler.New(cfg.Refresh.Schedule, cfg.Scraper.Concurrency, a.registry, a.coord)
		if err != nil {
			return err
		}
		sched.Start(ctx)

		<-ctx.Done()
		slog.Info("Shutting down")
		sched.Stop()
		<-done
		a.tracker.PrintSummary()
		return nil
	},
}
