// Command worker runs batch loyalty recalculation without the HTTP API.
// Several workers may run at once; the recalculation lock lets only one
// of them work a cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/loyalty-crm/internal/app"
	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/worker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	if err := run(*configPath, *once); err != nil {
		logger.Error("worker exited", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(configPath string, once bool) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Storage.Type == "memory" {
		logger.Warn("worker is using in-memory storage; there is nothing to recalculate")
	}

	recalc := worker.NewRecalculator(a.Service, a.RecalcLock(), cfg.Recalculation.Interval(), cfg.Recalculation.Concurrency)
	if once {
		stats, err := recalc.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info("recalculation finished",
			"skipped", stats.Skipped, "processed", stats.Processed, "failed", stats.Failed)
		return nil
	}

	recalc.Start(ctx)
	return nil
}
