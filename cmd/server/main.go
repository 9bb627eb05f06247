// Command server runs the loyalty API and, when enabled, the background
// recalculation worker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/loyalty-crm/internal/api"
	"github.com/ignite/loyalty-crm/internal/app"
	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/scoring"
	"github.com/ignite/loyalty-crm/internal/sentiment"
	"github.com/ignite/loyalty-crm/internal/worker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server exited", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(configPath string) error {
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

	if cfg.Recalculation.Enabled {
		recalc := worker.NewRecalculator(a.Service, a.RecalcLock(), cfg.Recalculation.Interval(), cfg.Recalculation.Concurrency)
		go recalc.Start(ctx)
	}

	handlers := api.NewHandlers(a.Service, a.Offers, a.Estimator, sentiment.NewAnalyzer(a.Gen), scoring.NewPredictor(a.Gen))
	health := api.NewHealthChecker(a.DB, a.RedisClient(), cfg.Storage.Type, a.AIEnabled())
	server := api.NewServer(cfg.Server, handlers, health)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("starting server", "addr", addr, "storage", cfg.Storage.Type, "ai_providers", strings.Join(cfg.AI.Providers, ","))
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
