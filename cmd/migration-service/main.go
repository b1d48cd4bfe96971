// Command migration-service runs Sakila migrations on demand over HTTP and
// exposes their metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/sakila-migration/internal/api"
	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/metrics"
	"example.com/sakila-migration/internal/migration"
	"example.com/sakila-migration/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []migration.Option{migration.WithLogger(logger), migration.WithMetrics(m)}
	if cfg.NATS.Enabled() {
		pub, err := notify.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Warn("completion events disabled", "error", err)
		} else {
			defer pub.Close()
			opts = append(opts, migration.WithNotifier(pub))
		}
	}
	orchestrator := migration.NewOrchestrator(migration.DefaultConnectors(cfg), opts...)
	reset := func(ctx context.Context) (migration.ResetResult, error) {
		return migration.ResetDestinations(ctx, cfg, logger)
	}

	router := gin.Default()
	api.NewAPI(orchestrator, reset, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.ServicePort,
		Handler: router,
	}

	go func() {
		logger.Info("migration service starting", "port", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to run server", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down migration service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
