package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mommydata/pkg/api/router"
	"mommydata/pkg/core/config"
	"mommydata/pkg/core/scenario"
	"mommydata/pkg/core/store"
	"mommydata/pkg/core/trend"
	"mommydata/pkg/logging"
	"mommydata/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		return err
	}
	if _, err := logging.Setup(logging.Config{
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
		Service: cfg.Observability.ServiceName,
	}); err != nil {
		return err
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	metrics := observability.InitMetrics()
	if sq, ok := st.(*store.SQLStore); ok {
		sq.SetObserver(metrics.ObserveQuery)
	}

	handler := router.New(router.Deps{
		Engine:      trend.NewEngine(st),
		Scenarios:   scenario.NewService(st, cfg.Data.ReferenceYear),
		Metrics:     metrics,
		CORSOrigins: cfg.Server.CORSOrigins,
		ServiceName: cfg.Observability.ServiceName,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			"addr", cfg.Server.Addr,
			"store", cfg.Store.Driver,
			"reference_year", cfg.Data.ReferenceYear)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
