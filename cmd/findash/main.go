package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cli"
	"findash/internal/config"
	"findash/internal/dashboard"
	apphttp "findash/internal/http"
	applog "findash/internal/log"
	"findash/internal/scheduler"
	"findash/internal/sheets"
	"findash/internal/worker"
)

func main() {
	envFiles, envErr := cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	if envErr != nil {
		logger.Error("Failed to load env file", applog.FieldError, envErr)
		os.Exit(1)
	}
	if len(envFiles) > 0 {
		logger.Debug("Loaded env files", "files", envFiles)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("findash stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	layout, layoutSource, err := sheets.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	logger.Info("Layout loaded", "layout", layoutSource, "sheets", layout.SheetNames())

	backendCfg, err := backend.FromAppConfig(cfg, layout)
	if err != nil {
		return err
	}
	src, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	svc := dashboard.NewService(src.Reader, dashboard.Options{
		Locale:   cfg.Locale,
		Currency: cfg.Currency,
	}, logger)

	// A table that cannot be read at startup is fatal.
	if _, err := svc.Reload(ctx, applog.OpStartup); err != nil {
		return err
	}

	srv, err := apphttp.NewServer(svc, apphttp.Options{
		Addr:            cfg.Addr(),
		ReloadPerMinute: cfg.ReloadPerMinute,
		SVGCacheSize:    cfg.SVGCacheSize,
		SVGCacheTTL:     cfg.SVGCacheTTL,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	svc.OnReload(srv.InvalidateCharts)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting findash server", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown, "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if cfg.ReloadSchedule != "" {
		sched, err := scheduler.New(cfg.ReloadSchedule, svc, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	if cfg.AMQPURL != "" {
		consumer, err := newConsumer(cfg)
		if err != nil {
			// The dashboard works without notifications; reloads still come from
			// the API and the schedule.
			logger.Warn("AMQP unavailable, table update notifications disabled", applog.FieldError, err)
		} else {
			defer consumer.Close()
			g.Go(func() error {
				return worker.NewReloadWorker(consumer, svc, logger).Run(gctx)
			})
		}
	}

	return g.Wait()
}

func newConsumer(cfg *config.Config) (*amqp.Client, error) {
	queue := cfg.AMQPQueue
	if queue == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("derive queue name: %w", err)
		}
		queue = cfg.AMQPExchange + "." + host
	}
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, queue)
}
