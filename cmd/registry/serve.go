package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marzelet/intern-registry/internal/api"
	"github.com/marzelet/intern-registry/internal/api/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, log, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	e := api.NewRouter(api.Dependencies{
		Sessions:  a.sessions,
		Registry:  a.registry,
		Drafts:    a.drafts,
		Dashboard: a.dashboard,
		Exporter:  a.exporter,
		Probes: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(a.db),
			"redis":   handler.RedisPinger(a.rdb),
		},
		RequestTimeout: cfg.Registry.RequestTimeout,
		Log:            log,
	})

	// The dispatcher outlives the HTTP server so in-flight writes can finish
	// during Shutdown.
	dctx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	a.dispatcher.Start(dctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	stopDispatcher()
	return err
}
