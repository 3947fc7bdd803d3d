package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httptransport "github.com/example/volunteer-bot/internal/http"
	"github.com/example/volunteer-bot/internal/logging"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations, then serve health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.MetricsAddr
			}
			return serve(cmd.Context(), a, addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to BOT_5VERST_METRICS_ADDR)")
	return cmd
}

// serve blocks until ctx is done or the listener fails. ready, when set,
// receives the bound address once the server accepts connections.
func serve(ctx context.Context, a *app, addr string, ready chan<- string) error {
	if _, err := a.storage.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		pool.NewCollector(a.storage.Pool(), prometheus.Labels{"db": "main"}),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Health:  httptransport.NewHealthHandler(a.storage, 2*time.Second, a.logger),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  a.logger,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("operations server listening", "addr", ln.Addr().String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("server encountered error", "error", err, "error_kind", logging.ErrorKind(err))
		return err
	}
	if err := <-shutdownErr; err != nil {
		a.logger.Error("failed to shutdown server", "error", err)
		return err
	}
	a.logger.Info("operations server stopped")
	return nil
}
