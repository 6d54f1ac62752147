package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/callflow"
	"github.com/aretw0/callflow/internal/presentation/tui"
	"github.com/aretw0/callflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Compiles the call flow and serves its webhook endpoints, /healthz, /metrics and the /status callback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		backend, err := cfg.OpenStore()
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer backend.Close()

		metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}

		app, err := newApp(cfg, backend, logger, metrics)
		if err != nil {
			return err
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout, callflow.Version, cfg.Server.Addr, cfg.Store.Driver)
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting callflow server",
				"addr", srv.Addr,
				"store", cfg.Store.Driver,
				"routes", len(app.Routes()),
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Callflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides config)")
}
