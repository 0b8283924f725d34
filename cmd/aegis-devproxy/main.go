// Package main is the entrypoint for the local development proxy.
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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aegisrent/aegis-console/internal/devproxy"
)

// Build-time variables set via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		origin    string
		staticDir string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "aegis-devproxy",
		Short: "Forward /api/* to a backend origin during local development",
		Long: `aegis-devproxy serves the console locally and forwards every /api/*
request to the backend origin with the /api prefix removed.

The origin defaults to $AEGIS_API_ORIGIN.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if origin == "" {
				origin = os.Getenv("AEGIS_API_ORIGIN")
			}
			if origin == "" {
				return errors.New("an origin is required: pass --origin or set AEGIS_API_ORIGIN")
			}
			return run(addr, devproxy.Options{Origin: origin, StaticDir: staticDir}, verbose)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3000", "listen address")
	cmd.Flags().StringVar(&origin, "origin", "", "backend origin, e.g. https://api.staging.example.com")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the built console to serve")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every proxied request")

	return cmd
}

func run(addr string, opts devproxy.Options, verbose bool) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	handler, err := devproxy.New(opts, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("origin", opts.Origin).Msg("dev proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
