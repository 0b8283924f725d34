// Package main is the entrypoint for the Aegis console server. It signs
// administrators in against the rental backend and forwards their API calls
// with the session's bearer token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/api"
	"github.com/aegisrent/aegis-console/internal/api/middleware"
	"github.com/aegisrent/aegis-console/internal/auth"
	"github.com/aegisrent/aegis-console/internal/config"
	"github.com/aegisrent/aegis-console/internal/httpclient"
	"github.com/aegisrent/aegis-console/internal/metrics"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadServerConfig()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Str("env", string(cfg.Environment)).
		Msg("Starting Aegis console server")

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	sessions, err := auth.NewSessionStore(auth.SessionConfig{
		Secret:     []byte(cfg.SessionSecret),
		MaxAge:     cfg.SessionMaxAge,
		Secure:     cfg.SecureCookies,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		CookiePath: "/",
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize session store")
		return 1
	}

	transport, err := httpclient.NewTransport(httpclient.Options{
		ProxyConfig: &cfg.Proxy,
		UserAgent:   "aegis-console/" + Version,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to configure backend transport")
		return 1
	}
	if cfg.Proxy.HasProxy() {
		logger.Info().Str("proxy", httpclient.ProxyInfo(&cfg.Proxy)).Msg("Outbound proxy configured")
	}

	limiterStore, err := middleware.NewLimiterStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize rate limiter store")
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register metrics")
		return 1
	}

	routerCfg := api.Config{
		Environment:       cfg.Environment,
		AllowedOrigins:    cfg.CORSOrigins,
		BackendURL:        cfg.BackendURL,
		BackendTimeout:    cfg.BackendTimeout,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}
	router, err := api.NewRouter(routerCfg, api.Deps{
		Sessions:     sessions,
		Transport:    transport,
		LimiterStore: limiterStore,
		Metrics:      m,
		Gatherer:     registry,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize router")
		return 1
	}

	listenAddr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 30*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listenAddr).Str("backend", cfg.BackendURL).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server")
	case err := <-serveErr:
		logger.Error().Err(err).Msg("HTTP server error")
		return 1
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
