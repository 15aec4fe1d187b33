// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Command vamdc-mcp runs the VAMDC MCP server on stdio or HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
	mcpotel "github.com/VAMDC/vamdc-mcp/mcprpc/otel"
	"github.com/VAMDC/vamdc-mcp/service"
	"github.com/VAMDC/vamdc-mcp/spectral"
)

// Config holds process configuration. Environment first, flags override.
type Config struct {
	Transport   string `env:"VAMDC_MCP_TRANSPORT"    envDefault:"stdio"`
	HTTPAddr    string `env:"VAMDC_MCP_HTTP_ADDR"    envDefault:"localhost:8888"`
	SpeciesDB   string `env:"VAMDC_MCP_SPECIES_DB"   envDefault:""`
	PoolWorkers int    `env:"VAMDC_MCP_POOL_WORKERS" envDefault:"4"`
	PoolQueue   int    `env:"VAMDC_MCP_POOL_QUEUE"   envDefault:"32"`
	Compression int    `env:"VAMDC_MCP_COMPRESSION"  envDefault:"3"`
	LogLevel    string `env:"VAMDC_MCP_LOG_LEVEL"    envDefault:"info"`
	Telemetry   bool   `env:"VAMDC_MCP_TELEMETRY"    envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	// A local .env is a convenience for development; absence is normal.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address (http transport)")
	fs.StringVar(&cfg.SpeciesDB, "species-db", cfg.SpeciesDB, "Species database base URL (empty for production)")
	fs.IntVar(&cfg.PoolWorkers, "pool-workers", cfg.PoolWorkers, "Offload pool worker count")
	fs.IntVar(&cfg.PoolQueue, "pool-queue", cfg.PoolQueue, "Offload pool queue depth")
	fs.IntVar(&cfg.Compression, "compression", cfg.Compression, "HTTP gzip level, 0 disables")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Telemetry, "telemetry", cfg.Telemetry, "Emit OpenTelemetry traces and metrics to stderr")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func main() {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "vamdc-mcp: %v\n", err)
		os.Exit(2)
	}
	setupLogging(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcprpc.NewServer(service.ServerName, service.Version)
	server.SetInstructions("Query the VAMDC spectroscopic databases: list nodes and " +
		"chemical species, then fetch spectral lines by wavelength window.")

	pool := mcprpc.NewPool(cfg.PoolWorkers, cfg.PoolQueue)
	defer pool.Close()
	server.SetPool(pool)

	if cfg.Telemetry {
		shutdown, err := setupTelemetry(ctx)
		if err != nil {
			return fmt.Errorf("telemetry setup: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown", "err", err)
			}
		}()
		mcpotel.InstrumentServer(server, mcpotel.DefaultConfig())
	}

	var opts []spectral.Option
	if cfg.SpeciesDB != "" {
		opts = append(opts, spectral.WithBaseURL(cfg.SpeciesDB))
	}
	client := spectral.NewHTTPClient(opts...)
	service.Register(server, client)

	switch cfg.Transport {
	case "stdio":
		slog.Info("starting stdio transport")
		server.RunStdio()
		return nil
	case "http":
		return runHTTP(ctx, cfg, server, client)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", cfg.Transport)
	}
}

func runHTTP(ctx context.Context, cfg Config, server *mcprpc.Server, client spectral.Client) error {
	httpServer := mcprpc.NewHTTPServer(server)
	httpServer.SetCompressionLevel(cfg.Compression)
	service.MountREST(httpServer, server, client)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http transport", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// setupLogging installs a text slog handler on stderr. Stdout stays
// reserved for the stdio transport framing.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// setupTelemetry installs stderr-bound stdout exporters as the global
// trace and meter providers and returns their combined shutdown.
func setupTelemetry(ctx context.Context) (func(context.Context) error, error) {
	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	otel.SetTracerProvider(tp)

	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(30*time.Second))))
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		terr := tp.Shutdown(ctx)
		merr := mp.Shutdown(ctx)
		if terr != nil {
			return terr
		}
		return merr
	}, nil
}
