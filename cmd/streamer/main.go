package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"stream-lab/infrastructure/disk"
	grpcserver "stream-lab/infrastructure/grpc/server"
	httpserver "stream-lab/infrastructure/http/server"
	"stream-lab/internal"
	"stream-lab/observability"
	"stream-lab/repositories"
	"stream-lab/repositories/storage"
	"stream-lab/runtime"
	"stream-lab/runtime/workers"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Streamer terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run keeps every defer (badger, bluge, root dir) on the way out, os.Exit happens in main only.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store, err := disk.NewDiskStore(logger, config.VideoFilepath, config.MediaRoot)
	if err != nil {
		return exitConfig, fmt.Errorf("resource store: %w", err)
	}
	defer func() { _ = store.Close() }()

	// 3. Event pipeline
	streamRepository := repositories.NewStreamRepository(db, logger, config.LimitStreams)
	monitoring := observability.NewMonitoringManager(logger, config.MetricInterval)
	orchestrator := runtime.NewOrchestrator(logger, runtime.Config{
		BufferSize:           config.BufferSize,
		SinkTimeout:          config.SinkTimeout,
		MetricInterval:       config.MetricInterval,
		LatencyThreshold:     config.LatencyThreshold,
		LowCapacityThreshold: config.LowCapacityThreshold,
		RestartInterval:      config.RestartInterval,
	}).
		Add(storage.NewDiskSink(streamRepository, logger), monitoring).
		AddWorker(monitoring)

	var catalog repositories.ICatalogRepository
	if config.CatalogEnabled() {
		writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
		}
		defer func() {
			logger.Info("Closing Bluge...")
			_ = writer.Close()
		}()
		catalogRepository := repositories.NewCatalogRepository(writer, logger)
		catalog = catalogRepository
		orchestrator.AddWorker(workers.NewCatalogScanner(logger, config.MediaRoot, catalogRepository, config.RescanInterval))
	}

	// 4. HTTP
	streamer := httpserver.NewStreamer(logger, store, orchestrator.Publisher(), monitoring, config.ChunkSize)
	httpServer := &http.Server{
		Addr: config.Address(),
		Handler: httpserver.NewRouter(httpserver.RouterConfig{
			Log:        logger,
			Streamer:   streamer,
			Catalog:    catalog,
			History:    streamRepository,
			Monitoring: monitoring,
			Failures:   orchestrator.Failures(),
			AuthSecret: []byte(config.AuthSecret),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}

	var healthServer *grpcserver.HealthServer
	var grpcListener net.Listener
	if config.GrpcPort != 0 {
		address := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
		grpcListener, err = net.Listen("tcp", address)
		if err != nil {
			_ = listener.Close()
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		healthServer = grpcserver.NewHealthServer(logger)
	}

	var debugServer *http.Server
	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, internal.InspectEndpoint))
		debugServer = internal.StartDebugServer(logger, db, config.DebugPort, internal.StreamMapper, func() map[string]any {
			stats := monitoring.GetLatest()
			return map[string]any{
				"Active streams": stats.ActiveStreams,
				"Total streams":  stats.TotalStreams,
				"Bytes served":   stats.BytesServed,
				"Failures":       stats.Failures,
				"Rejected":       stats.Rejected,
			}
		})
	}

	// 5. Run until a signal or the first failure
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orchestrator.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting streaming server", "address", config.Address(), "at", time.Now().UTC())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if healthServer != nil {
		healthServer.Serving(true)
		g.Go(func() error {
			return healthServer.Serve(grpcListener)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if healthServer != nil {
			healthServer.Stop(shutdownCtx)
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown incomplete", "error", err)
		}
		if debugServer != nil {
			_ = debugServer.Shutdown(shutdownCtx)
		}
		orchestrator.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
