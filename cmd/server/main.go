package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoLockers/adapter/inbound/grpc"
	"github.com/ajkula/GoLockers/adapter/inbound/rest"
	"github.com/ajkula/GoLockers/adapter/inbound/websocket"
	"github.com/ajkula/GoLockers/adapter/outbound/filewatcher"
	"github.com/ajkula/GoLockers/adapter/outbound/fixture"
	"github.com/ajkula/GoLockers/adapter/outbound/httpgateway"
	"github.com/ajkula/GoLockers/adapter/outbound/logging"
	"github.com/ajkula/GoLockers/config"
	"github.com/ajkula/GoLockers/domain/port/outbound"
	"github.com/ajkula/GoLockers/domain/service"
)

const version = "1.0.0"

func main() {
	// Handle command-line arguments
	var configPath string
	var generateConfig bool
	var generateFixtures string
	var showVersion bool

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&generateConfig, "generate-config", false, "Generate default configuration file")
	flag.StringVar(&generateFixtures, "generate-fixtures", "", "Write the built-in fixture dataset to this path")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("GoLockers Version %s\n", version)
		os.Exit(0)
	}

	if generateConfig {
		if err := config.SaveConfig(config.DefaultConfig(), configPath); err != nil {
			fmt.Printf("Error generating config file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration file generated at: %s\n", configPath)
		os.Exit(0)
	}

	if generateFixtures != "" {
		if err := fixture.SaveDataset(generateFixtures, fixture.DefaultDataset()); err != nil {
			fmt.Printf("Error generating fixture file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Fixture file generated at: %s\n", generateFixtures)
		os.Exit(0)
	}

	// A missing config file falls back to the defaults
	cfg := config.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if cfg, err = config.LoadConfig(configPath); err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := logging.NewSlogAdapter(cfg)
	if err != nil {
		fmt.Printf("Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Shutdown()

	if err := run(cfg, logger); err != nil {
		logger.Error("GoLockers stopped with error", "error", err)
		logger.Shutdown()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.SlogAdapter) error {
	logger.Info("Starting GoLockers...", "version", version, "backend", cfg.Backend.Mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, reloader, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if reloader != nil {
		defer reloader.Stop()
	}

	factory := service.NewViewFactory(ctx, gateway, logger, service.ViewOptions{
		RequestTimeout: cfg.Views.RequestTimeout,
		RecentLogLimit: cfg.Views.RecentLogLimit,
	})

	router := mux.NewRouter()
	router.Use(rest.LoggingMiddleware(logger))

	// the REST backend API only makes sense in front of the local dataset
	if cfg.Backend.Mode == config.BackendFixture {
		rest.NewHandler(gateway, logger, logger).SetupRoutes(router)
	} else {
		router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		}).Methods("GET")
	}

	wsHandler := websocket.NewHandler(factory, logger, ctx)
	router.HandleFunc("/api/ws/views/{view}", func(w http.ResponseWriter, r *http.Request) {
		wsHandler.HandleConnection(w, r, mux.Vars(r)["view"])
	})
	defer wsHandler.Cleanup()

	var handler http.Handler = router
	if cfg.HTTP.CORS.Enabled {
		handler = rest.CORSMiddleware(cfg.HTTP.CORS.AllowedOrigins)(router)
	}

	var server *http.Server
	if cfg.HTTP.Enabled {
		httpAddr := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
		server = &http.Server{
			Addr:        httpAddr,
			Handler:     handler,
			ReadTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "address", httpAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
				cancel()
			}
		}()
	}

	if cfg.GRPC.Enabled {
		grpcServer := grpc.NewServer(gateway, logger, cfg.GRPC.CheckInterval, ctx)
		grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Address, cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
		defer grpcServer.Stop()
	}

	// Wait for signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("GoLockers started successfully")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
	case <-ctx.Done():
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", "error", err)
		}
	}

	cancel()
	logger.Info("Server shutdown complete")
	return nil
}

// buildGateway selects the data gateway and, for a watched fixture file, starts hot reload
func buildGateway(
	ctx context.Context,
	cfg *config.Config,
	logger outbound.Logger,
) (outbound.DataGateway, *service.FixtureReloadService, error) {
	if cfg.Backend.Mode == config.BackendHTTP {
		client, err := httpgateway.NewClient(cfg.Backend.BaseURL, nil, httpgateway.Options{
			Timeout:        cfg.Backend.Timeout,
			MaxRetries:     cfg.Backend.MaxRetries,
			RetryBaseDelay: cfg.Backend.RetryBaseDelay,
			Breaker: httpgateway.BreakerConfig{
				FailureThreshold: cfg.Backend.Breaker.FailureThreshold,
				SuccessThreshold: cfg.Backend.Breaker.SuccessThreshold,
				OpenTimeout:      cfg.Backend.Breaker.OpenTimeout,
			},
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using HTTP backend", "url", cfg.Backend.BaseURL)
		return client, nil, nil
	}

	dataset := fixture.DefaultDataset()
	if cfg.Fixture.Path != "" {
		d, err := fixture.LoadDataset(cfg.Fixture.Path)
		if err != nil {
			return nil, nil, err
		}
		dataset = d
	}

	lat := cfg.Fixture.Latency
	backend := fixture.NewBackend(dataset, fixture.Latency{
		Stats:   lat.Stats,
		Lockers: lat.Lockers,
		Users:   lat.Users,
		Logs:    lat.Logs,
		Profile: lat.Profile,
		Command: lat.Command,
	}, logger)
	logger.Info("Using fixture backend", "path", cfg.Fixture.Path)

	if !cfg.Fixture.Watch {
		return backend, nil, nil
	}

	watcher, err := filewatcher.NewFSWatcher(filewatcher.DefaultDebounce)
	if err != nil {
		return nil, nil, err
	}
	reloader := service.NewFixtureReloadService(watcher, backend, logger)
	if err := reloader.Start(ctx, cfg.Fixture.Path); err != nil {
		watcher.Stop()
		return nil, nil, err
	}
	return backend, reloader, nil
}
