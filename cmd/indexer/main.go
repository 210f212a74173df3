package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0xmhha/forge-indexer-go/api"
	"github.com/0xmhha/forge-indexer-go/api/websocket"
	"github.com/0xmhha/forge-indexer-go/client"
	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/fetch"
	"github.com/0xmhha/forge-indexer-go/internal/config"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
	"github.com/0xmhha/forge-indexer-go/internal/logger"
	"github.com/0xmhha/forge-indexer-go/metadata"
	"github.com/0xmhha/forge-indexer-go/state"
	"github.com/0xmhha/forge-indexer-go/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	// Define command-line flags
	var (
		configFile   = flag.String("config", "", "Path to configuration file (YAML)")
		showVersion  = flag.Bool("version", false, "Show version information and exit")
		rpcEndpoints = flag.String("rpc", "", "Comma-separated RPC endpoint URLs in failover order")
		contractAddr = flag.String("contract", "", "Address of the contract to index")
		dbPath       = flag.String("db", "", "Database path")
		startBlock   = flag.Uint64("start-block", 0, "Block number every scan restarts from")
		scanInterval = flag.Duration("scan-interval", 0, "Interval between full re-scans")
		runOnce      = flag.Bool("run-once", false, "Perform a single scan and exit")
		maxBlockSpan = flag.Uint64("max-span", 0, "Widest block range a single log query may cover")
		logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat    = flag.String("log-format", "", "Log format (json, console)")

		// API server flags
		enableAPI       = flag.Bool("api", false, "Enable API server")
		apiHost         = flag.String("api-host", "", "API server host")
		apiPort         = flag.Int("api-port", 0, "API server port")
		enableWebSocket = flag.Bool("websocket", false, "Enable WebSocket event stream")
	)

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		fmt.Printf("forge-indexer-go version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override config with command-line flags
	applyFlags(cfg, *rpcEndpoints, *contractAddr, *dbPath, *startBlock, *scanInterval, *runOnce, *maxBlockSpan, *logLevel, *logFormat)
	applyAPIFlags(cfg, *enableAPI, *apiHost, *apiPort, *enableWebSocket)
	cfg.SetDefaults()

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := initLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	contract := common.HexToAddress(cfg.Contract.Address)

	// Log startup information
	log.Info("Starting forge indexer",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_time", buildTime),
		zap.Strings("rpc_endpoints", cfg.RPC.Endpoints),
		zap.String("contract", contract.Hex()),
		zap.String("db_path", cfg.Database.Path),
		zap.Uint64("start_block", cfg.Scan.StartBlock),
		zap.Duration("scan_interval", cfg.Scan.Interval),
		zap.Bool("run_once", cfg.Scan.RunOnce),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize components
	log.Info("Initializing components...")

	// Connect every configured provider; failover order follows the list
	clientLog := logger.WithComponent(log, "client")
	clients := make([]*client.Client, 0, len(cfg.RPC.Endpoints))
	for _, endpoint := range cfg.RPC.Endpoints {
		c, err := client.NewClient(&client.Config{
			Endpoint: endpoint,
			Timeout:  cfg.RPC.Timeout,
			Logger:   clientLog,
		})
		if err != nil {
			log.Fatal("Failed to connect to RPC provider",
				zap.String("endpoint", endpoint),
				zap.Error(err))
		}
		clients = append(clients, c)
	}

	pool, err := client.NewPool(clients, clientLog)
	if err != nil {
		log.Fatal("Failed to create provider pool", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Provider pool ready",
		zap.Int("providers", pool.Size()),
	)

	// Test connection
	chainID, err := pool.ChainID(ctx)
	if err != nil {
		log.Fatal("Failed to get chain ID", zap.Error(err))
	}
	log.Info("Connected to chain",
		zap.String("chain_id", chainID.String()),
	)

	// Indexing a nonexistent contract is a configuration error; fail fast
	if err := pool.VerifyContract(ctx, contract); err != nil {
		log.Fatal("Contract verification failed", zap.Error(err))
	}
	log.Info("Contract verified",
		zap.String("address", contract.Hex()),
	)

	// Initialize storage
	storageConfig := storage.DefaultConfig(cfg.Database.Path)
	storageConfig.ReadOnly = cfg.Database.ReadOnly
	store, err := storage.NewStore(storageConfig)
	if err != nil {
		log.Fatal("Failed to create storage", zap.Error(err))
	}
	store.SetLogger(logger.WithComponent(log, "storage"))
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", zap.Error(err))
		}
	}()

	log.Info("Storage initialized",
		zap.String("path", cfg.Database.Path),
	)

	// Initialize notification bus
	bus := events.NewBus(constants.DefaultEventBufferSize)
	bus.SetMetrics(events.NewBusMetrics(""))
	go bus.Run()
	defer bus.Stop()

	// Initialize metadata resolver
	resolver, err := metadata.NewResolver(&metadata.Config{
		IPFSGateway: cfg.Metadata.IPFSGateway,
		HTTPTimeout: cfg.Metadata.HTTPTimeout,
	}, logger.WithComponent(log, "metadata"))
	if err != nil {
		log.Fatal("Failed to create metadata resolver", zap.Error(err))
	}

	// Initialize state processor behind a cache-through chain lookup
	stateLog := logger.WithComponent(log, "state")
	lookup, err := state.NewChainLookup(store, pool, stateLog)
	if err != nil {
		log.Fatal("Failed to create chain lookup", zap.Error(err))
	}

	processor, err := state.NewProcessor(store, lookup, resolver, stateLog)
	if err != nil {
		log.Fatal("Failed to create state processor", zap.Error(err))
	}
	processor.SetBus(bus)
	processor.SetMetrics(state.NewMetrics(""))

	// Initialize fetch scheduler over the provider list
	sources := make([]fetch.LogSource, 0, pool.Size())
	for _, c := range pool.Clients() {
		sources = append(sources, c)
	}

	fetchLog := logger.WithComponent(log, "fetch")
	scheduler, err := fetch.NewScheduler(sources, &fetch.Config{
		Contract:          contract,
		MaxBlockSpan:      cfg.Fetch.MaxBlockSpan,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	}, fetchLog)
	if err != nil {
		log.Fatal("Failed to create fetch scheduler", zap.Error(err))
	}

	fetchMetrics := fetch.NewMetrics("")
	scheduler.SetMetrics(fetchMetrics)
	pool.SetRotationCounter(fetchMetrics.ProviderRotationsTotal)

	// Initialize scan runner
	runner, err := fetch.NewRunner(scheduler, pool, processor, &fetch.RunnerConfig{
		StartBlock: cfg.Scan.StartBlock,
		Interval:   cfg.Scan.Interval,
	}, fetchLog)
	if err != nil {
		log.Fatal("Failed to create scan runner", zap.Error(err))
	}
	runner.SetBus(bus)
	runner.SetMetrics(fetchMetrics)

	log.Info("Scan engine initialized",
		zap.Uint64("max_block_span", cfg.Fetch.MaxBlockSpan),
		zap.Int("max_attempts", cfg.Fetch.MaxAttempts),
		zap.Float64("requests_per_second", cfg.Fetch.RequestsPerSecond),
	)

	// Initialize and start API server if enabled
	var apiServer *api.Server
	if cfg.API.Enabled {
		log.Info("Initializing API server...")

		apiConfig := api.DefaultConfig()
		apiConfig.Host = cfg.API.Host
		apiConfig.Port = cfg.API.Port
		apiConfig.EnableCORS = cfg.API.EnableCORS
		apiConfig.AllowedOrigins = cfg.API.AllowedOrigins
		apiConfig.EnableWebSocket = cfg.API.EnableWebSocket

		var err error
		apiServer, err = api.NewServer(apiConfig, logger.WithComponent(log, "api"), store, bus, runner)
		if err != nil {
			log.Fatal("Failed to create API server", zap.Error(err))
		}
		apiServer.SetStreamMetrics(websocket.NewMetrics(""))

		// Start API server in goroutine
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error("API server failed", zap.Error(err))
			}
		}()

		log.Info("API server started",
			zap.String("address", apiConfig.Address()),
			zap.Bool("websocket", apiConfig.EnableWebSocket),
		)
	}

	// Start scanning
	errChan := make(chan error, 1)
	if cfg.Scan.RunOnce {
		log.Info("Starting single-scan mode")
		go func() {
			errChan <- runner.RunOnce(ctx)
		}()
	} else {
		if err := runner.Start(ctx); err != nil {
			log.Fatal("Failed to start scan runner", zap.Error(err))
		}
	}

	// Wait for shutdown signal, or scan completion in single-scan mode
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel() // Cancel context to stop an in-flight scan
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Scan failed", zap.Error(err))
		}
	}

	log.Info("Shutting down gracefully...")

	// Stop the schedule and wait for an in-flight cron-invoked scan
	runner.Stop()

	// Stop API server if it was started
	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
		defer shutdownCancel()

		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop API server gracefully", zap.Error(err))
		}
	}

	// Final statistics
	status := runner.Status()
	log.Info("Final statistics",
		zap.Uint64("chain_head", status.ChainHead),
		zap.Uint64("scans_completed", status.ScansCompleted),
		zap.Int("events_applied", status.EventsApplied),
		zap.Int("events_skipped", status.EventsSkipped),
		zap.Int("failed_ranges", status.FailedRanges),
	)

	log.Info("Indexer stopped")
}

// loadConfig loads configuration from file and environment variables. Flags
// are applied afterwards, so validation happens in main rather than here.
func loadConfig(configFile string) (*config.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &config.Config{}

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads environment variables from a .env file if it exists.
func loadDotEnv() error {
	info, err := os.Stat(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat .env: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf(".env exists but is a directory")
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyFlags applies command-line flags to configuration
func applyFlags(cfg *config.Config, rpcEndpoints, contractAddr, dbPath string, startBlock uint64, scanInterval time.Duration, runOnce bool, maxBlockSpan uint64, logLevel, logFormat string) {
	if rpcEndpoints != "" {
		cfg.RPC.Endpoints = splitList(rpcEndpoints)
	}
	if contractAddr != "" {
		cfg.Contract.Address = contractAddr
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if startBlock > 0 {
		cfg.Scan.StartBlock = startBlock
	}
	if scanInterval > 0 {
		cfg.Scan.Interval = scanInterval
	}
	if runOnce {
		cfg.Scan.RunOnce = true
	}
	if maxBlockSpan > 0 {
		cfg.Fetch.MaxBlockSpan = maxBlockSpan
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}

// applyAPIFlags applies API-related command-line flags to configuration
func applyAPIFlags(cfg *config.Config, enableAPI bool, apiHost string, apiPort int, enableWebSocket bool) {
	if enableAPI {
		cfg.API.Enabled = true
	}
	if apiHost != "" {
		cfg.API.Host = apiHost
	}
	if apiPort > 0 {
		cfg.API.Port = apiPort
	}
	if enableWebSocket {
		cfg.API.EnableWebSocket = true
	}
}

// splitList splits a comma-separated flag value, dropping empty entries
func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}

// validateConfig validates the configuration beyond what the config package
// checks itself
func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !common.IsHexAddress(cfg.Contract.Address) {
		return fmt.Errorf("invalid contract address %q", cfg.Contract.Address)
	}
	return nil
}

// initLogger initializes the logger based on configuration
func initLogger(level, format string) (*zap.Logger, error) {
	if format == "json" || format == "production" {
		return logger.NewProduction()
	}

	// Default to development logger
	cfg := logger.Config{
		Level:       level,
		Encoding:    "console",
		Development: true,
	}
	return logger.NewWithConfig(&cfg)
}
