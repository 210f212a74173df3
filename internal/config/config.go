package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/0xmhha/forge-indexer-go/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the indexer.
type Config struct {
	RPC      RPCConfig      `yaml:"rpc"`
	Contract ContractConfig `yaml:"contract"`
	Scan     ScanConfig     `yaml:"scan"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Metadata MetadataConfig `yaml:"metadata"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

// RPCConfig holds the blockchain provider configuration. Endpoints is an
// ordered list; the first entry is the preferred provider and the rest are
// failover targets.
type RPCConfig struct {
	Endpoints []string      `yaml:"endpoints"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ContractConfig identifies the contract whose events are indexed.
type ContractConfig struct {
	Address string `yaml:"address"`
}

// ScanConfig controls the re-scan lifecycle.
type ScanConfig struct {
	// StartBlock is the fixed block every scan restarts from.
	StartBlock uint64 `yaml:"start_block"`
	// Interval is the period between full re-scans.
	Interval time.Duration `yaml:"interval"`
	// RunOnce performs a single scan and exits instead of scheduling.
	RunOnce bool `yaml:"run_once"`
}

// FetchConfig controls chunked log retrieval.
type FetchConfig struct {
	// MaxBlockSpan is the widest range a single log query may cover.
	MaxBlockSpan uint64 `yaml:"max_block_span"`
	// MaxAttempts is the per-sub-range retry bound; each attempt rotates to
	// the next provider.
	MaxAttempts int `yaml:"max_attempts"`
	// RequestsPerSecond bounds the sub-range query rate.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// MetadataConfig controls off-chain metadata resolution.
type MetadataConfig struct {
	IPFSGateway string        `yaml:"ipfs_gateway"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// DatabaseConfig holds the derived-state store configuration.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	ReadOnly bool   `yaml:"readonly"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	EnableGraphQL   bool     `yaml:"enable_graphql"`
	EnableWebSocket bool     `yaml:"enable_websocket"`
	EnableCORS      bool     `yaml:"enable_cors"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for any field left unset.
func (c *Config) SetDefaults() {
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = constants.DefaultRPCTimeout
	}

	if c.Scan.Interval == 0 {
		c.Scan.Interval = constants.DefaultScanInterval
	}

	if c.Fetch.MaxBlockSpan == 0 {
		c.Fetch.MaxBlockSpan = constants.DefaultMaxBlockSpan
	}
	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = constants.DefaultMaxAttempts
	}
	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = constants.DefaultRequestsPerSecond
	}

	if c.Metadata.IPFSGateway == "" {
		c.Metadata.IPFSGateway = constants.DefaultIPFSGateway
	}
	if c.Metadata.HTTPTimeout == 0 {
		c.Metadata.HTTPTimeout = constants.DefaultMetadataTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.API.Host == "" {
		c.API.Host = constants.DefaultAPIHost
	}
	if c.API.Port == 0 {
		c.API.Port = constants.DefaultAPIPort
	}
	if c.API.AllowedOrigins == nil {
		c.API.AllowedOrigins = []string{"*"}
	}
}

// LoadFromEnv loads configuration from environment variables. Environment
// variables take precedence over file configuration.
func (c *Config) LoadFromEnv() error {
	if endpoints := os.Getenv("FORGE_RPC_ENDPOINTS"); endpoints != "" {
		list := make([]string, 0)
		for _, endpoint := range strings.Split(endpoints, ",") {
			endpoint = strings.TrimSpace(endpoint)
			if endpoint != "" {
				list = append(list, endpoint)
			}
		}
		c.RPC.Endpoints = list
	}
	if timeout := os.Getenv("FORGE_RPC_TIMEOUT"); timeout != "" {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid FORGE_RPC_TIMEOUT: %w", err)
		}
		c.RPC.Timeout = duration
	}

	if address := os.Getenv("FORGE_CONTRACT_ADDRESS"); address != "" {
		c.Contract.Address = address
	}

	if startBlock := os.Getenv("FORGE_SCAN_START_BLOCK"); startBlock != "" {
		val, err := strconv.ParseUint(startBlock, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FORGE_SCAN_START_BLOCK: %w", err)
		}
		c.Scan.StartBlock = val
	}
	if interval := os.Getenv("FORGE_SCAN_INTERVAL"); interval != "" {
		duration, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid FORGE_SCAN_INTERVAL: %w", err)
		}
		c.Scan.Interval = duration
	}
	if runOnce := os.Getenv("FORGE_SCAN_RUN_ONCE"); runOnce != "" {
		val, err := strconv.ParseBool(runOnce)
		if err != nil {
			return fmt.Errorf("invalid FORGE_SCAN_RUN_ONCE: %w", err)
		}
		c.Scan.RunOnce = val
	}

	if span := os.Getenv("FORGE_FETCH_MAX_BLOCK_SPAN"); span != "" {
		val, err := strconv.ParseUint(span, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FORGE_FETCH_MAX_BLOCK_SPAN: %w", err)
		}
		c.Fetch.MaxBlockSpan = val
	}
	if attempts := os.Getenv("FORGE_FETCH_MAX_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid FORGE_FETCH_MAX_ATTEMPTS: %w", err)
		}
		c.Fetch.MaxAttempts = val
	}
	if rps := os.Getenv("FORGE_FETCH_REQUESTS_PER_SECOND"); rps != "" {
		val, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return fmt.Errorf("invalid FORGE_FETCH_REQUESTS_PER_SECOND: %w", err)
		}
		c.Fetch.RequestsPerSecond = val
	}

	if gateway := os.Getenv("FORGE_METADATA_IPFS_GATEWAY"); gateway != "" {
		c.Metadata.IPFSGateway = gateway
	}
	if timeout := os.Getenv("FORGE_METADATA_HTTP_TIMEOUT"); timeout != "" {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid FORGE_METADATA_HTTP_TIMEOUT: %w", err)
		}
		c.Metadata.HTTPTimeout = duration
	}

	if path := os.Getenv("FORGE_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if readonly := os.Getenv("FORGE_DB_READONLY"); readonly != "" {
		val, err := strconv.ParseBool(readonly)
		if err != nil {
			return fmt.Errorf("invalid FORGE_DB_READONLY: %w", err)
		}
		c.Database.ReadOnly = val
	}

	if level := os.Getenv("FORGE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("FORGE_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}

	if enabled := os.Getenv("FORGE_API_ENABLED"); enabled != "" {
		val, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid FORGE_API_ENABLED: %w", err)
		}
		c.API.Enabled = val
	}
	if host := os.Getenv("FORGE_API_HOST"); host != "" {
		c.API.Host = host
	}
	if port := os.Getenv("FORGE_API_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid FORGE_API_PORT: %w", err)
		}
		c.API.Port = val
	}
	if enableGraphQL := os.Getenv("FORGE_API_GRAPHQL"); enableGraphQL != "" {
		val, err := strconv.ParseBool(enableGraphQL)
		if err != nil {
			return fmt.Errorf("invalid FORGE_API_GRAPHQL: %w", err)
		}
		c.API.EnableGraphQL = val
	}
	if enableWebSocket := os.Getenv("FORGE_API_WEBSOCKET"); enableWebSocket != "" {
		val, err := strconv.ParseBool(enableWebSocket)
		if err != nil {
			return fmt.Errorf("invalid FORGE_API_WEBSOCKET: %w", err)
		}
		c.API.EnableWebSocket = val
	}
	if enableCORS := os.Getenv("FORGE_API_CORS_ENABLED"); enableCORS != "" {
		val, err := strconv.ParseBool(enableCORS)
		if err != nil {
			return fmt.Errorf("invalid FORGE_API_CORS_ENABLED: %w", err)
		}
		c.API.EnableCORS = val
	}
	if allowedOrigins := os.Getenv("FORGE_API_CORS_ALLOWED_ORIGINS"); allowedOrigins != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(allowedOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		c.API.AllowedOrigins = origins
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.RPC.Endpoints) == 0 {
		return fmt.Errorf("at least one RPC endpoint is required")
	}
	for _, endpoint := range c.RPC.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			return fmt.Errorf("RPC endpoint cannot be blank")
		}
	}
	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("RPC timeout must be positive")
	}

	if c.Contract.Address == "" {
		return fmt.Errorf("contract address is required")
	}

	if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}

	if c.Fetch.MaxBlockSpan == 0 {
		return fmt.Errorf("max block span must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}

	if c.Metadata.IPFSGateway == "" {
		return fmt.Errorf("ipfs gateway is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, console", c.Log.Format)
	}

	if c.API.Port < constants.MinPort || c.API.Port > constants.MaxPort {
		return fmt.Errorf("invalid API port %d", c.API.Port)
	}

	return nil
}

// Load loads configuration in the following order:
// 1. Load from file (if provided)
// 2. Load from environment variables (override file)
// 3. Set defaults for anything still unset
// 4. Validate
func Load(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
