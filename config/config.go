package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global service configuration
type Config struct {
	// General configuration
	General struct {
		// LogLevel is the logging level
		LogLevel string `yaml:"logLevel"`

		// Development enables development mode
		Development bool `yaml:"development"`
	} `yaml:"general"`

	// Backend selects and tunes the data gateway
	Backend struct {
		// Mode is "fixture" (in-memory dataset) or "http" (remote backend)
		Mode string `yaml:"mode"`

		// BaseURL of the remote backend, used in http mode
		BaseURL string `yaml:"baseUrl"`

		// Timeout bounds a single backend request
		Timeout time.Duration `yaml:"timeout"`

		// MaxRetries is the number of retries of a failed read
		MaxRetries int `yaml:"maxRetries"`

		// RetryBaseDelay is the first backoff delay, doubled on each retry
		RetryBaseDelay time.Duration `yaml:"retryBaseDelay"`

		// Breaker configures fail-fast behaviour when the backend keeps failing
		Breaker struct {
			FailureThreshold int           `yaml:"failureThreshold"`
			SuccessThreshold int           `yaml:"successThreshold"`
			OpenTimeout      time.Duration `yaml:"openTimeout"`
		} `yaml:"breaker"`
	} `yaml:"backend"`

	// Fixture configures the in-memory backend
	Fixture struct {
		// Path of a YAML dataset, built-in fixtures are used when empty
		Path string `yaml:"path"`

		// Watch reloads the dataset when the file changes
		Watch bool `yaml:"watch"`

		// Latency is the artificial delay per operation
		Latency struct {
			Stats   time.Duration `yaml:"stats"`
			Lockers time.Duration `yaml:"lockers"`
			Users   time.Duration `yaml:"users"`
			Logs    time.Duration `yaml:"logs"`
			Profile time.Duration `yaml:"profile"`
			Command time.Duration `yaml:"command"`
		} `yaml:"latency"`
	} `yaml:"fixture"`

	// HTTP server configuration
	HTTP struct {
		// Enabled enables the HTTP server
		Enabled bool `yaml:"enabled"`

		// Address to bind the HTTP server
		Address string `yaml:"address"`

		// Port to bind the HTTP server
		Port int `yaml:"port"`

		// CORS configuration
		CORS struct {
			// Enabled enables CORS
			Enabled bool `yaml:"enabled"`

			// AllowedOrigins is the list of allowed origins
			AllowedOrigins []string `yaml:"allowedOrigins"`
		} `yaml:"cors"`
	} `yaml:"http"`

	// gRPC health server configuration
	GRPC struct {
		Enabled       bool          `yaml:"enabled"`
		Address       string        `yaml:"address"`
		Port          int           `yaml:"port"`
		CheckInterval time.Duration `yaml:"checkInterval"`
	} `yaml:"grpc"`

	// Views configures the view controllers
	Views struct {
		// RequestTimeout bounds one view load
		RequestTimeout time.Duration `yaml:"requestTimeout"`

		// RecentLogLimit is the size of the dashboard activity preview
		RecentLogLimit int `yaml:"recentLogLimit"`
	} `yaml:"views"`

	Logging struct {
		ChannelSize int    `yaml:"channelSize"`
		Format      string `yaml:"format"` // "json" or "text"
		Output      string `yaml:"output"` // "stdout", "stderr" or "file"
		FilePath    string `yaml:"filePath"`
	} `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	c := &Config{}

	// General configuration
	c.General.LogLevel = "info"
	c.General.Development = true

	// Backend configuration
	c.Backend.Mode = "fixture"
	c.Backend.BaseURL = "http://localhost:8080"
	c.Backend.Timeout = 5 * time.Second
	c.Backend.MaxRetries = 2
	c.Backend.RetryBaseDelay = 200 * time.Millisecond
	c.Backend.Breaker.FailureThreshold = 5
	c.Backend.Breaker.SuccessThreshold = 2
	c.Backend.Breaker.OpenTimeout = 30 * time.Second

	// Fixture configuration, latencies of the development backend
	c.Fixture.Path = ""
	c.Fixture.Watch = false
	c.Fixture.Latency.Stats = 800 * time.Millisecond
	c.Fixture.Latency.Lockers = 600 * time.Millisecond
	c.Fixture.Latency.Users = 700 * time.Millisecond
	c.Fixture.Latency.Logs = 500 * time.Millisecond
	c.Fixture.Latency.Profile = 0
	c.Fixture.Latency.Command = 1000 * time.Millisecond

	// HTTP server configuration
	c.HTTP.Enabled = true
	c.HTTP.Address = "0.0.0.0"
	c.HTTP.Port = 8080
	c.HTTP.CORS.Enabled = true
	c.HTTP.CORS.AllowedOrigins = []string{"*"}

	// gRPC health configuration
	c.GRPC.Enabled = false
	c.GRPC.Address = "0.0.0.0"
	c.GRPC.Port = 50051
	c.GRPC.CheckInterval = 15 * time.Second

	// Views configuration
	c.Views.RequestTimeout = 10 * time.Second
	c.Views.RecentLogLimit = 3

	// Logging configuration defaults
	c.Logging.ChannelSize = 1000
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"
	c.Logging.FilePath = ""

	return c
}

// LoadConfig loads the configuration from a file, on top of the defaults
func LoadConfig(path string) (*Config, error) {
	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load the default configuration
	config := DefaultConfig()

	// Decode the YAML file
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fixture paths are relative to the config file
	if config.Fixture.Path != "" && !filepath.IsAbs(config.Fixture.Path) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		config.Fixture.Path = filepath.Join(dir, config.Fixture.Path)
	}

	// Validate the configuration
	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	// Encode the configuration to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Create parent directory if necessary
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Backend modes
const (
	BackendFixture = "fixture"
	BackendHTTP    = "http"
)

// Validate checks the configuration and normalises the backend mode
func Validate(config *Config) error {
	// Check the log level
	logLevel := strings.ToLower(config.General.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		return fmt.Errorf("invalid log level: %s", config.General.LogLevel)
	}

	// Check the backend, the mode is normalised for the callers
	config.Backend.Mode = strings.ToLower(strings.TrimSpace(config.Backend.Mode))
	switch config.Backend.Mode {
	case BackendFixture:
	case BackendHTTP:
		if config.Backend.BaseURL == "" {
			return fmt.Errorf("http backend mode requires a baseUrl")
		}
	default:
		return fmt.Errorf("invalid backend mode: %s", config.Backend.Mode)
	}

	if config.Backend.MaxRetries < 0 {
		return fmt.Errorf("invalid backend maxRetries: %d", config.Backend.MaxRetries)
	}

	if config.Fixture.Watch && config.Fixture.Path == "" {
		return fmt.Errorf("fixture watch enabled but no fixture path specified")
	}

	// check ports
	if config.HTTP.Enabled && (config.HTTP.Port < 1 || config.HTTP.Port > 65535) {
		return fmt.Errorf("invalid HTTP port: %d", config.HTTP.Port)
	}

	if config.GRPC.Enabled && (config.GRPC.Port < 1 || config.GRPC.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", config.GRPC.Port)
	}

	if config.Views.RecentLogLimit < 0 {
		return fmt.Errorf("invalid recentLogLimit: %d", config.Views.RecentLogLimit)
	}

	switch config.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	if config.Logging.Output == "file" && config.Logging.FilePath == "" {
		return fmt.Errorf("file log output requires a filePath")
	}

	return nil
}
