// Package config provides configuration management for the vector database
// server, handling environment variables and runtime settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Embedder  EmbedderConfig  `json:"embedder" yaml:"embedder"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Bootstrap BootstrapConfig `json:"bootstrap" yaml:"bootstrap"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port         int      `json:"port" yaml:"port"`
	Host         string   `json:"host" yaml:"host"`
	ReadTimeout  int      `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeout int      `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	// CORSAllowedOrigins lists the origins allowed to call this API outside
	// local development. Empty means no cross-origin requests are permitted.
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins"`
}

// StorageConfig controls where library snapshots are persisted on disk.
type StorageConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// EmbedderConfig configures the Cohere embedding provider.
type EmbedderConfig struct {
	APIKey         string        `json:"-" yaml:"-"` // Never serialize API key
	BaseURL        string        `json:"base_url" yaml:"base_url"`
	Model          string        `json:"model" yaml:"model"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	CacheSize      int           `json:"cache_size" yaml:"cache_size"`
	CacheTTL       time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	RequestsPerMin int           `json:"requests_per_min" yaml:"requests_per_min"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// BootstrapConfig controls how the process seeds its in-memory store on startup.
type BootstrapConfig struct {
	// TestingData, when non-empty, is parsed as a JSON seed library and loaded
	// into the store at startup, in addition to the disk snapshots.
	TestingData string `json:"-" yaml:"-"`
	// TestingDataFile, when set, is read from disk and treated like TestingData.
	TestingDataFile string `json:"testing_data_file" yaml:"testing_data_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Embedder: EmbedderConfig{
			BaseURL:        "https://api.cohere.ai/v1/embed",
			Model:          "embed-english-v3.0",
			Timeout:        60 * time.Second,
			CacheSize:      1000,
			CacheTTL:       24 * time.Hour,
			RequestsPerMin: 600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from a .env file (if present), an optional
// vectorbase.yaml overlay, and the process environment, in that order of
// increasing precedence, applying defaults for anything left unset.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	yamlPath := getStringEnvWithDefault("CONFIG_FILE", "vectorbase.yaml")
	if err := loadFromYAML(config, yamlPath); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", yamlPath, err)
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromYAML merges a YAML overlay file into config. A missing file is not
// an error: the overlay is optional and env vars alone are a valid setup.
func loadFromYAML(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, config)
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadStorageConfig(config)
	loadEmbedderConfig(config)
	loadLoggingConfig(config)
	loadBootstrapConfig(config)
}

func loadServerConfig(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	config.Server.Host = getStringEnvWithDefault("HOST", config.Server.Host)

	if readTimeout := os.Getenv("READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.CORSAllowedOrigins = splitAndTrim(origins)
	}
}

// splitAndTrim splits a comma-separated list and trims whitespace from each entry.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadStorageConfig(config *Config) {
	config.Storage.DataDir = getStringEnvWithDefault("DATA_DIR", config.Storage.DataDir)
}

func loadEmbedderConfig(config *Config) {
	config.Embedder.APIKey = os.Getenv("COHERE_API_KEY")
	config.Embedder.BaseURL = getStringEnvWithDefault("COHERE_EMBED_URL", config.Embedder.BaseURL)
	config.Embedder.Model = getStringEnvWithDefault("COHERE_EMBED_MODEL", config.Embedder.Model)

	if timeout := os.Getenv("COHERE_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil {
			config.Embedder.Timeout = duration
		}
	}
	config.Embedder.CacheSize = getIntEnvWithDefault("EMBEDDING_CACHE_SIZE", config.Embedder.CacheSize)
	config.Embedder.RequestsPerMin = getIntEnvWithDefault("EMBEDDING_REQUESTS_PER_MIN", config.Embedder.RequestsPerMin)
}

func loadLoggingConfig(config *Config) {
	config.Logging.Level = getStringEnvWithDefault("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getStringEnvWithDefault("LOG_FORMAT", config.Logging.Format)
}

func loadBootstrapConfig(config *Config) {
	config.Bootstrap.TestingData = os.Getenv("TESTING_DATA")
	config.Bootstrap.TestingDataFile = getStringEnvWithDefault("TESTING_DATA_FILE", config.Bootstrap.TestingDataFile)
}

// Validate checks the configuration for consistency, returning an error
// describing the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	return nil
}

// GetDataDir returns the data directory path, creating it if necessary.
func (c *Config) GetDataDir() (string, error) {
	if err := os.MkdirAll(c.Storage.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return c.Storage.DataDir, nil
}

// Helper functions for environment variable parsing with defaults.

func getStringEnvWithDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultValue
}
