/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendBinary = "binary"
	BackendJSON   = "json"
	BackendYAML   = "yaml"
	BackendPebble = "pebble"
)

// Cache kinds
const (
	CacheSlot = "slot"
	CacheLRU  = "lru"
	CacheNone = "none"
)

// Config represents the ArrayDB configuration
type Config struct {
	DataDir string  `yaml:"data_dir"`
	File    string  `yaml:"file"`
	Backend string  `yaml:"backend"`
	Cache   Cache   `yaml:"cache"`
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Cache contains read cache configuration
type Cache struct {
	Kind string `yaml:"kind"`
	Size int    `yaml:"size"`
}

// Storage contains storage layout configuration
type Storage struct {
	MaxExtent           int  `yaml:"max_extent"`
	GrowthWarnThreshold int  `yaml:"growth_warn_threshold"`
	Checksum            bool `yaml:"checksum"`
	Sync                bool `yaml:"sync"`
}

// Server contains HTTP server configuration
type Server struct {
	Port   int    `yaml:"port"`
	Bind   string `yaml:"bind"`
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		File:    "records",
		Backend: BackendBinary,
		Cache: Cache{
			Kind: CacheSlot,
			Size: 1024,
		},
		Storage: Storage{
			GrowthWarnThreshold: 1 << 16,
		},
		Server: Server{
			Port: 8080,
			Bind: "127.0.0.1",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values no component can work with
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	if c.File == "" {
		errs = append(errs, errors.New("file must be set"))
	}
	switch c.Backend {
	case BackendBinary, BackendJSON, BackendYAML, BackendPebble:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	switch c.Cache.Kind {
	case CacheSlot, CacheNone:
	case CacheLRU:
		if c.Cache.Size <= 0 {
			errs = append(errs, fmt.Errorf("lru cache size must be positive, got %d", c.Cache.Size))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache kind %q", c.Cache.Kind))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache size must not be negative, got %d", c.Cache.Size))
	}
	if c.Storage.MaxExtent < 0 {
		errs = append(errs, fmt.Errorf("max_extent must not be negative, got %d", c.Storage.MaxExtent))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level: %w", err))
	}

	return errors.Join(errs...)
}

// FileName returns the name of the record file (or key space) for the backend
func (c *Config) FileName() string {
	switch c.Backend {
	case BackendBinary:
		return c.File + ".bin"
	case BackendJSON:
		return c.File + ".json"
	case BackendYAML:
		return c.File + ".yaml"
	}
	return c.File
}

// LoadConfig loads configuration from the specified path. Settings missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration using dataDir and backend
// when they are set
func BootstrapConfig(configPath, dataDir, backend string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}
	if backend != "" {
		config.Backend = backend
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	// Use OS-specific default locations
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./arraydb.yaml"
	}

	// For Linux/macOS, use ~/.config/arraydb/config.yaml
	configDir := filepath.Join(homeDir, ".config", "arraydb")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
