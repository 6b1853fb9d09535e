// Package config loads the settings shared by the CLI and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/deepankarm/partialstream/pkg/buffer"
)

// Config holds all settings.
type Config struct {
	// Mode selects the generator: content or tools.
	Mode string `yaml:"mode"`

	// Format is the input format: sse, ndjson or raw.
	Format string `yaml:"format"`

	// Buffer is the buffer mode: text, json or extract.
	Buffer string `yaml:"buffer"`

	// Chunk is the delta size used when replaying raw text.
	Chunk int `yaml:"chunk"`

	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures `partialstream serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Environment variables overriding the file.
const (
	EnvMode     = "PARTIALSTREAM_MODE"
	EnvFormat   = "PARTIALSTREAM_FORMAT"
	EnvBuffer   = "PARTIALSTREAM_BUFFER"
	EnvChunk    = "PARTIALSTREAM_CHUNK"
	EnvAddr     = "PARTIALSTREAM_ADDR"
	EnvLogLevel = "PARTIALSTREAM_LOG_LEVEL"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:   "content",
		Format: "raw",
		Buffer: string(buffer.ModeJSON),
		Chunk:  8,
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = v
	}
	if v := os.Getenv(EnvBuffer); v != "" {
		c.Buffer = v
	}
	if v := os.Getenv(EnvChunk); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvChunk, err)
		}
		c.Chunk = n
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate rejects unknown modes, formats and levels.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case "content", "tools":
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	switch c.Format {
	case "sse", "ndjson", "raw":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if _, err := buffer.ParseMode(c.Buffer); err != nil {
		errs = append(errs, err)
	}
	if c.Chunk < 1 {
		errs = append(errs, fmt.Errorf("chunk must be positive, got %d", c.Chunk))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BufferMode returns the validated buffer mode.
func (c *Config) BufferMode() buffer.Mode {
	m, err := buffer.ParseMode(c.Buffer)
	if err != nil {
		return buffer.ModeJSON
	}
	return m
}
