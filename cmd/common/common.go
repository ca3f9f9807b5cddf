// Package common provides shared configuration and logging setup for the
// shadow command binaries. Commands load a YAML file first, then apply
// explicit command-line flags on top.
package common

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shadowlabs-sol/shadow/protocol"
)

// Config is the full configuration for a shadow binary.
type Config struct {
	// HTTPAddr is the gateway API listen address.
	HTTPAddr string `yaml:"http_addr"`

	// MetricsAddr is the metrics listen address; empty disables metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	// EnablePprof mounts the pprof API under /debug.
	EnablePprof bool `yaml:"enable_pprof"`

	// LogJSON selects JSON log output; default is text.
	LogJSON bool `yaml:"log_json"`

	// LogDebug lowers the log level to debug.
	LogDebug bool `yaml:"log_debug"`

	// RPC configures the ledger node connection.
	RPC RPCConfig `yaml:"rpc"`

	// Protocol carries the deployment's protocol parameters.
	Protocol *protocol.Config `yaml:"protocol"`
}

// RPCConfig configures the ledger RPC client.
type RPCConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Protocol: protocol.DefaultConfig(),
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Protocol == nil {
		cfg.Protocol = protocol.DefaultConfig()
	}
	return cfg, nil
}

// NewLogger builds the process logger per the config.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.LogDebug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
