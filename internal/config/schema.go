// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for reportd.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Output    OutputConfig    `yaml:"output"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing,omitempty"`
}

// ServerConfig holds the HTTP gateway settings.
type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures bearer-token authentication for the /api endpoints.
// Health and metrics stay public. An empty token disables auth.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// IsConfigured returns true if an auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != ""
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds the artifact destination settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SchedulerConfig holds execution settings.
type SchedulerConfig struct {
	// RunTimeout bounds each query execution. Zero (the default) means no
	// timeout: a hung query holds its report's exclusivity lock until it
	// returns.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// TracingConfig enables OTLP trace export when an endpoint is set.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// disables tracing.
	Endpoint string `yaml:"endpoint"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1:8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = "reportd.db"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "outputs"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
