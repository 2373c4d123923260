package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// Validate checks the structural validity of a Config. Defaults must have
// been applied first.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := net.ResolveTCPAddr("tcp", cfg.Server.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid bind address %q", cfg.Server.Bind))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q (debug, info, warn, error)", cfg.Log.Level))
	}

	if cfg.Scheduler.RunTimeout < 0 {
		errs = append(errs, errors.New("config: run_timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a configured level name to its slog level. Unknown names
// fall back to info; Validate rejects them before this is reached.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
