package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// Name is the name of the application that the logger is created for. It is
// attached to every record the common logger emits.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the application name.
	name Name

	// level is the minimum level that will be logged.
	level slog.Level
}

// NewConfig creates a new logger configuration.
func NewConfig(name Name) *Config {
	level := slog.LevelInfo
	if os.Getenv(EnvLogDebug) != "" {
		level = slog.LevelDebug
	}
	return &Config{
		name:  name,
		level: level,
	}
}

// CommonLogger creates the logger used across the application. It writes JSON
// records to stdout and registers itself as the slog default.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("nil logging config")
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String(KeyAppName, string(c.name)))
	slog.SetDefault(l)
	return l, nil
}
