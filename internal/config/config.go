// Package config loads run settings for joi-to-zod.
//
// Settings are layered: built-in defaults, then a .joizod.yaml file (from
// the working directory, $HOME, or an explicit path), then JOIZOD_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultParallel    = true
	DefaultLogLevel    = "info"
	DefaultMappingFile = ".joizod-mappings.yaml"
	DefaultTargetAlias = "z"
)

var (
	ErrInvalidLogLevel    = errors.New("log_level must be one of debug, info, warn, error")
	ErrInvalidFileTimeout = errors.New("file_timeout must not be negative")
	ErrInvalidTargetAlias = errors.New("target_alias must be a plain identifier")
)

// Config is the run configuration. Field tags use mapstructure for viper
// unmarshalling.
type Config struct {
	Include         []string      `mapstructure:"include"`
	Exclude         []string      `mapstructure:"exclude"`
	DryRun          bool          `mapstructure:"dry_run"`
	Parallel        bool          `mapstructure:"parallel"`
	LogLevel        string        `mapstructure:"log_level"`
	InlineConstants bool          `mapstructure:"inline_constants"`
	FileTimeout     time.Duration `mapstructure:"file_timeout"`
	// Journal is the SQLite run journal path. Empty disables the journal.
	Journal     string `mapstructure:"journal"`
	MappingFile string `mapstructure:"mapping_file"`
	TargetAlias string `mapstructure:"target_alias"`
}

// Validate checks the values that the loader cannot type-check.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FileTimeout < 0 {
		return ErrInvalidFileTimeout
	}
	if c.TargetAlias != "" && !identifier(c.TargetAlias) {
		return fmt.Errorf("%w: %q", ErrInvalidTargetAlias, c.TargetAlias)
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel maps a level name to slog. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
}

func identifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
