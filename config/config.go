// Package config centralises configuration parsing for runlog commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Config captures runtime configuration values.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Import ImportConfig `yaml:"import"`
	Export ExportConfig `yaml:"export"`
}

// StoreConfig selects the storage collaborator.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite|file|memory
	Path   string `yaml:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// ImportConfig controls the import pipeline.
type ImportConfig struct {
	// Timezone is the IANA zone used to turn absolute timestamps into local days.
	Timezone string `yaml:"timezone"`
	// CompanionFile is an optional JSON backup merged by id before each import.
	CompanionFile string `yaml:"companion_file"`
}

// ExportConfig controls the export command defaults.
type ExportConfig struct {
	Format string `yaml:"format"` // parquet|csv|json
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   defaultStorePath(),
		},
		Log:    LogConfig{Level: "info"},
		Import: ImportConfig{Timezone: "Local"},
		Export: ExportConfig{Format: "parquet"},
	}
}

// Load reads the optional YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and resolves the timezone.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store path is required for driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported store driver %q (expected sqlite|file|memory)", c.Store.Driver)
	}
	switch c.Export.Format {
	case "parquet", "csv", "json":
	default:
		return fmt.Errorf("unsupported export format %q (expected parquet|csv|json)", c.Export.Format)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Import.Timezone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Import.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

func applyEnv(cfg *Config) {
	cfg.Store.Driver = getEnv("RUNLOG_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.Path = getEnv("RUNLOG_STORE_PATH", cfg.Store.Path)
	cfg.Log.Level = getEnv("RUNLOG_LOG_LEVEL", cfg.Log.Level)
	cfg.Import.Timezone = getEnv("RUNLOG_TIMEZONE", cfg.Import.Timezone)
	cfg.Import.CompanionFile = getEnv("RUNLOG_COMPANION_FILE", cfg.Import.CompanionFile)
	cfg.Export.Format = strings.ToLower(getEnv("RUNLOG_EXPORT_FORMAT", cfg.Export.Format))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "runlog.sqlite"
	}
	return filepath.Join(home, ".runlog", "runlog.sqlite")
}
