// Package config loads the server's startup configuration. The live settings
// an administrator changes during the event are not here; see
// internal/settings.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"event-wall/internal/models"
)

// EnvPrefix scopes environment overrides, e.g. EVENTWALL_LISTEN.
const EnvPrefix = "EVENTWALL"

// Config holds the full server configuration.
type Config struct {
	Listen       string            `yaml:"listen"`
	PublicOrigin string            `yaml:"public_origin"`
	DataDir      string            `yaml:"data_dir"`
	DB           DBConfig          `yaml:"db"`
	MaxUploadMB  int               `yaml:"max_upload_mb"`
	LogLevel     string            `yaml:"log_level"`
	LogFormat    string            `yaml:"log_format"`
	Live         models.LiveConfig `yaml:"live"`
	Display      DisplayConfig     `yaml:"display"`
	Hub          HubConfig         `yaml:"hub"`
}

// DBConfig selects the sqlite driver and file.
type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite3 (cgo) | sqlite (pure Go)
	Path   string `yaml:"path"`
}

// DisplayConfig tunes the per-display runtime.
type DisplayConfig struct {
	SlideInterval time.Duration `yaml:"slide_interval"`
	SurfaceHeight int           `yaml:"surface_height"`
	LaneHeight    int           `yaml:"lane_height"`
	MinTraversal  time.Duration `yaml:"min_traversal"`
	MaxTraversal  time.Duration `yaml:"max_traversal"`
}

// HubConfig sizes per-connection send queues.
type HubConfig struct {
	SendBuffer int `yaml:"send_buffer"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8080",
		DataDir:     "data",
		DB:          DBConfig{Driver: "sqlite3", Path: "eventwall.db"},
		MaxUploadMB: 5,
		LogLevel:    "info",
		LogFormat:   "json",
		Display: DisplayConfig{
			SlideInterval: 5 * time.Second,
			SurfaceHeight: 1080,
			LaneHeight:    50,
			MinTraversal:  8 * time.Second,
			MaxTraversal:  13 * time.Second,
		},
		Hub: HubConfig{SendBuffer: 256},
	}
}

// LoadConfig reads path, if given, over the defaults and then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	switch c.DB.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported db.driver %q (use sqlite3 or sqlite)", c.DB.Driver)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log_format %q (use json or text)", c.LogFormat)
	}
	if c.PublicOrigin != "" && !strings.HasPrefix(c.PublicOrigin, "http://") && !strings.HasPrefix(c.PublicOrigin, "https://") {
		return fmt.Errorf("public_origin must start with http:// or https://")
	}
	d := c.Display
	if d.SlideInterval <= 0 {
		return fmt.Errorf("display.slide_interval must be > 0")
	}
	if d.LaneHeight <= 0 {
		return fmt.Errorf("display.lane_height must be > 0")
	}
	if d.SurfaceHeight < 0 {
		return fmt.Errorf("display.surface_height must be >= 0")
	}
	if d.MinTraversal <= 0 || d.MaxTraversal < d.MinTraversal {
		return fmt.Errorf("display traversal range [%s, %s) is invalid", d.MinTraversal, d.MaxTraversal)
	}
	if c.Hub.SendBuffer <= 0 {
		return fmt.Errorf("hub.send_buffer must be > 0")
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unsupported log_level %q", s)
	}
	return level, nil
}
