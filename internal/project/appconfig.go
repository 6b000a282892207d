package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/piwi3910/cutplan/internal/gcode"
	"github.com/piwi3910/cutplan/internal/model"
)

const maxRecentProjects = 10

// AppConfig holds application-wide preferences and the defaults applied to
// new projects and to CLI runs.
type AppConfig struct {
	Defaults       model.Settings        `toml:"defaults" json:"defaults"`
	Server         ServerConfig          `toml:"server" json:"server"`
	GCode          gcode.MachineSettings `toml:"gcode" json:"gcode"`
	ProfilesPath   string                `toml:"profiles_path,omitempty" json:"profiles_path,omitempty"`
	RecentProjects []string              `toml:"recent_projects" json:"recent_projects"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `toml:"addr" json:"addr"`
	RedisAddr string `toml:"redis_addr,omitempty" json:"redis_addr,omitempty"` // empty = in-memory cache
	CacheTTL  string `toml:"cache_ttl" json:"cache_ttl"`                        // Go duration, e.g. "1h"
}

// TTL parses CacheTTL, falling back to one hour when it is empty or invalid.
func (s ServerConfig) TTL() time.Duration {
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil || d < 0 {
		return time.Hour
	}
	return d
}

// DefaultAppConfig returns an AppConfig populated with the optimizer defaults.
func DefaultAppConfig() AppConfig {
	defaults := model.DefaultSettings()
	return AppConfig{
		Defaults: defaults,
		Server: ServerConfig{
			Addr:     ":8080",
			CacheTTL: "1h",
		},
		GCode:          gcode.DefaultMachineSettings(defaults.Units),
		RecentProjects: []string{},
	}
}

// NewProject creates an empty project that inherits the configured defaults.
func (c AppConfig) NewProject() model.Project {
	p := model.NewProject()
	p.Settings = c.Defaults
	return p
}

// AddRecentProject moves path to the front of the recent list, keeping at
// most ten entries.
func (c *AppConfig) AddRecentProject(path string) {
	recent := []string{path}
	for _, p := range c.RecentProjects {
		if p != path && len(recent) < maxRecentProjects {
			recent = append(recent, p)
		}
	}
	c.RecentProjects = recent
}

// DefaultConfigDir returns the default directory for application
// configuration. On all platforms this is ~/.cutplan/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cutplan")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// CustomProfilesPath returns the configured post-processor profiles file,
// defaulting to profiles.json next to the config file.
func (c AppConfig) CustomProfilesPath() string {
	if c.ProfilesPath != "" {
		return c.ProfilesPath
	}
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// SaveAppConfig persists an AppConfig to the given path as TOML.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadAppConfig reads an AppConfig from the given path. Keys missing from
// the file keep their default values. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (AppConfig, error) {
	config := DefaultAppConfig()
	if _, err := toml.DecodeFile(path, &config); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppConfig(), nil
		}
		return AppConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if config.RecentProjects == nil {
		config.RecentProjects = []string{}
	}
	if err := model.ValidateSettings(config.Defaults); err != nil {
		return AppConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}
