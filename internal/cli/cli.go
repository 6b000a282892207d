// Package cli implements the cutplan command-line interface.
//
// Commands:
//   - optimize: pack a project onto sheets and write the plan and exports
//   - compare: run every optimization mode on a project side by side
//   - estimate: area-based purchase estimate before optimizing
//   - serve: run the HTTP API
//   - config: inspect, initialize, back up and restore the app config
//
// All commands support --verbose (-v) for debug-level logging and --config
// to point at an alternative config file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/cache"
	"github.com/piwi3910/cutplan/internal/project"
)

const appName = "cutplan"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version is set by main from build flags.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		configPath: project.DefaultConfigPath(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cutplan turns a cut list into an optimized sheet cutting plan",
		Long:         `Cutplan packs rectangular pieces onto stock sheets with guillotine cuts, accounting for blade kerf and grain direction, and produces an ordered cut sequence, operator instructions and waste statistics.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "path to the config file")

	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())

	return root
}

// loadConfig reads the app config, returning defaults when none exists.
func (c *CLI) loadConfig() (project.AppConfig, error) {
	cfg, err := project.LoadAppConfig(c.configPath)
	if err != nil {
		return project.AppConfig{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath)
	return cfg, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/cutplan/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
