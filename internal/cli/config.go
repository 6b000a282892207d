package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/gcode"
	"github.com/piwi3910/cutplan/internal/project"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the application config",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configExportCommand())
	cmd.AddCommand(c.configImportCommand())
	cmd.AddCommand(c.configProfilesCommand())

	return cmd
}

// configShowCommand prints the effective config as TOML.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleDim.Render("# "+c.configPath))
			_, err = out.Write(buf.Bytes())
			return err
		},
	}
}

// configInitCommand writes a default config file.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !force {
				return fmt.Errorf("config %s already exists (use --force to overwrite)", c.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := project.SaveAppConfig(c.configPath, project.DefaultAppConfig()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Config written to %s", c.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

// configExportCommand bundles config and custom profiles into a backup file.
func (c *CLI) configExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Back up the config and custom G-code profiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			profiles, err := gcode.LoadCustomProfiles(cfg.CustomProfilesPath())
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], cfg, profiles); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Backup written to %s", args[0])
			printDetail(out, "%d custom profiles", len(profiles))
			return nil
		},
	}
}

// configImportCommand restores a backup written by "config export".
func (c *CLI) configImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Restore the config and custom G-code profiles from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(c.configPath, backup.Config); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Config restored to %s", c.configPath)
			if len(backup.Profiles) > 0 {
				path := backup.Config.CustomProfilesPath()
				if err := gcode.SaveCustomProfiles(path, backup.Profiles); err != nil {
					return err
				}
				printSuccess(out, "%d custom profiles restored to %s", len(backup.Profiles), path)
			}
			printDetail(out, "Backup created %s (version %s)", backup.CreatedAt, backup.Version)
			return nil
		},
	}
}

// configProfilesCommand lists the available G-code post-processor profiles.
func (c *CLI) configProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List available G-code profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			custom, err := gcode.LoadCustomProfiles(cfg.CustomProfilesPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			active := gcode.New(cfg.GCode, custom...).Profile().Name
			for _, name := range gcode.ProfileNames(custom...) {
				p := gcode.GetProfile(name, custom...)
				line := name
				if !p.IsBuiltIn {
					line += StyleDim.Render(" (custom)")
				}
				if name == active {
					line = StyleTitle.Render(name) + StyleDim.Render(" (active)")
				}
				fmt.Fprintln(out, line)
				if p.Description != "" {
					printDetail(out, "%s", p.Description)
				}
			}
			return nil
		},
	}
}
