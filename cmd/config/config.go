// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage imagedrop configuration",
	Long: "Manage imagedrop configuration.\n\n" +
		"The config command allows you to view, create, edit, validate, and reset " +
		"the imagedrop configuration. Configuration is stored in a YAML file located at " +
		"~/.config/imagedrop/config.yaml by default, or in IMAGEDROP_CONFIG_DIR when set.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.InitCmd)
	ConfigCmd.AddCommand(subcommands.EditCmd)
	ConfigCmd.AddCommand(subcommands.ResetCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
}
