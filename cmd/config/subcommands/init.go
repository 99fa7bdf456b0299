package subcommands

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/tui/initialize"
)

var (
	initForce       bool
	initInteractive bool
)

// runWizard is replaced in tests.
var runWizard = initialize.RunWizard

// InitCmd writes a configuration file.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Long: "Write a configuration file.\n\n" +
		"Creates config.yaml with every setting at its default value. An existing " +
		"file is left untouched unless --force is given.\n\n" +
		"With --interactive, a terminal wizard walks through the server, minify, drop " +
		"folder, and probe cache settings, starting from the existing file when there " +
		"is one. Nothing is written unless the summary is confirmed.",
	Example: `  # Create the default configuration
  imagedrop config init

  # Overwrite an existing configuration
  imagedrop config init --force

  # Walk through the settings in a wizard
  imagedrop config init --interactive`,
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
	InitCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Configure with a terminal wizard")
}

func validateInit(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configPath := config.ActivePath()

	if initInteractive {
		return runInteractiveInit(cmd, configPath)
	}

	if config.ConfigExistsAt(configPath) && !initForce {
		fmt.Fprintf(out, "Configuration already exists: %s\n", configPath)
		fmt.Fprintln(out, "Use --force to overwrite it.")
		return nil
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(&cfg, configPath); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written: %s\n", configPath)
	return nil
}

func runInteractiveInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	logger := slog.Default().With("command", "config init")

	cfg := config.NewDefaultConfig()
	if config.ConfigExistsAt(configPath) {
		existing, err := config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
		cfg = *existing
		logger.Debug("wizard starting from existing configuration", "path", configPath)
	}

	result, err := runWizard(&cfg, initialize.DefaultSteps(configPath),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(out),
	)
	if err != nil {
		return fmt.Errorf("wizard failed; %w", err)
	}

	switch {
	case result.Cancelled:
		fmt.Fprintln(out, "Setup cancelled; nothing written.")
		return nil
	case result.Err != nil:
		return result.Err
	case !result.Confirmed:
		fmt.Fprintln(out, "Setup not confirmed; nothing written.")
		return nil
	}

	if err := config.Write(result.Config, configPath); err != nil {
		return err
	}
	logger.Info("configuration written", "path", configPath)

	fmt.Fprintf(out, "Configuration written: %s\n", configPath)
	return nil
}
