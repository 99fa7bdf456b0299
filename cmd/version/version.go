package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/version"
)

var (
	versionFormat string
)

// VersionCmd displays version and build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long: "Display version and build information.\n\n" +
		"Shows the semantic version, git commit hash, build date, Go version, " +
		"and platform of the current imagedrop binary. This information is useful " +
		"for troubleshooting and verifying the installed version.",
	Example: `  # Display version information
  imagedrop version

  # Display version information as JSON
  imagedrop version --format json`,
	PreRunE: validateVersion,
	RunE:    runVersion,
}

func init() {
	VersionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, yaml, json, toml)")
}

func validateVersion(cmd *cobra.Command, args []string) error {
	if versionFormat != "text" {
		if err := cmdutil.ValidateFormat(versionFormat); err != nil {
			return fmt.Errorf("invalid format %q; must be one of: text, yaml, json, toml", versionFormat)
		}
	}

	cmd.SilenceUsage = true
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	if versionFormat == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	}
	return cmdutil.Write(cmd.OutOrStdout(), versionFormat, info)
}
