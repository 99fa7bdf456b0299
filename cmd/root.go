package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/leefowlercu/imagedrop/cmd/config"
	"github.com/leefowlercu/imagedrop/cmd/drop"
	mcpcmd "github.com/leefowlercu/imagedrop/cmd/mcp"
	"github.com/leefowlercu/imagedrop/cmd/minify"
	"github.com/leefowlercu/imagedrop/cmd/paste"
	"github.com/leefowlercu/imagedrop/cmd/probe"
	"github.com/leefowlercu/imagedrop/cmd/serve"
	"github.com/leefowlercu/imagedrop/cmd/token"
	versioncmd "github.com/leefowlercu/imagedrop/cmd/version"
	"github.com/leefowlercu/imagedrop/cmd/watch"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/logging"
)

// logManager is the global logging manager, created in init() and upgraded after config loads
var logManager *logging.Manager

var imagedropCmd = &cobra.Command{
	Use:   "imagedrop",
	Short: "Image drop and paste ingestion for rich-text documents",
	Long: "imagedrop turns dropped files, pasted clipboard content, and image URLs into document content.\n\n" +
		"Image items are read as data URLs, optionally minified to a bounding box, and embedded at the cursor. " +
		"Plain text is probed and inserted either as an image embed or as literal text. " +
		"A drop folder watcher and an HTTP service expose the same pipeline to other tools.",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()
	slog.SetDefault(logManager.Logger())

	imagedropCmd.AddCommand(drop.DropCmd)
	imagedropCmd.AddCommand(paste.PasteCmd)
	imagedropCmd.AddCommand(minify.MinifyCmd)
	imagedropCmd.AddCommand(probe.ProbeCmd)
	imagedropCmd.AddCommand(watch.WatchCmd)
	imagedropCmd.AddCommand(serve.ServeCmd)
	imagedropCmd.AddCommand(mcpcmd.MCPCmd)
	imagedropCmd.AddCommand(token.TokenCmd)
	imagedropCmd.AddCommand(configcmd.ConfigCmd)
	imagedropCmd.AddCommand(versioncmd.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logger := logManager.Logger()

	if err := config.Init(); err != nil {
		return err
	}

	cfg := config.Get()
	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
		if cfg.LogLevel != "" {
			logger.Warn("invalid log level configured, using default", "configured", cfg.LogLevel, "default", "info")
		}
	}

	if err := logManager.Upgrade(config.ExpandPath(cfg.LogFile), level); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
		// Don't return error - continue with bootstrap mode
	}

	config.OnReload(func(old, new *config.Config) {
		if lvl, ok := logging.ParseLevel(new.LogLevel); ok {
			logManager.SetLevel(lvl)
		}
	})

	return nil
}

func Execute() error {
	imagedropCmd.SilenceErrors = true
	imagedropCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := imagedropCmd.Execute()

	if err != nil {
		cmd, _, _ := imagedropCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = imagedropCmd
		}

		fmt.Printf("Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
