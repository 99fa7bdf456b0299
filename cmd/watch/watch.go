package watch

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/notify"
	"github.com/leefowlercu/imagedrop/internal/watcher"
)

// Flag variables
var (
	watchSeed       string
	watchDebounceMs int
	watchMinify     bool
	watchFormat     string
	watchFull       bool
	watchQuiet      bool
	watchNotify     bool
)

// desktopNotify is replaced in tests.
var desktopNotify notify.Func = notify.Desktop

// WatchCmd drops images written into folders onto a document.
var WatchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Drop images saved into folders onto a document",
	Long: `Watch drop folders and insert each image file saved into them.

A file is dropped once it has seen no writes for the debounce window, so
images copied or downloaded in several writes are inserted once. Non-image
files, partial downloads, and editor temp files are skipped. Subdirectories
are not watched.

Folders come from the arguments, or from watch.dirs in the configuration.
With --notify (or watch.notify), each dropped file raises a desktop
notification. On interrupt the command stops watching and prints the document.`,
	Example: `  # Watch the screenshots folder
  imagedrop watch ~/Pictures/Screenshots

  # Watch configured folders, minifying inserted images
  imagedrop watch --minify`,
	PreRunE: validateWatch,
	RunE:    runWatch,
}

func init() {
	WatchCmd.Flags().StringVar(&watchSeed, "seed", "", "Initial document text")
	WatchCmd.Flags().IntVar(&watchDebounceMs, "debounce", 0, "Quiet period in milliseconds before a file is dropped (0 = config)")
	WatchCmd.Flags().BoolVar(&watchMinify, "minify", false, "Minify images before insertion")
	WatchCmd.Flags().StringVarP(&watchFormat, "format", "f", cmdutil.FormatYAML, "Output format (yaml, json, toml)")
	WatchCmd.Flags().BoolVar(&watchFull, "full", false, "Print embed values in full")
	WatchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Suppress per-item outcome output")
	WatchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Raise a desktop notification for each dropped file")
}

func validateWatch(cmd *cobra.Command, args []string) error {
	if err := cmdutil.ValidateFormat(watchFormat); err != nil {
		return err
	}
	if watchDebounceMs < 0 {
		return fmt.Errorf("debounce must be 0 or greater")
	}
	if len(args) == 0 && len(config.Get().Watch.Dirs) == 0 {
		return fmt.Errorf("no folders to watch; pass directories or set watch.dirs")
	}

	cmd.SilenceUsage = true
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "watch")
	cfg := config.Get()

	dirs := args
	if len(dirs) == 0 {
		dirs = cfg.Watch.ExpandedDirs()
	}
	dirs, err := cmdutil.ResolvePaths(dirs)
	if err != nil {
		return err
	}

	debounce := cfg.Watch.DebounceWindow()
	if watchDebounceMs > 0 {
		debounce = time.Duration(watchDebounceMs) * time.Millisecond
	}

	doc := editor.NewDocument(editor.WithText(watchSeed), editor.WithLogger(logger))
	pipeline := cmdutil.NewPipeline(cfg, doc, cmdutil.MinifyOverride(cfg, watchMinify), logger)

	var report io.Writer = cmd.ErrOrStderr()
	if watchQuiet {
		report = io.Discard
	}
	cmdutil.ReportEvents(pipeline.Bus, report)
	if watchNotify || cfg.Watch.Notify {
		notify.New(desktopNotify, logger).Attach(pipeline.Bus)
	}

	opts := []watcher.WatcherOption{
		watcher.WithDebounceWindow(debounce),
		watcher.WithBus(pipeline.Bus),
		watcher.WithLogger(logger),
	}
	if cfg.Watch.MaxFileBytes > 0 {
		opts = append(opts, watcher.WithMaxFileBytes(cfg.Watch.MaxFileBytes))
	}

	w, err := watcher.New(doc.Root(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher; %w", err)
	}

	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			_ = w.Stop()
			return fmt.Errorf("failed to watch %s; %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopReloads := config.WatchReloads(ctx)
	defer stopReloads()

	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return fmt.Errorf("failed to start watcher; %w", err)
	}
	fmt.Fprintf(report, "watching %d folder(s); press Ctrl-C to stop\n", len(dirs))

	select {
	case <-ctx.Done():
	case err := <-w.Errors():
		logger.Error("watcher failed", "error", err)
	}

	if err := w.Stop(); err != nil {
		logger.Warn("failed to close watcher", "error", err)
	}
	if err := pipeline.Finish(); err != nil {
		return fmt.Errorf("failed to finish pending drops; %w", err)
	}

	snap := pipeline.Document.Snapshot()
	if !watchFull {
		snap = cmdutil.AbbreviateEmbeds(snap)
	}
	return cmdutil.Write(cmd.OutOrStdout(), watchFormat, snap)
}
