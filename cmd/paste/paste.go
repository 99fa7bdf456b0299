package paste

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/clipboard"
	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/ingest"
)

// Flag variables
var (
	pasteClipboard bool
	pasteTexts     []string
	pasteHTML      string
	pasteSeed      string
	pasteSelection int
	pasteMinify    bool
	pasteFormat    string
	pasteFull      bool
	pasteQuiet     bool
)

// clipboardReader is replaced in tests.
var clipboardReader = func(logger *slog.Logger) clipboard.Reader {
	return clipboard.NewSystem(logger)
}

// PasteCmd pastes clipboard content, files, or text into a document.
var PasteCmd = &cobra.Command{
	Use:   "paste [file...]",
	Short: "Paste clipboard content, files, or text into a document",
	Long: `Paste content into a document and print the resulting document.

With --clipboard the system clipboard is read: an image becomes an image item
and text becomes a text/plain item. Files and --text values add further items.

Image items are embedded at the cursor. Text is probed: image URLs are
embedded as images and anything else is inserted literally. When any item is
HTML (--html), the paste is left to native handling and the document is not
changed.`,
	Example: `  # Paste whatever is on the clipboard
  imagedrop paste --clipboard

  # Paste an image URL after "hello "
  imagedrop paste --seed "hello " --text https://example.com/cat.gif

  # Paste a file, minified, as JSON
  imagedrop paste photo.jpg --minify --format json`,
	PreRunE: validatePaste,
	RunE:    runPaste,
}

func init() {
	PasteCmd.Flags().BoolVarP(&pasteClipboard, "clipboard", "c", false, "Read items from the system clipboard")
	PasteCmd.Flags().StringArrayVarP(&pasteTexts, "text", "t", nil, "Text item to paste (repeatable)")
	PasteCmd.Flags().StringVar(&pasteHTML, "html", "", "HTML item to paste")
	PasteCmd.Flags().StringVar(&pasteSeed, "seed", "", "Initial document text")
	PasteCmd.Flags().IntVar(&pasteSelection, "selection", -1, "Initial cursor index (-1 = no selection)")
	PasteCmd.Flags().BoolVar(&pasteMinify, "minify", false, "Minify images before insertion")
	PasteCmd.Flags().StringVarP(&pasteFormat, "format", "f", cmdutil.FormatYAML, "Output format (yaml, json, toml)")
	PasteCmd.Flags().BoolVar(&pasteFull, "full", false, "Print embed values in full")
	PasteCmd.Flags().BoolVarP(&pasteQuiet, "quiet", "q", false, "Suppress per-item outcome output")
}

func validatePaste(cmd *cobra.Command, args []string) error {
	if !pasteClipboard && len(args) == 0 && len(pasteTexts) == 0 && pasteHTML == "" {
		return fmt.Errorf("nothing to paste; provide --clipboard, files, --text, or --html")
	}
	if err := cmdutil.ValidateFormat(pasteFormat); err != nil {
		return err
	}
	if pasteSelection < -1 {
		return fmt.Errorf("selection must be -1 or greater")
	}

	cmd.SilenceUsage = true
	return nil
}

func runPaste(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "paste")

	items, err := collectItems(args, logger)
	if err != nil {
		return err
	}

	docOpts := []editor.DocumentOption{
		editor.WithText(pasteSeed),
		editor.WithLogger(logger),
	}
	if pasteSelection >= 0 {
		docOpts = append(docOpts, editor.WithSelection(pasteSelection))
	}

	cfg := config.Get()
	pipeline := cmdutil.NewPipeline(cfg, editor.NewDocument(docOpts...), cmdutil.MinifyOverride(cfg, pasteMinify), logger)

	var report io.Writer = cmd.ErrOrStderr()
	if pasteQuiet {
		report = io.Discard
	}
	cmdutil.ReportEvents(pipeline.Bus, report)

	pipeline.Document.Root().Dispatch(ingest.NewPasteEvent(items...))

	if err := pipeline.Finish(); err != nil {
		return fmt.Errorf("failed to finish paste; %w", err)
	}

	snap := pipeline.Document.Snapshot()
	if !pasteFull {
		snap = cmdutil.AbbreviateEmbeds(snap)
	}
	return cmdutil.Write(cmd.OutOrStdout(), pasteFormat, snap)
}

func collectItems(args []string, logger *slog.Logger) ([]ingest.Item, error) {
	var items []ingest.Item

	if pasteClipboard {
		event, err := clipboard.ReadEvent(clipboardReader(logger))
		switch {
		case errors.Is(err, clipboard.ErrEmpty):
			logger.Info("clipboard is empty")
		case err != nil:
			return nil, err
		default:
			items = append(items, event.Items...)
		}
	}

	paths, err := cmdutil.ResolvePaths(args)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		item, err := ingest.OpenFileItem(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s; %w", path, err)
		}
		items = append(items, item)
	}

	for _, text := range pasteTexts {
		items = append(items, ingest.NewStringItem(ingest.MIMETypePlainText, text))
	}
	if pasteHTML != "" {
		items = append(items, ingest.NewStringItem("text/html", pasteHTML))
	}

	return items, nil
}
