package drop

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/ingest"
)

// Flag variables
var (
	dropTexts     []string
	dropSeed      string
	dropSelection int
	dropAt        int
	dropMinify    bool
	dropFormat    string
	dropFull      bool
	dropQuiet     bool
)

// DropCmd drops files and text onto a document and prints the result.
var DropCmd = &cobra.Command{
	Use:   "drop [file...]",
	Short: "Drop files or text onto a document",
	Long: `Drop files or text onto a document and print the resulting document.

Each file becomes a dropped file item; only images are embedded, other files
are ignored. Each --text value becomes a dropped text item, which is probed:
image URLs are embedded as images and anything else is inserted literally.

The document starts with the --seed text. When --drop-at is given the caret
moves there before insertion, as if the drop landed at that index; otherwise
items are inserted at --selection, or at the end of the document.`,
	Example: `  # Embed a screenshot into an empty document
  imagedrop drop screenshot.png

  # Drop an image URL between "ab" and "cd", minified
  imagedrop drop --seed abcd --drop-at 2 --text https://example.com/cat.png --minify

  # Print the full document as JSON
  imagedrop drop photo.jpg --format json --full`,
	PreRunE: validateDrop,
	RunE:    runDrop,
}

func init() {
	DropCmd.Flags().StringArrayVarP(&dropTexts, "text", "t", nil, "Text item to drop (repeatable)")
	DropCmd.Flags().StringVar(&dropSeed, "seed", "", "Initial document text")
	DropCmd.Flags().IntVar(&dropSelection, "selection", -1, "Initial cursor index (-1 = no selection)")
	DropCmd.Flags().IntVar(&dropAt, "drop-at", -1, "Document index under the drop point (-1 = none)")
	DropCmd.Flags().BoolVar(&dropMinify, "minify", false, "Minify images before insertion")
	DropCmd.Flags().StringVarP(&dropFormat, "format", "f", cmdutil.FormatYAML, "Output format (yaml, json, toml)")
	DropCmd.Flags().BoolVar(&dropFull, "full", false, "Print embed values in full")
	DropCmd.Flags().BoolVarP(&dropQuiet, "quiet", "q", false, "Suppress per-item outcome output")
}

func validateDrop(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(dropTexts) == 0 {
		return fmt.Errorf("nothing to drop; provide files or --text")
	}
	if err := cmdutil.ValidateFormat(dropFormat); err != nil {
		return err
	}
	if dropSelection < -1 || dropAt < -1 {
		return fmt.Errorf("indexes must be -1 or greater")
	}

	cmd.SilenceUsage = true
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "drop")

	var items []ingest.Item

	paths, err := cmdutil.ResolvePaths(args)
	if err != nil {
		return err
	}
	for _, path := range paths {
		item, err := ingest.OpenFileItem(path)
		if err != nil {
			return fmt.Errorf("failed to open %s; %w", path, err)
		}
		items = append(items, item)
	}
	for _, text := range dropTexts {
		items = append(items, ingest.NewStringItem(ingest.MIMETypePlainText, text))
	}

	docOpts := []editor.DocumentOption{
		editor.WithText(dropSeed),
		editor.WithLogger(logger),
	}
	if dropSelection >= 0 {
		docOpts = append(docOpts, editor.WithSelection(dropSelection))
	}
	if dropAt >= 0 {
		at := dropAt
		docOpts = append(docOpts, editor.WithCaretResolver(func(x, y float64) (int, bool) {
			return at, true
		}))
	}

	cfg := config.Get()
	minifyOpts := cmdutil.MinifyOverride(cfg, dropMinify)

	pipeline := cmdutil.NewPipeline(cfg, editor.NewDocument(docOpts...), minifyOpts, logger)

	var report io.Writer = cmd.ErrOrStderr()
	if dropQuiet {
		report = io.Discard
	}
	cmdutil.ReportEvents(pipeline.Bus, report)

	pipeline.Document.Root().Dispatch(ingest.NewDropEvent(0, 0, items...))

	if err := pipeline.Finish(); err != nil {
		return fmt.Errorf("failed to finish drop; %w", err)
	}

	snap := pipeline.Document.Snapshot()
	if !dropFull {
		snap = cmdutil.AbbreviateEmbeds(snap)
	}
	return cmdutil.Write(cmd.OutOrStdout(), dropFormat, snap)
}
