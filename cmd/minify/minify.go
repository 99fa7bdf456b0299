package minify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
	"github.com/leefowlercu/imagedrop/internal/ingest"
	"github.com/leefowlercu/imagedrop/internal/media"
	"github.com/leefowlercu/imagedrop/internal/minify"
	"github.com/leefowlercu/imagedrop/internal/payload"
)

// Flag variables
var (
	minifyOut         string
	minifySuffix      string
	minifyMaxWidth    int
	minifyMaxHeight   int
	minifyQuality     float64
	minifyType        string
	minifyConcurrency int
	minifyQuiet       bool
)

// MinifyCmd downsizes image files.
var MinifyCmd = &cobra.Command{
	Use:   "minify <file>...",
	Short: "Downsize image files to a bounding box",
	Long: `Downsize image files to a bounding box and re-encode them.

Images at least as wide as they are tall are scaled to --max-width, taller
images to --max-height; the aspect ratio is kept and images already inside the
bound are re-encoded at their natural size. --quality applies to lossy output
formats. Unset options fall back to the minify section of the configuration.

Each output is written next to its source with --suffix before the extension,
or into --out when given. The extension follows the type actually produced.`,
	Example: `  # Minify with configured bounds
  imagedrop minify photo.jpg

  # Fit screenshots into 640px as JPEG at 70% quality
  imagedrop minify --max-width 640 --max-height 640 --quality 0.7 --type image/jpeg --out ./small *.png`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateMinify,
	RunE:    runMinify,
}

func init() {
	MinifyCmd.Flags().StringVarP(&minifyOut, "out", "o", "", "Output directory (default: next to each source)")
	MinifyCmd.Flags().StringVar(&minifySuffix, "suffix", ".min", "Suffix added before the output extension")
	MinifyCmd.Flags().IntVar(&minifyMaxWidth, "max-width", 0, "Maximum width for landscape images (0 = configured value)")
	MinifyCmd.Flags().IntVar(&minifyMaxHeight, "max-height", 0, "Maximum height for portrait images (0 = configured value)")
	MinifyCmd.Flags().Float64Var(&minifyQuality, "quality", 0, "Encoder quality in (0,1] (0 = configured value)")
	MinifyCmd.Flags().StringVar(&minifyType, "type", "", "Output MIME type (default: source type)")
	MinifyCmd.Flags().IntVarP(&minifyConcurrency, "concurrency", "j", runtime.NumCPU(), "Maximum files processed at once")
	MinifyCmd.Flags().BoolVarP(&minifyQuiet, "quiet", "q", false, "Suppress per-file output")
}

func validateMinify(cmd *cobra.Command, args []string) error {
	if minifyMaxWidth < 0 || minifyMaxHeight < 0 {
		return fmt.Errorf("max-width and max-height must be non-negative")
	}
	if minifyQuality < 0 || minifyQuality > 1 {
		return fmt.Errorf("quality must be between 0 and 1")
	}
	if minifyType != "" && !ingest.IsImageType(minifyType) {
		return fmt.Errorf("invalid type %q; must be an image MIME type", minifyType)
	}
	if minifyOut == "" && minifySuffix == "" {
		return fmt.Errorf("suffix must not be empty when writing next to the source")
	}
	if minifyConcurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	cmd.SilenceUsage = true
	return nil
}

func runMinify(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "minify")

	opts := config.Get().Minify.Options()
	if minifyMaxWidth > 0 {
		opts.MaxWidth = minifyMaxWidth
	}
	if minifyMaxHeight > 0 {
		opts.MaxHeight = minifyMaxHeight
	}
	if minifyQuality > 0 {
		opts.Quality = minifyQuality
	}

	paths, err := cmdutil.ResolvePaths(args)
	if err != nil {
		return err
	}

	outDir := ""
	if minifyOut != "" {
		if outDir, err = cmdutil.ResolvePath(minifyOut); err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory; %w", err)
		}
	}

	m := minify.New(minify.WithLogger(logger))
	lines := make([]string, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(minifyConcurrency)
	for i, src := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(src)
			if err != nil {
				return fmt.Errorf("failed to read %s; %w", src, err)
			}

			target := minifyType
			if target == "" {
				target = payload.DetectMIME(data)
				if !ingest.IsImageType(target) {
					return fmt.Errorf("%s is not an image (%s)", src, target)
				}
			}

			out, produced, err := m.MinifyBytes(ctx, data, target, opts)
			if err != nil {
				return fmt.Errorf("failed to minify %s; %w", src, err)
			}

			dst := outputPath(src, outDir, minifySuffix, produced)
			if err := os.WriteFile(dst, out, 0644); err != nil {
				return fmt.Errorf("failed to write %s; %w", dst, err)
			}

			lines[i] = fmt.Sprintf("%s -> %s (%d -> %d bytes, %s)", src, dst, len(data), len(out), produced)
			logger.Debug("minified file", "src", src, "dst", dst, "before", len(data), "after", len(out))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if !minifyQuiet {
		for _, line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	}
	return nil
}

// outputPath names the minified file for src. The extension follows the
// produced MIME type.
func outputPath(src, outDir, suffix, mimeType string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	ext := filepath.Ext(base)
	switch format := media.FormatForMIME(mimeType); format {
	case "":
	case "jpeg":
		ext = ".jpg"
	default:
		ext = "." + format
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, stem+suffix+ext)
}
