package probe

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leefowlercu/imagedrop/internal/classify"
	"github.com/leefowlercu/imagedrop/internal/cmdutil"
	"github.com/leefowlercu/imagedrop/internal/config"
)

// Flag variables
var (
	probeFormat      string
	probeTimeoutMs   int
	probeConcurrency int
	probeHTML        string
	probeBaseURL     string
)

// Result is the probe outcome for one URL.
type Result struct {
	URL   string `json:"url" yaml:"url"`
	Image bool   `json:"image" yaml:"image"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProbeCmd reports whether URLs resolve to images.
var ProbeCmd = &cobra.Command{
	Use:   "probe [url]...",
	Short: "Check whether URLs resolve to images",
	Long: `Check whether URLs resolve to images.

A URL whose path ends in a known image extension is an image without any
network access. Other URLs are fetched and decoded; a URL that fails to decode
or does not answer within the probe timeout is not an image. data: URLs are
decoded in place.

With --html, every <img> source in an HTML file ("-" for stdin) is probed as
well. Relative sources are resolved against --base-url or skipped.`,
	Example: `  # Probe a single URL
  imagedrop probe https://example.com/avatar

  # Probe several URLs with a short timeout, as JSON
  imagedrop probe --timeout 500 --format json https://a.example/x https://b.example/y

  # Probe the images referenced by copied HTML
  pbpaste | imagedrop probe --html - --base-url https://example.com/`,
	PreRunE: validateProbe,
	RunE:    runProbe,
}

func init() {
	ProbeCmd.Flags().StringVarP(&probeFormat, "format", "f", "text", "Output format (text, yaml, json, toml)")
	ProbeCmd.Flags().IntVar(&probeTimeoutMs, "timeout", 0, "Probe timeout in milliseconds (0 = configured value)")
	ProbeCmd.Flags().IntVarP(&probeConcurrency, "concurrency", "j", 4, "Maximum concurrent probes")
	ProbeCmd.Flags().StringVar(&probeHTML, "html", "", "Also probe <img> sources in this HTML file (- for stdin)")
	ProbeCmd.Flags().StringVar(&probeBaseURL, "base-url", "", "Base URL for relative sources in --html")
}

func validateProbe(cmd *cobra.Command, args []string) error {
	if probeFormat != "text" {
		if err := cmdutil.ValidateFormat(probeFormat); err != nil {
			return fmt.Errorf("invalid format %q; must be one of: text, yaml, json, toml", probeFormat)
		}
	}
	if len(args) == 0 && probeHTML == "" {
		return fmt.Errorf("no urls to probe; pass urls or --html")
	}
	if probeBaseURL != "" {
		if u, err := url.Parse(probeBaseURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("invalid base url %q; must be absolute", probeBaseURL)
		}
	}
	if probeTimeoutMs < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if probeConcurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	cmd.SilenceUsage = true
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger := slog.Default().With("command", "probe")

	probeCfg := config.Get().Probe
	if probeTimeoutMs > 0 {
		probeCfg.TimeoutMs = probeTimeoutMs
	}
	prober := cmdutil.NewProber(probeCfg, logger)

	urls := args
	if probeHTML != "" {
		found, err := readHTMLImages(cmd.InOrStdin(), probeHTML, probeBaseURL)
		if err != nil {
			return err
		}
		logger.Debug("extracted image sources", "file", probeHTML, "count", len(found))
		urls = append(append([]string{}, args...), found...)
	}

	results := make([]Result, len(urls))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(probeConcurrency)
	for i, rawURL := range urls {
		g.Go(func() error {
			isImage, err := prober.ProbeIsImage(ctx, rawURL)
			results[i] = Result{URL: rawURL, Image: isImage}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	switch probeFormat {
	case "text":
	case cmdutil.FormatTOML:
		// TOML documents are tables, not lists.
		return cmdutil.Write(out, probeFormat, map[string][]Result{"results": results})
	default:
		return cmdutil.Write(out, probeFormat, results)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tIMAGE\tREASON")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%t\t%s\n", r.URL, r.Image, r.Error)
	}
	return w.Flush()
}

func readHTMLImages(stdin io.Reader, path, baseURL string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open html file; %w", err)
		}
		defer f.Close()
		r = f
	}

	var base *url.URL
	if baseURL != "" {
		var err error
		if base, err = url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("invalid base url; %w", err)
		}
	}

	return classify.ExtractImageURLs(r, base)
}
