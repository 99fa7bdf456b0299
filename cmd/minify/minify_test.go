package minify

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/imagedrop/internal/testutil"
)

func decodeSize(t *testing.T, path string) (string, int, int) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return format, cfg.Width, cfg.Height
}

func TestMinifyCmd_WritesNextToSource(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("minify")
	src := env.CreateTestFile(dir, "wide.png", testutil.PNG(t, 40, 20))

	out := execute(t, "--max-width", "10", src)

	dst := filepath.Join(dir, "wide.min.png")
	format, w, h := decodeSize(t, dst)
	if format != "png" || w != 10 || h != 5 {
		t.Errorf("output = %s %dx%d, want png 10x5", format, w, h)
	}
	if !strings.Contains(out, src+" -> "+dst) {
		t.Errorf("stdout = %q", out)
	}
}

func TestMinifyCmd_PortraitUsesMaxHeight(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("minify")
	src := env.CreateTestFile(dir, "tall.png", testutil.PNG(t, 20, 40))

	execute(t, "--max-height", "8", "--max-width", "100", src)

	_, w, h := decodeSize(t, filepath.Join(dir, "tall.min.png"))
	if w != 4 || h != 8 {
		t.Errorf("output = %dx%d, want 4x8", w, h)
	}
}

func TestMinifyCmd_OutDirAndType(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("minify")
	outDir := filepath.Join(t.TempDir(), "small")
	a := env.CreateTestFile(dir, "a.png", testutil.PNG(t, 30, 30))
	b := env.CreateTestFile(dir, "b.png", testutil.PNG(t, 5, 5))

	execute(t, "--out", outDir, "--suffix", "", "--type", "image/jpeg", "--max-width", "10", "--quiet", a, b)

	format, w, h := decodeSize(t, filepath.Join(outDir, "a.jpg"))
	if format != "jpeg" || w != 10 || h != 10 {
		t.Errorf("a.jpg = %s %dx%d, want jpeg 10x10", format, w, h)
	}
	if _, w, h := decodeSize(t, filepath.Join(outDir, "b.jpg")); w != 5 || h != 5 {
		t.Errorf("b.jpg = %dx%d, want unscaled 5x5", w, h)
	}
}

func TestMinifyCmd_UsesConfiguredBounds(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("minify:\n  max_width: 12\n")
	dir := env.CreateTestDir("minify")
	src := env.CreateTestFile(dir, "wide.png", testutil.PNG(t, 24, 12))

	execute(t, "--quiet", src)

	if _, w, h := decodeSize(t, filepath.Join(dir, "wide.min.png")); w != 12 || h != 6 {
		t.Errorf("output = %dx%d, want 12x6", w, h)
	}
}

func TestMinifyCmd_RejectsNonImage(t *testing.T) {
	env := testutil.NewTestEnv(t)
	dir := env.CreateTestDir("minify")
	src := env.CreateTestFile(dir, "notes.txt", []byte("plain text"))

	cmd := createTestCommand()
	cmd.SetArgs([]string{src})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "not an image") {
		t.Errorf("Execute() error = %v, want not an image", err)
	}
}

func TestMinifyCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"negative width", []string{"--max-width", "-1", "a.png"}},
		{"quality too high", []string{"--quality", "1.5", "a.png"}},
		{"non-image type", []string{"--type", "text/plain", "a.png"}},
		{"empty suffix in place", []string{"--suffix", "", "a.png"}},
		{"zero concurrency", []string{"-j", "0", "a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := createTestCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetErr(new(bytes.Buffer))

			if err := cmd.Execute(); err == nil {
				t.Error("Execute() error = nil, want validation error")
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src, outDir, suffix, mimeType string
		want                          string
	}{
		{"/in/a.png", "", ".min", "image/png", "/in/a.min.png"},
		{"/in/a.png", "/out", "", "image/jpeg", "/out/a.jpg"},
		{"/in/photo.jpeg", "", "-small", "image/webp", "/in/photo-small.webp"},
		{"/in/noext", "", ".min", "application/x-unknown", "/in/noext.min"},
	}

	for _, tt := range tests {
		if got := outputPath(tt.src, tt.outDir, tt.suffix, tt.mimeType); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %q) = %q, want %q",
				tt.src, tt.outDir, tt.suffix, tt.mimeType, got, tt.want)
		}
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	cmd := createTestCommand()
	cmd.SetArgs(args)

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("minify command failed: %v", err)
	}
	return stdout.String()
}

func createTestCommand() *cobra.Command {
	// Reset flag variables
	minifyOut = ""
	minifySuffix = ".min"
	minifyMaxWidth = 0
	minifyMaxHeight = 0
	minifyQuality = 0
	minifyType = ""
	minifyConcurrency = 2
	minifyQuiet = false

	cmd := &cobra.Command{
		Use:     MinifyCmd.Use,
		Args:    MinifyCmd.Args,
		PreRunE: MinifyCmd.PreRunE,
		RunE:    MinifyCmd.RunE,
	}

	cmd.Flags().StringVarP(&minifyOut, "out", "o", "", "")
	cmd.Flags().StringVar(&minifySuffix, "suffix", ".min", "")
	cmd.Flags().IntVar(&minifyMaxWidth, "max-width", 0, "")
	cmd.Flags().IntVar(&minifyMaxHeight, "max-height", 0, "")
	cmd.Flags().Float64Var(&minifyQuality, "quality", 0, "")
	cmd.Flags().StringVar(&minifyType, "type", "", "")
	cmd.Flags().IntVarP(&minifyConcurrency, "concurrency", "j", 2, "")
	cmd.Flags().BoolVarP(&minifyQuiet, "quiet", "q", false, "")

	return cmd
}
