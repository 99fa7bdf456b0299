package cmdutil

import (
	"fmt"
	"path/filepath"

	"github.com/leefowlercu/imagedrop/internal/config"
)

// ResolvePath expands "~" and returns an absolute, cleaned path.
// Empty input returns an empty string.
func ResolvePath(path string) (string, error) {
	expanded := config.ExpandPath(path)
	if expanded == "" {
		return "", nil
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	return filepath.Clean(absPath), nil
}

// ResolvePaths resolves every path, failing on the first error.
func ResolvePaths(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := ResolvePath(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %q; %w", p, err)
		}
		if abs != "" {
			resolved = append(resolved, abs)
		}
	}
	return resolved, nil
}
