package service

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// validPathName reports whether name is safe to use as a single path
// component under the data directory.
func validPathName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

// copyImage copies an uploaded file into dir as "image<ext>" and returns the
// destination path.
func copyImage(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(dir, "image"+filepath.Ext(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	return dst, nil
}

// removeBestEffort deletes a file or directory tree, logging instead of
// failing the operation that no longer needs it.
func removeBestEffort(l *slog.Logger, path string) {
	if err := os.RemoveAll(path); err != nil {
		l.Warn("cleanup_failed", "path", path, "error", err)
	}
}
