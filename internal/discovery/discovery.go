// Package discovery locates schema and partials directories relative to a
// project root.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/markweave/internal/logfields"
)

// ProjectRelative turns a leading-slash path into a project-relative one, so
// "/markdoc" means "./markdoc" under the project root.
func ProjectRelative(p string) string {
	if strings.HasPrefix(p, "/") {
		return "." + p
	}
	return p
}

// Resolve joins p onto root after ProjectRelative and returns it in absolute,
// forward-slash form.
func Resolve(root, p string) string {
	p = filepath.FromSlash(ProjectRelative(filepath.ToSlash(p)))
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return Normalize(p)
}

// Normalize returns an absolute, cleaned, forward-slash path.
func Normalize(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// FindFirstExisting returns the first candidate that exists and is a directory.
// Missing candidates are skipped silently. Any other stat error is logged to
// logger, or slog.Default when nil, and the candidate is skipped.
func FindFirstExisting(ctx context.Context, logger *slog.Logger, root string, paths []string) (string, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, candidate := range paths {
		abs := Resolve(root, candidate)
		info, err := os.Stat(filepath.FromSlash(abs))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.ErrorContext(ctx, "Error checking directory, skipping",
					logfields.Path(abs),
					logfields.Error(err))
			}
			continue
		}
		if info.IsDir() {
			return abs, true
		}
	}
	return "", false
}
