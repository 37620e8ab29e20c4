// Package partials loads the sub-documents that {% partial %} tags refer to.
package partials

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/util/sets"
)

// DirName is the conventional partials folder beneath a schema directory.
const DirName = "partials"

// Parser turns a file's content into a document.
type Parser interface {
	Parse(filename string, content []byte) (*ast.Document, error)
}

// Result holds the loaded partials keyed by file name. Partials is nil when
// nothing was loaded.
type Result struct {
	Partials     map[string]*ast.Document
	Dependencies []string
}

// Loader reads partial files through a Parser.
type Loader struct {
	parser   Parser
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewLoader creates a Loader. A nil logger means slog.Default and a nil
// recorder means no metrics.
func NewLoader(parser Parser, logger *slog.Logger, recorder metrics.Recorder) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{parser: parser, logger: logger, recorder: metrics.OrNoop(recorder)}
}

// Key normalizes a partial file name so names from any file system match
// what authors type.
func Key(name string) string {
	return norm.NFC.String(name)
}

// Load reads every regular file in the effective directory whose extension is
// recognized. The effective directory is dir/partials, or dir itself when
// explicit is set.
func (l *Loader) Load(ctx context.Context, dir string, extensions []string, explicit bool) Result {
	effective := filepath.ToSlash(dir)
	if !explicit {
		effective = path.Join(effective, DirName)
	}

	entries, err := os.ReadDir(filepath.FromSlash(effective))
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if explicit {
				l.logger.WarnContext(ctx, "Specified partials directory not found", logfields.Path(dir))
			}
		default:
			l.logger.ErrorContext(ctx, "Error reading partials directory",
				logfields.Path(effective),
				logfields.Error(err))
		}
		return Result{}
	}

	var res Result
	deps := sets.New[string]()
	for _, entry := range entries {
		name := entry.Name()
		file := path.Join(effective, name)
		if !slices.Contains(extensions, path.Ext(name)) {
			continue
		}

		info, err := os.Stat(filepath.FromSlash(file))
		if err != nil {
			l.logger.ErrorContext(ctx, "Error reading partial, skipping",
				logfields.File(file),
				logfields.Error(err))
			l.recorder.IncPartialLoadFailure()
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		// #nosec G304 -- file is an entry of the partials directory
		content, err := os.ReadFile(filepath.FromSlash(file))
		if err != nil {
			l.logger.ErrorContext(ctx, "Error reading partial, skipping",
				logfields.File(file),
				logfields.Error(err))
			l.recorder.IncPartialLoadFailure()
			continue
		}
		doc, err := l.parser.Parse(file, content)
		if err != nil {
			l.logger.ErrorContext(ctx, "Error parsing partial file",
				logfields.File(file),
				logfields.Error(err))
			l.recorder.IncPartialLoadFailure()
			continue
		}

		if res.Partials == nil {
			res.Partials = make(map[string]*ast.Document)
		}
		res.Partials[Key(name)] = doc
		deps.Add(file)
	}

	if res.Partials == nil {
		attrs := []any{logfields.Path(effective), slog.String("extensions", strings.Join(extensions, ", "))}
		if explicit {
			l.logger.WarnContext(ctx, "Partials directory found, but no valid partial files were loaded", attrs...)
		} else {
			l.logger.InfoContext(ctx, "Partials directory found, but no valid partial files were loaded; this may be intentional", attrs...)
		}
	}

	res.Dependencies = sets.Sorted(deps)
	return res
}
