package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/util/sets"
)

// Extensions in lookup order: authored HCL before generated YAML.
var Extensions = []string{".hcl", ".yaml", ".yml"}

// Result is the outcome of loading one schema directory.
type Result struct {
	Fragment     Fragment
	Dependencies []string
}

// Resolver loads the four fragment kinds from a schema directory.
type Resolver struct {
	loader   ModuleLoader
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLoader sets the module loader.
func WithLoader(l ModuleLoader) Option {
	return func(r *Resolver) {
		if l != nil {
			r.loader = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Resolver) { r.recorder = metrics.OrNoop(rec) }
}

// NewResolver creates a Resolver reading files with a FileLoader by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		loader:   FileLoader{},
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates returns the lookup order for one kind in dir.
func Candidates(dir string, kind Kind) []string {
	base := path.Join(filepath.ToSlash(dir), string(kind))
	out := make([]string, 0, 2*len(Extensions))
	for _, ext := range Extensions {
		out = append(out, base+ext)
	}
	for _, ext := range Extensions {
		out = append(out, base+"/index"+ext)
	}
	return out
}

type kindResult struct {
	value any
	dep   string
}

// Load reads every kind concurrently. A kind that is missing or fails to load
// leaves its field nil and never affects the others.
func (r *Resolver) Load(ctx context.Context, dir string) Result {
	results := make([]kindResult, len(Kinds))

	var wg sync.WaitGroup
	for i, kind := range Kinds {
		wg.Add(1)
		go func(i int, kind Kind) {
			defer wg.Done()
			results[i] = r.loadKind(ctx, dir, kind)
		}(i, kind)
	}
	wg.Wait()

	var res Result
	deps := sets.New[string]()
	for i, kind := range Kinds {
		kr := results[i]
		if kr.dep != "" {
			deps.Add(kr.dep)
		}
		if kr.value == nil {
			continue
		}
		if err := assign(&res.Fragment, kind, kr.value); err != nil {
			r.logger.ErrorContext(ctx, "Error loading schema part",
				logfields.Kind(string(kind)),
				logfields.Path(kr.dep),
				logfields.Error(err))
			r.recorder.IncFragmentLoadFailure(string(kind))
		}
	}
	res.Dependencies = sets.Sorted(deps)
	return res
}

func (r *Resolver) loadKind(ctx context.Context, dir string, kind Kind) kindResult {
	var file string
	for _, candidate := range Candidates(dir, kind) {
		info, err := os.Stat(filepath.FromSlash(candidate))
		if err != nil || info.IsDir() {
			continue
		}
		file = candidate
		break
	}
	if file == "" {
		return kindResult{}
	}

	if strings.Contains(file, "/index.") {
		r.logger.InfoContext(ctx, "Schema part resolved from an index file; a sibling "+string(kind)+".hcl would take precedence",
			logfields.Kind(string(kind)),
			logfields.Path(file))
	}

	v, err := r.loader.Load(kind, file)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error loading schema part",
			logfields.Kind(string(kind)),
			logfields.Path(file),
			logfields.Error(err))
		r.recorder.IncFragmentLoadFailure(string(kind))
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return kindResult{}
		}
		return kindResult{dep: file}
	}

	r.logger.DebugContext(ctx, "Loaded schema part",
		logfields.Kind(string(kind)),
		logfields.Path(file))
	return kindResult{value: v, dep: file}
}

func assign(f *Fragment, kind Kind, v any) error {
	switch kind {
	case KindNodes:
		m, ok := v.(map[string]Schema)
		if !ok {
			return fmt.Errorf("nodes: unexpected value of type %T", v)
		}
		f.Nodes = m
	case KindTags:
		m, ok := v.(map[string]Schema)
		if !ok {
			return fmt.Errorf("tags: unexpected value of type %T", v)
		}
		f.Tags = m
	case KindVariables:
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("variables: unexpected value of type %T", v)
		}
		f.Variables = m
	case KindFunctions:
		m, ok := v.(map[string]Function)
		if !ok {
			return fmt.Errorf("functions: unexpected value of type %T", v)
		}
		f.Functions = m
	}
	return nil
}
