package preprocess

import (
	"log/slog"

	"git.home.luguber.info/inful/markweave/internal/document"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// DefaultExtensions are the file extensions processed when none are set.
var DefaultExtensions = []string{".mdoc", ".md"}

// DefaultSchemaDirectories are tried in order when no schema directory is set.
var DefaultSchemaDirectories = []string{"./markdoc", "./src/markdoc"}

// Options describes one preprocessor configuration.
type Options struct {
	// Root is the project root that relative directories resolve against.
	// Empty means the working directory.
	Root string
	// Extensions lists the handled file extensions.
	Extensions []string
	// SchemaDirectory overrides the default schema directory search.
	SchemaDirectory string
	// PartialsDirectory is an extra partials directory whose files win over
	// the schema directory's partials.
	PartialsDirectory string
	// ValidationLevel is the lowest severity that fails a document.
	ValidationLevel validation.Severity
	// Layout is the import path of a layout component wrapping every document.
	Layout string
	// ComponentsPath is the directory component imports point into.
	ComponentsPath string
	// Parser toggles Markdown extensions.
	Parser document.Options
	// Direct holds nodes, tags, functions and variables that override the
	// schema directory key by key. Its Partials are ignored.
	Direct schema.Fragment
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Extensions:      DefaultExtensions,
		ValidationLevel: validation.DefaultThreshold,
		Parser:          document.DefaultOptions(),
	}
}

// Option configures collaborators of a Preprocessor.
type Option func(*Preprocessor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Preprocessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Preprocessor) { p.recorder = metrics.OrNoop(r) }
}

// WithLoader sets the module loader used for schema fragments.
func WithLoader(l schema.ModuleLoader) Option {
	return func(p *Preprocessor) {
		if l != nil {
			p.loader = l
		}
	}
}
