// Package preprocess turns Markdoc documents into Svelte components. It ties
// together schema discovery, partials, config assembly, validation,
// transformation and rendering for one document at a time.
package preprocess

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/markweave/internal/assemble"
	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/components"
	"git.home.luguber.info/inful/markweave/internal/discovery"
	"git.home.luguber.info/inful/markweave/internal/document"
	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/partials"
	"git.home.luguber.info/inful/markweave/internal/render"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/util/sets"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Result is the output for one document.
type Result struct {
	// Code is the generated Svelte component source.
	Code string
	// Dependencies are the configuration files the output depends on.
	Dependencies []string
	// Headings lists the h1-h6 elements of the rendered body.
	Headings []render.Heading
	// Frontmatter is the decoded frontmatter, never nil.
	Frontmatter map[string]any
	// Findings are the validation findings below the threshold.
	Findings []validation.Error
}

// Resolution is the configuration in effect for one document.
type Resolution struct {
	Config       *schema.Fragment
	Dependencies []string
}

// Preprocessor processes documents with a fixed set of options. It holds no
// per-document state and is safe for concurrent use.
type Preprocessor struct {
	opts     Options
	root     string
	parser   *document.Parser
	loader   schema.ModuleLoader
	resolver *schema.Resolver
	partials *partials.Loader
	gate     *validation.Gate
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates a Preprocessor. Start from DefaultOptions; only an empty
// Extensions list falls back to its default.
func New(opts Options, options ...Option) *Preprocessor {
	p := &Preprocessor{
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(p)
	}

	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Root = wd
		}
	}
	p.opts = opts
	p.root = opts.Root

	p.parser = document.NewParser(opts.Parser)
	resolverOpts := []schema.Option{schema.WithLogger(p.logger), schema.WithRecorder(p.recorder)}
	if p.loader != nil {
		resolverOpts = append(resolverOpts, schema.WithLoader(p.loader))
	}
	p.resolver = schema.NewResolver(resolverOpts...)
	p.partials = partials.NewLoader(p.parser, p.logger, p.recorder)
	p.gate = validation.NewGate(opts.ValidationLevel,
		validation.WithLogger(p.logger),
		validation.WithRecorder(p.recorder))
	return p
}

// Options returns the options in effect.
func (p *Preprocessor) Options() Options { return p.opts }

// Handles reports whether filename has one of the configured extensions.
func (p *Preprocessor) Handles(filename string) bool {
	if filename == "" {
		return false
	}
	return slices.ContainsFunc(p.opts.Extensions, func(ext string) bool {
		return strings.HasSuffix(filename, ext)
	})
}

// Parse parses a document with the configured Markdown options.
func (p *Preprocessor) Parse(filename string, content []byte) (*ast.Document, error) {
	doc, err := p.parser.Parse(filename, content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "cannot parse document").
			WithContext("file", filename).
			Build()
	}
	return doc, nil
}

// SchemaDirectory returns the schema directory in effect, if one exists.
func (p *Preprocessor) SchemaDirectory(ctx context.Context) (string, bool) {
	if p.opts.SchemaDirectory != "" {
		dir, ok := discovery.FindFirstExisting(ctx, p.logger, p.root, []string{p.opts.SchemaDirectory})
		if !ok {
			p.logger.WarnContext(ctx, "Specified schema directory not found", logfields.Path(p.opts.SchemaDirectory))
		}
		return dir, ok
	}
	return discovery.FindFirstExisting(ctx, p.logger, p.root, DefaultSchemaDirectories)
}

// Resolve assembles the configuration for a document with the given
// frontmatter. Nothing is cached between calls, so edits to schema files and
// partials are always picked up.
func (p *Preprocessor) Resolve(ctx context.Context, frontmatter map[string]any) *Resolution {
	deps := sets.New[string]()
	src := assemble.Sources{Direct: p.opts.Direct, Derived: frontmatter}

	if dir, ok := p.SchemaDirectory(ctx); ok {
		loaded := p.resolver.Load(ctx, dir)
		src.Schema = loaded.Fragment
		deps.AddAll(loaded.Dependencies...)

		local := p.partials.Load(ctx, dir, p.opts.Extensions, false)
		src.SchemaPartials = local.Partials
		deps.AddAll(local.Dependencies...)
	} else {
		p.logger.DebugContext(ctx, "No schema directory found", logfields.Path(p.root))
	}

	if p.opts.PartialsDirectory != "" {
		dir := discovery.Resolve(p.root, p.opts.PartialsDirectory)
		explicit := p.partials.Load(ctx, dir, p.opts.Extensions, true)
		src.ExplicitPartials = explicit.Partials
		deps.AddAll(explicit.Dependencies...)
	}

	return &Resolution{Config: assemble.Assemble(src), Dependencies: sets.Sorted(deps)}
}

// Check parses and validates a document and passes the findings through the
// validation gate. It returns every finding and the gate's verdict.
func (p *Preprocessor) Check(ctx context.Context, filename string, content []byte) ([]validation.Error, error) {
	doc, err := p.Parse(filename, content)
	if err != nil {
		return nil, err
	}
	res := p.Resolve(ctx, doc.Frontmatter)
	findings := document.Validate(doc, res.Config)
	return findings, p.gate.Check(ctx, filename, findings)
}

// Process converts one document. It returns a nil Result for files whose
// extension is not handled. A document whose findings reach the validation
// level fails with a validation error and produces no output.
func (p *Preprocessor) Process(ctx context.Context, filename string, content []byte) (*Result, error) {
	if !p.Handles(filename) {
		return nil, nil
	}
	start := time.Now()
	defer func() { p.recorder.ObserveRenderDuration(time.Since(start)) }()

	doc, err := p.Parse(filename, content)
	if err != nil {
		p.recorder.IncDocumentResult(metrics.ResultFailed)
		return nil, err
	}

	res := p.Resolve(ctx, doc.Frontmatter)
	findings := document.Validate(doc, res.Config)
	if err := p.gate.Check(ctx, filename, findings); err != nil {
		p.recorder.IncDocumentResult(metrics.ResultInvalid)
		return nil, err
	}

	tree := document.Transform(doc, res.Config)
	body := render.Render(tree)
	imports := components.Imports(tree, res.Config, p.opts.ComponentsPath)

	code, err := compose(body, doc, p.opts.Layout, imports)
	if err != nil {
		p.recorder.IncDocumentResult(metrics.ResultFailed)
		return nil, errors.WrapError(err, errors.CategoryRender, "cannot compose output").
			WithContext("file", filename).
			Build()
	}

	p.logger.DebugContext(ctx, "Processed document",
		logfields.File(filename),
		logfields.Dependencies(len(res.Dependencies)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	p.recorder.IncDocumentResult(metrics.ResultRendered)

	_, nonBreaking := validation.Partition(findings, p.gate.Threshold())
	return &Result{
		Code:         code,
		Dependencies: res.Dependencies,
		Headings:     render.CollectHeadings(tree),
		Frontmatter:  doc.Frontmatter,
		Findings:     nonBreaking,
	}, nil
}

// ProcessFile reads and converts a file.
func (p *Preprocessor) ProcessFile(ctx context.Context, filename string) (*Result, error) {
	// #nosec G304 -- the caller chooses which document to process
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot read document").
			WithContext("file", filename).
			Build()
	}
	return p.Process(ctx, filepath.ToSlash(filename), content)
}
