package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/markweave/internal/discovery"
	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/incremental"
	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
)

// Builder runs builds against one preprocessor.
type Builder struct {
	pre      *preprocess.Preprocessor
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder used for skipped documents.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = metrics.OrNoop(r) }
}

// NewBuilder creates a Builder.
func NewBuilder(pre *preprocess.Preprocessor, opts ...Option) *Builder {
	b := &Builder{pre: pre, logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes one build. The returned error is non-nil when any document
// failed or the run was cancelled; the Result is returned either way.
func (b *Builder) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartTime: time.Now()}
	logger := b.logger.With(logfields.RunID(res.RunID))

	sources := withinDir(req.SourceDir, req.Files)
	if len(req.Files) == 0 {
		found, err := Sources(req.SourceDir, Excluded(ctx, b.pre, req), b.pre.Handles)
		if err != nil {
			return res, errors.WrapError(err, errors.CategoryFileSystem, "cannot scan source directory").
				WithContext("dir", req.SourceDir).
				Build()
		}
		sources = found
	}

	manifest := incremental.NewManifest()
	if req.ManifestPath != "" {
		m, err := incremental.LoadManifest(req.ManifestPath)
		if err != nil {
			logger.Warn("Discarding unreadable manifest", logfields.Path(req.ManifestPath), logfields.Error(err))
		} else {
			manifest = m
		}
	}
	checker := incremental.NewChecker(manifest, req.ConfigHash).WithLogger(logger)

	logger.Info("Build started", logfields.Count(len(sources)), logfields.Path(req.SourceDir))
	res.Outcomes = runOrdered(ctx, sources, req.Concurrency, func(ctx context.Context, src string) Outcome {
		return b.buildOne(ctx, logger, req, checker, src)
	})

	if len(req.Files) == 0 {
		b.pruneRemoved(logger, req, manifest, res.Outcomes)
	}

	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.tally()

	if ctx.Err() != nil {
		res.Status = StatusCancelled
		return res, ctx.Err()
	}

	if req.ManifestPath != "" && !req.DryRun {
		manifest.RunID = res.RunID
		manifest.ConfigHash = req.ConfigHash
		manifest.UpdatedAt = res.EndTime.UTC()
		if err := manifest.Save(req.ManifestPath); err != nil {
			logger.Warn("Failed to save manifest", logfields.Path(req.ManifestPath), logfields.Error(err))
		}
	}

	logger.Info("Build completed",
		slog.String("status", string(res.Status)),
		slog.Int("built", res.Built),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))

	if res.Failed > 0 {
		return res, failureError(res)
	}
	return res, nil
}

func (b *Builder) buildOne(ctx context.Context, logger *slog.Logger, req Request, checker *incremental.Checker, src string) Outcome {
	rel := relativeSource(req.SourceDir, src)
	out := Outcome{
		Source: rel,
		Output: outputPath(req.OutputDir, rel, b.pre.Options().Extensions, req.OutputExtension),
	}
	fail := func(err error) Outcome {
		checker.Forget(rel)
		out.Status = DocumentFailed
		out.Err = err
		return out
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// #nosec G304 -- sources come from walking the configured directory
	content, err := os.ReadFile(src)
	if err != nil {
		return fail(errors.WrapError(err, errors.CategoryFileSystem, "cannot read document").
			WithContext("file", rel).
			Build())
	}

	decision := incremental.Decision{Rebuild: true, Fingerprint: incremental.Fingerprint(content)}
	if req.ManifestPath != "" && !req.Force {
		decision = checker.Check(rel, content)
	}
	out.Reason = decision.Reason
	if !decision.Rebuild {
		b.recorder.IncDocumentResult(metrics.ResultSkipped)
		logger.Debug("Document unchanged", logfields.File(rel))
		out.Status = DocumentSkipped
		return out
	}

	result, err := b.pre.Process(ctx, rel, content)
	if err != nil {
		return fail(err)
	}
	out.Dependencies = result.Dependencies
	out.Findings = result.Findings

	if !req.DryRun {
		if err := writeOutput(out.Output, result.Code); err != nil {
			return fail(err)
		}
	}
	if err := checker.Record(rel, decision.Fingerprint, out.Output, result.Dependencies); err != nil {
		logger.Warn("Failed to record dependencies", logfields.File(rel), logfields.Error(err))
		checker.Forget(rel)
	}

	logger.Debug("Document built", logfields.File(rel), logfields.Path(out.Output))
	out.Status = DocumentBuilt
	return out
}

func writeOutput(path, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create output directory").
			WithContext("path", path).
			Build()
	}
	if err := atomic.WriteFile(path, strings.NewReader(code)); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot write output").
			WithContext("path", path).
			Build()
	}
	return nil
}

// Excluded lists the paths a run must not treat as sources: the output
// directory, the manifest file, the schema directory and the explicit
// partials directory.
func Excluded(ctx context.Context, pre *preprocess.Preprocessor, req Request) []string {
	out := []string{req.OutputDir}
	if dir, ok := pre.SchemaDirectory(ctx); ok {
		out = append(out, filepath.FromSlash(dir))
	}
	opts := pre.Options()
	if opts.PartialsDirectory != "" {
		out = append(out, filepath.FromSlash(discovery.Resolve(opts.Root, opts.PartialsDirectory)))
	}
	if req.ManifestPath != "" {
		out = append(out, req.ManifestPath)
	}
	return out
}

// pruneRemoved drops manifest entries, and their outputs, for sources that
// no longer exist.
func (b *Builder) pruneRemoved(logger *slog.Logger, req Request, m *incremental.Manifest, outcomes []Outcome) {
	current := make([]string, len(outcomes))
	for i, o := range outcomes {
		current[i] = o.Source
	}
	for _, src := range m.Sources() {
		if slices.Contains(current, src) {
			continue
		}
		entry, _ := m.Get(src)
		m.Delete(src)
		if req.DryRun || entry.Output == "" {
			continue
		}
		if err := os.Remove(entry.Output); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove stale output", logfields.Path(entry.Output), logfields.Error(err))
			continue
		}
		logger.Info("Removed stale output", logfields.File(src), logfields.Path(entry.Output))
	}
}

// withinDir keeps the files that live below dir.
func withinDir(dir string, files []string) []string {
	var out []string
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func relativeSource(dir, src string) string {
	rel, err := filepath.Rel(dir, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(src)
	}
	return filepath.ToSlash(rel)
}

// failureError summarizes failed documents. The category of the first
// failure decides the exit code.
func failureError(res *Result) error {
	failures := res.Failures()
	first := failures[0].Err
	category := errors.CategoryInternal
	if ce, ok := errors.AsClassified(first); ok {
		category = ce.Category()
	}

	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		msg := f.Err.Error()
		if ce, ok := errors.AsClassified(f.Err); ok {
			msg = ce.Message()
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f.Source, msg))
	}
	return errors.WrapError(first, category,
		fmt.Sprintf("%d of %d documents failed\n%s", len(failures), len(res.Outcomes), strings.Join(lines, "\n"))).
		WithContext("run_id", res.RunID).
		Build()
}
