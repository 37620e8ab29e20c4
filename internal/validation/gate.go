package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/logfields"
	"git.home.luguber.info/inful/markweave/internal/metrics"
)

// Gate decides whether a document's findings abort processing.
type Gate struct {
	threshold Severity
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger used for finding lines.
func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) GateOption {
	return func(g *Gate) { g.recorder = metrics.OrNoop(r) }
}

// NewGate creates a gate that breaks on findings at or above threshold.
func NewGate(threshold Severity, opts ...GateOption) *Gate {
	g := &Gate{
		threshold: threshold,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Threshold returns the configured breaking severity.
func (g *Gate) Threshold() Severity { return g.threshold }

// Partition splits findings into breaking (severity >= threshold) and
// non-breaking ones, keeping input order.
func Partition(errs []Error, threshold Severity) (breaking, nonBreaking []Error) {
	for _, e := range errs {
		if e.Severity >= threshold {
			breaking = append(breaking, e)
		} else {
			nonBreaking = append(nonBreaking, e)
		}
	}
	return breaking, nonBreaking
}

// Check logs every non-breaking finding at its own level and returns a
// validation error carrying all breaking findings, if there are any.
func (g *Gate) Check(ctx context.Context, filename string, errs []Error) error {
	if len(errs) == 0 {
		return nil
	}
	breaking, nonBreaking := Partition(errs, g.threshold)

	for _, e := range nonBreaking {
		g.recorder.IncValidationFinding(e.Severity.String(), false)
		g.logger.Log(ctx, e.Severity.LogLevel(), e.Format(filename),
			logfields.File(filename),
			logfields.Line(e.LineString()),
			logfields.Kind(e.Kind),
			logfields.Severity(e.Severity.String()))
	}

	if len(breaking) == 0 {
		return nil
	}
	for _, e := range breaking {
		g.recorder.IncValidationFinding(e.Severity.String(), true)
	}

	plural := ""
	if len(breaking) > 1 {
		plural = "s"
	}
	summary := fmt.Sprintf("Markdoc validation failed in %s. Found %d error%s at or above configured level %q.",
		filename, len(breaking), plural, g.threshold.String())
	g.logger.ErrorContext(ctx, summary,
		logfields.File(filename),
		logfields.Count(len(breaking)),
		logfields.Threshold(g.threshold.String()))

	lines := make([]string, len(breaking))
	for i, e := range breaking {
		lines[i] = e.Format(filename)
	}

	return errors.ValidationError(summary + "\n\n" + strings.Join(lines, "\n")).
		WithContext("file", filename).
		WithContext("threshold", g.threshold.String()).
		WithContext("count", len(breaking)).
		Build()
}
