package metrics

import "time"

// ResultLabel enumerates per-document outcomes for counters.
type ResultLabel string

const (
	ResultRendered ResultLabel = "rendered"
	ResultSkipped  ResultLabel = "skipped"
	ResultInvalid  ResultLabel = "invalid"
	ResultFailed   ResultLabel = "failed"
)

// Recorder defines observability hooks for preprocessing. Implementations may
// forward to Prometheus or any other backend.
type Recorder interface {
	ObserveRenderDuration(d time.Duration)
	IncDocumentResult(result ResultLabel)
	IncValidationFinding(severity string, breaking bool)
	IncFragmentLoadFailure(kind string)
	IncPartialLoadFailure()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRenderDuration(time.Duration)   {}
func (NoopRecorder) IncDocumentResult(ResultLabel)         {}
func (NoopRecorder) IncValidationFinding(string, bool)     {}
func (NoopRecorder) IncFragmentLoadFailure(string)         {}
func (NoopRecorder) IncPartialLoadFailure()                {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
