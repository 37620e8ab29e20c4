package build

import (
	"time"

	"git.home.luguber.info/inful/markweave/internal/incremental"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Request contains the inputs of one build run.
type Request struct {
	// SourceDir is walked for documents.
	SourceDir string

	// OutputDir receives one component per document, mirroring SourceDir.
	OutputDir string

	// OutputExtension replaces the source extension.
	OutputExtension string

	// ManifestPath stores fingerprints between runs. Empty disables skipping.
	ManifestPath string

	// ConfigHash identifies the configuration; a change rebuilds everything.
	ConfigHash string

	// Concurrency bounds parallel document processing.
	Concurrency int

	// Force rebuilds documents even when they are unchanged.
	Force bool

	// DryRun processes documents without writing outputs or the manifest.
	DryRun bool

	// Files limits the run to these source files. Empty means the whole tree.
	Files []string
}

// Status represents the outcome of a run.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// IsSuccess returns true if the run completed without failures.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}

// DocumentStatus is the outcome for one document.
type DocumentStatus string

const (
	DocumentBuilt   DocumentStatus = "built"
	DocumentSkipped DocumentStatus = "skipped"
	DocumentFailed  DocumentStatus = "failed"
)

// Outcome describes what happened to one document.
type Outcome struct {
	// Source is the document path relative to the source directory, with
	// forward slashes.
	Source       string
	Output       string
	Status       DocumentStatus
	Reason       incremental.Reason
	Dependencies []string
	Findings     []validation.Error
	Err          error
}

// Result is the outcome of a run.
type Result struct {
	RunID     string
	Status    Status
	Outcomes  []Outcome
	Built     int
	Skipped   int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

func (r *Result) tally() {
	for _, o := range r.Outcomes {
		switch o.Status {
		case DocumentBuilt:
			r.Built++
		case DocumentSkipped:
			r.Skipped++
		case DocumentFailed:
			r.Failed++
		}
	}
	switch {
	case r.Failed > 0:
		r.Status = StatusFailed
	case r.Built == 0 && r.Skipped > 0:
		r.Status = StatusSkipped
	default:
		r.Status = StatusSuccess
	}
}

// Failures returns the outcomes that failed.
func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == DocumentFailed {
			out = append(out, o)
		}
	}
	return out
}
