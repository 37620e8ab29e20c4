package validation

import (
	"fmt"
	"strings"
)

// Range is an inclusive, 1-based line range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Error is a single structural finding reported by document validation.
type Error struct {
	Kind     string   `json:"kind"`
	ID       string   `json:"id"`
	Lines    Range    `json:"lines"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Locator formats file:start, or file:start-end when the range spans lines.
func (e Error) Locator(file string) string {
	if e.Lines.End != 0 && e.Lines.End != e.Lines.Start {
		return fmt.Sprintf("%s:%d-%d", file, e.Lines.Start, e.Lines.End)
	}
	return fmt.Sprintf("%s:%d", file, e.Lines.Start)
}

// LineString returns the locator without the file name.
func (e Error) LineString() string {
	if e.Lines.End != 0 && e.Lines.End != e.Lines.Start {
		return fmt.Sprintf("%d-%d", e.Lines.Start, e.Lines.End)
	}
	return fmt.Sprintf("%d", e.Lines.Start)
}

// Format renders the finding as "LEVEL (kind): message at file:lines".
func (e Error) Format(file string) string {
	return fmt.Sprintf("%s (%s): %s at %s",
		strings.ToUpper(e.Severity.String()), e.Kind, e.Message, e.Locator(file))
}
