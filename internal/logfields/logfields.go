package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFile         = "file"
	KeyLine         = "line"
	KeyPath         = "path"
	KeyKind         = "kind"
	KeySeverity     = "severity"
	KeyThreshold    = "threshold"
	KeyDependencies = "dependencies"
	KeyDurationMS   = "duration_ms"
	KeyRunID        = "run_id"
	KeyCount        = "count"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Line(l string) slog.Attr          { return slog.String(KeyLine, l) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func Severity(s string) slog.Attr      { return slog.String(KeySeverity, s) }
func Threshold(s string) slog.Attr     { return slog.String(KeyThreshold, s) }
func Dependencies(n int) slog.Attr     { return slog.Int(KeyDependencies, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
