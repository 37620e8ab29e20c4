package validation

import (
	"log/slog"

	"git.home.luguber.info/inful/markweave/internal/foundation/normalization"
)

// Severity is the level of a validation finding. The numeric order is the
// total order used by the gate.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// severityNames is the ordered constant table of severity names.
var severityNames = [...]string{
	SeverityDebug:    "debug",
	SeverityInfo:     "info",
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
}

var severityNormalizer = normalization.NewEnumNormalizer("validation level", map[string]Severity{
	"debug":    SeverityDebug,
	"info":     SeverityInfo,
	"warning":  SeverityWarning,
	"warn":     SeverityWarning,
	"error":    SeverityError,
	"critical": SeverityCritical,
}, SeverityError)

// DefaultThreshold is the level at which findings fail a document when nothing
// else is configured.
const DefaultThreshold = SeverityError

func (s Severity) String() string {
	if s < SeverityDebug || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(raw string) (Severity, error) {
	return severityNormalizer.NormalizeWithValidation(raw)
}

// SeverityNames lists the accepted severity names, aliases included.
func SeverityNames() []string {
	return severityNormalizer.ValidValues()
}

// LogLevel maps a severity to the slog level used for its log line.
func (s Severity) LogLevel() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
