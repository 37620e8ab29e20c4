package config

import (
	"fmt"
	"slices"
	"strings"

	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Normalize canonicalizes enum-like and path-like fields in place. Unknown
// log settings fall back to their defaults. An unknown validation level is
// an error.
func Normalize(c *Config) error {
	if c == nil {
		return fmt.Errorf("config nil")
	}
	c.Version = strings.TrimSpace(c.Version)

	if c.ValidationLevel != "" {
		sev, err := validation.ParseSeverity(c.ValidationLevel)
		if err != nil {
			return fmt.Errorf("validation_level: %w", err)
		}
		c.ValidationLevel = sev.String()
	}

	if len(c.Extensions) > 0 {
		exts := make([]string, 0, len(c.Extensions))
		for _, e := range c.Extensions {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			if !slices.Contains(exts, e) {
				exts = append(exts, e)
			}
		}
		c.Extensions = exts
	}

	c.SchemaDirectory = strings.TrimSpace(c.SchemaDirectory)
	c.PartialsDirectory = strings.TrimSpace(c.PartialsDirectory)
	c.Layout = strings.TrimSpace(c.Layout)
	c.ComponentsPath = strings.TrimRight(strings.TrimSpace(c.ComponentsPath), "/")

	if ext := strings.TrimSpace(c.Output.Extension); ext != "" && !strings.HasPrefix(ext, ".") {
		c.Output.Extension = "." + ext
	} else {
		c.Output.Extension = ext
	}

	if c.Logging.Level != "" {
		c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	}
	if c.Logging.Format != "" {
		c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	}
	return nil
}
