package config

import (
	"git.home.luguber.info/inful/markweave/internal/document"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Threshold returns the configured validation level.
func (c *Config) Threshold() validation.Severity {
	sev, err := validation.ParseSeverity(c.ValidationLevel)
	if err != nil {
		return validation.DefaultThreshold
	}
	return sev
}

// PreprocessOptions converts the configuration for a project rooted at root.
func (c *Config) PreprocessOptions(root string) preprocess.Options {
	return preprocess.Options{
		Root:              root,
		Extensions:        c.Extensions,
		SchemaDirectory:   c.SchemaDirectory,
		PartialsDirectory: c.PartialsDirectory,
		ValidationLevel:   c.Threshold(),
		Layout:            c.Layout,
		ComponentsPath:    c.ComponentsPath,
		Parser: document.Options{
			Linkify:     c.Parser.Linkify,
			Typographer: c.Parser.Typographer,
			Tables:      c.tables(),
		},
		Direct: schema.Fragment{
			Nodes:     c.Nodes,
			Tags:      c.Tags,
			Functions: c.Functions,
			Variables: c.Variables,
		},
	}
}
