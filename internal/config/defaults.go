package config

import (
	"git.home.luguber.info/inful/markweave/internal/components"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

const (
	DefaultOutputDirectory = "build"
	DefaultOutputExtension = ".svelte"
	DefaultManifest        = ".markweave/manifest.json"
	DefaultConcurrency     = 4
)

func applyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = CurrentVersion
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), preprocess.DefaultExtensions...)
	}
	if c.ValidationLevel == "" {
		c.ValidationLevel = validation.DefaultThreshold.String()
	}
	if c.ComponentsPath == "" {
		c.ComponentsPath = components.DefaultDir
	}
	if c.Parser.Tables == nil {
		tables := true
		c.Parser.Tables = &tables
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDirectory
	}
	if c.Output.Extension == "" {
		c.Output.Extension = DefaultOutputExtension
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = DefaultManifest
	}
	if c.Build.Concurrency <= 0 {
		c.Build.Concurrency = DefaultConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}
