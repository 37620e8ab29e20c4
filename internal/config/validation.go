package config

import (
	"fmt"
	"net"
	"path/filepath"

	"git.home.luguber.info/inful/markweave/internal/components"
)

// Validate checks a normalized, defaulted configuration.
func Validate(c *Config) error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported configuration version: %q (expected %q)", c.Version, CurrentVersion)
	}
	for _, ext := range c.Extensions {
		if ext == "." {
			return fmt.Errorf("invalid extension %q", ext)
		}
		if ext == c.Output.Extension {
			return fmt.Errorf("output extension %q must not be a source extension", ext)
		}
	}
	if c.Build.Concurrency < 1 {
		return fmt.Errorf("build.concurrency must be at least 1, got %d", c.Build.Concurrency)
	}
	if filepath.IsAbs(c.Output.Directory) && filepath.Clean(c.Output.Directory) == "/" {
		return fmt.Errorf("output.directory must not be the file system root")
	}
	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}
	for name, s := range c.Tags {
		if s.Render != "" && !components.IsComponent(s.Render) && !isElementName(s.Render) {
			return fmt.Errorf("tag %q: invalid render target %q", name, s.Render)
		}
	}
	for name, s := range c.Nodes {
		if s.Render != "" && !components.IsComponent(s.Render) && !isElementName(s.Render) {
			return fmt.Errorf("node %q: invalid render target %q", name, s.Render)
		}
	}
	return nil
}

func isElementName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return s != ""
}
