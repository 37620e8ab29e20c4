package incremental

import (
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/markweave/internal/logfields"
)

// Reason explains a rebuild decision.
type Reason string

const (
	ReasonNew           Reason = "new"
	ReasonContent       Reason = "content changed"
	ReasonConfig        Reason = "configuration changed"
	ReasonDependency    Reason = "dependency changed"
	ReasonOutputMissing Reason = "output missing"
	ReasonUnchanged     Reason = "unchanged"
)

// Decision is the outcome of Checker.Check.
type Decision struct {
	Rebuild     bool
	Reason      Reason
	Fingerprint string
}

// Checker compares documents against a manifest.
type Checker struct {
	manifest   *Manifest
	configHash string
	logger     *slog.Logger
}

// NewChecker creates a checker for the current configuration hash.
func NewChecker(m *Manifest, configHash string) *Checker {
	return &Checker{manifest: m, configHash: configHash, logger: slog.Default()}
}

// WithLogger sets a custom logger.
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// Check decides whether source must be rebuilt. A document is skipped only
// when its fingerprint, the configuration hash and every recorded dependency
// hash are unchanged and its output still exists.
func (c *Checker) Check(source string, content []byte) Decision {
	fp := Fingerprint(content)
	prev, ok := c.manifest.Get(source)
	switch {
	case !ok:
		return Decision{Rebuild: true, Reason: ReasonNew, Fingerprint: fp}
	case c.manifest.ConfigHash != c.configHash:
		return Decision{Rebuild: true, Reason: ReasonConfig, Fingerprint: fp}
	case prev.Fingerprint != fp:
		return Decision{Rebuild: true, Reason: ReasonContent, Fingerprint: fp}
	}

	for dep, sum := range prev.Dependencies {
		current, err := HashFile(dep)
		if err != nil || current != sum {
			c.logger.Debug("Dependency changed", logfields.File(source), logfields.Path(dep))
			return Decision{Rebuild: true, Reason: ReasonDependency, Fingerprint: fp}
		}
	}

	if prev.Output != "" {
		if _, err := os.Stat(prev.Output); err != nil {
			return Decision{Rebuild: true, Reason: ReasonOutputMissing, Fingerprint: fp}
		}
	}
	return Decision{Reason: ReasonUnchanged, Fingerprint: fp}
}

// Record stores the result of a successful build of source.
func (c *Checker) Record(source, fingerprint, output string, deps []string) error {
	hashes, err := HashDependencies(deps)
	if err != nil {
		return err
	}
	c.manifest.Put(source, Entry{
		Fingerprint:  fingerprint,
		Output:       output,
		Dependencies: hashes,
		BuiltAt:      time.Now().UTC(),
	})
	return nil
}

// Forget drops source from the manifest, typically after a failed build, so
// the next run retries it.
func (c *Checker) Forget(source string) {
	c.manifest.Delete(source)
}
