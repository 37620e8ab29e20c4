package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Plan is the rebuild a batch of changes calls for.
type Plan struct {
	// Reload is set when the project configuration file changed.
	Reload bool
	// Full rebuilds every document. Set when configuration, schema files or
	// partials changed, or when a document disappeared.
	Full bool
	// Files are the changed documents for a partial rebuild.
	Files []string
}

// Empty reports whether nothing needs rebuilding.
func (p Plan) Empty() bool {
	return !p.Reload && !p.Full && len(p.Files) == 0
}

// Classifier maps changed paths onto a Plan.
type Classifier struct {
	// ConfigFile is the project configuration file.
	ConfigFile string
	// ConfigDirs hold schema files and partials.
	ConfigDirs []string
	// Handles reports whether a path is a document.
	Handles func(string) bool
}

// Plan classifies a batch of changed paths.
func (c Classifier) Plan(changed []string) Plan {
	var plan Plan
	configFile := absOrSelf(c.ConfigFile)
	for _, path := range changed {
		abs := absOrSelf(path)
		switch {
		case c.ConfigFile != "" && abs == configFile:
			plan.Reload = true
			plan.Full = true
		case c.underConfigDir(abs):
			plan.Full = true
		case c.Handles != nil && c.Handles(filepath.ToSlash(path)):
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				plan.Full = true
				continue
			}
			plan.Files = append(plan.Files, path)
		}
	}
	if plan.Full {
		plan.Files = nil
	}
	return plan
}

func (c Classifier) underConfigDir(abs string) bool {
	for _, dir := range c.ConfigDirs {
		d := absOrSelf(dir)
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func absOrSelf(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
