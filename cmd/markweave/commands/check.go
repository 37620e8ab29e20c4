package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/markweave/internal/build"
	ferrors "git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/metrics"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Dir string `arg:"" optional:"" help:"Source directory" default:"." type:"existingdir"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	p, err := loadProject(g, root)
	if err != nil {
		return err
	}
	req, err := p.request(c.Dir)
	if err != nil {
		return err
	}
	pre := p.preprocessor(g, metrics.NoopRecorder{})

	ctx := context.Background()
	sources, err := build.Sources(req.SourceDir, build.Excluded(ctx, pre, req), pre.Handles)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot scan source directory").Build()
	}

	var failed []string
	total := 0
	for _, src := range sources {
		rel, relErr := filepath.Rel(req.SourceDir, src)
		if relErr != nil {
			rel = src
		}
		rel = filepath.ToSlash(rel)

		// #nosec G304 -- sources come from walking the source directory
		content, err := os.ReadFile(src)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read document").
				WithContext("file", rel).
				Build()
		}
		findings, err := pre.Check(ctx, rel, content)
		for _, f := range findings {
			_, _ = fmt.Fprintln(g.Stdout, f.Format(rel))
		}
		total += len(findings)
		if err != nil {
			if !ferrors.HasCategory(err, ferrors.CategoryValidation) && !ferrors.HasCategory(err, ferrors.CategoryParse) {
				return err
			}
			if len(findings) == 0 {
				_, _ = fmt.Fprintf(g.Stdout, "%s: %v\n", rel, err)
			}
			failed = append(failed, rel)
		}
	}

	_, _ = fmt.Fprintf(g.Stdout, "Checked %d documents: %d findings, %d failed\n", len(sources), total, len(failed))
	if len(failed) > 0 {
		return ferrors.ValidationError(fmt.Sprintf("validation failed for %s", strings.Join(failed, ", "))).
			WithContext("threshold", p.cfg.ValidationLevel).
			Build()
	}
	return nil
}
