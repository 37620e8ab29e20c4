package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	ferrors "git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/metrics"
	"git.home.luguber.info/inful/markweave/internal/render"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File   string `arg:"" help:"Document to render" type:"existingfile"`
	Output string `short:"o" help:"Write the component to this file instead of stdout"`
	JSON   bool   `name:"json" help:"Print the full result as JSON"`
}

type renderJSON struct {
	Code         string             `json:"code"`
	Dependencies []string           `json:"dependencies"`
	Headings     []render.Heading   `json:"headings"`
	Frontmatter  map[string]any     `json:"frontmatter"`
	Findings     []validation.Error `json:"findings"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	p, err := loadProject(g, root)
	if err != nil {
		return err
	}
	pre := p.preprocessor(g, metrics.NoopRecorder{})

	res, err := pre.ProcessFile(context.Background(), r.File)
	if err != nil {
		return err
	}
	if res == nil {
		return ferrors.ConfigError(fmt.Sprintf("%s does not have a configured extension (%s)",
			r.File, strings.Join(pre.Options().Extensions, ", "))).Build()
	}

	out := res.Code
	if r.JSON {
		data, err := json.MarshalIndent(renderJSON{
			Code:         res.Code,
			Dependencies: res.Dependencies,
			Headings:     res.Headings,
			Frontmatter:  res.Frontmatter,
			Findings:     res.Findings,
		}, "", "  ")
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "cannot encode result").Build()
		}
		out = string(data) + "\n"
	}

	if r.Output == "" {
		_, err := fmt.Fprint(g.Stdout, out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.Output), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create output directory").Build()
	}
	if err := atomic.WriteFile(r.Output, strings.NewReader(out)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write output").
			WithContext("path", r.Output).
			Build()
	}
	return nil
}
