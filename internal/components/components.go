// Package components finds the Svelte components a rendered tree uses.
package components

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/markweave/internal/renderable"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/util/sets"
)

// DefaultDir is the import directory used when none is configured.
const DefaultDir = "/src/lib/components"

// Import is a single component import statement.
type Import struct {
	Name string
	Path string
}

func (i Import) String() string {
	return fmt.Sprintf("import %s from '%s';", i.Name, i.Path)
}

// Imports returns the components used in tree, sorted by name. A tag counts as
// a component when its name starts with an upper-case letter and some tag or
// node schema in cfg renders to it.
func Imports(tree renderable.Node, cfg *schema.Fragment, dir string) []Import {
	if dir == "" {
		dir = DefaultDir
	}
	targets := renderTargets(cfg)
	if len(targets) == 0 {
		return nil
	}

	used := sets.New[string]()
	collect(tree, targets, used)

	out := make([]Import, 0, len(used))
	for _, name := range sets.Sorted(used) {
		out = append(out, Import{Name: name, Path: collapseSlashes(dir + "/" + name + ".svelte")})
	}
	return out
}

func renderTargets(cfg *schema.Fragment) sets.Set[string] {
	targets := sets.New[string]()
	if cfg == nil {
		return targets
	}
	for _, s := range cfg.Tags {
		if IsComponent(s.Render) {
			targets.Add(s.Render)
		}
	}
	for _, s := range cfg.Nodes {
		if IsComponent(s.Render) {
			targets.Add(s.Render)
		}
	}
	return targets
}

// IsComponent reports whether name is capitalized, the Svelte convention for
// components.
func IsComponent(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func collect(node renderable.Node, targets, used sets.Set[string]) {
	switch n := node.(type) {
	case renderable.Nodes:
		for _, child := range n {
			collect(child, targets, used)
		}
	case *renderable.Tag:
		if n == nil {
			return
		}
		if targets.Has(n.Name) {
			used.Add(n.Name)
		}
		collect(n.Children, targets, used)
	}
}

func collapseSlashes(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
