package document

import (
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/expr"
	"git.home.luguber.info/inful/markweave/internal/partials"
	"git.home.luguber.info/inful/markweave/internal/renderable"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Built-in tag names. A configured tag with the same name replaces them.
const (
	TagIf      = "if"
	TagElse    = "else"
	TagPartial = "partial"
)

// globalAttributes may be set on every configured tag.
var globalAttributes = []string{"class", "id"}

func (w *walker) tag(it *item, lines validation.Range) renderable.Node {
	name := it.marker.Name
	if s, ok := w.cfg.Tags[name]; ok {
		return w.configTag(it, s, lines)
	}
	switch name {
	case TagIf:
		return w.ifTag(it, lines)
	case TagPartial:
		return w.partialTag(it, lines)
	case TagElse:
		// Only meaningful directly inside an if.
		return nil
	}
	w.report(lines, KindTag, IDTagUndefined, "Undefined tag: '%s'", name)
	return &renderable.Tag{Children: w.items(it.children)}
}

func (w *walker) configTag(it *item, s schema.Schema, lines validation.Range) renderable.Node {
	attrs := w.attributes(it.marker, s, lines)
	if s.SelfClosing && len(it.children) > 0 {
		w.report(lines, KindTag, IDSelfClosingWithChildren, "'%s' tag should be self-closing", it.marker.Name)
	}
	t := &renderable.Tag{Name: s.Render, Attributes: attrs}
	if children := w.items(it.children); len(children) > 0 {
		t.Children = children
	}
	return t
}

// attributes evaluates the marker's attributes against the declared ones and
// returns them sorted by name, defaults included.
func (w *walker) attributes(m *ast.TagMarker, s schema.Schema, lines validation.Range) []renderable.Attribute {
	values := make(map[string]any, len(m.Attrs))
	for _, a := range m.Attrs {
		decl, declared := s.Attributes[a.Name]
		if !declared && !slices.Contains(globalAttributes, a.Name) {
			w.report(lines, KindTag, IDAttributeUndefined, "Invalid attribute: '%s'", a.Name)
			continue
		}
		v, ok := w.evaluate(a.Value, lines)
		if !ok || v == nil {
			continue
		}
		if declared {
			if !decl.Accepts(v) {
				w.report(lines, KindTag, IDAttributeTypeInvalid, "Attribute '%s' must be type of '%s'", a.Name, decl.NormalizedType())
				continue
			}
			if !decl.Allows(v) {
				w.report(lines, KindTag, IDAttributeValueInvalid, "Attribute '%s' must match one of %v. Got '%s' instead.",
					a.Name, decl.Matches, renderable.Stringify(v))
				continue
			}
		}
		values[a.Name] = v
	}

	for _, name := range slices.Sorted(maps.Keys(s.Attributes)) {
		if _, ok := values[name]; ok {
			continue
		}
		decl := s.Attributes[name]
		switch {
		case decl.Default != nil:
			values[name] = decl.Default
		case decl.Required:
			w.report(lines, KindTag, IDAttributeMissingRequired, "Missing required attribute: '%s'", name)
		}
	}

	out := make([]renderable.Attribute, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		out = append(out, renderable.Attribute{Name: name, Value: values[name]})
	}
	return out
}

type branch struct {
	cond  *ast.TagMarker
	items []*item
}

// ifTag renders the first branch whose condition is truthy. Every branch is
// walked so findings in untaken branches are still reported.
func (w *walker) ifTag(it *item, lines validation.Range) renderable.Node {
	branches := []branch{{cond: it.marker}}
	for _, child := range it.children {
		if m := child.marker; m != nil && m.Shape == ast.MarkerSelfClosing && m.Name == TagElse {
			branches = append(branches, branch{cond: m})
			continue
		}
		last := &branches[len(branches)-1]
		last.items = append(last.items, child)
	}

	var chosen renderable.Nodes
	taken := false
	for i, b := range branches {
		pass := true
		primary, hasCond := b.cond.Lookup(ast.PrimaryAttribute)
		switch {
		case hasCond:
			v, ok := w.evaluate(primary.Value, lines)
			pass = ok && truthy(v)
		case i == 0:
			w.report(lines, KindTag, IDAttributeMissingRequired, "Missing required attribute: '%s'", ast.PrimaryAttribute)
			pass = false
		}
		rendered := w.items(b.items)
		if pass && !taken {
			chosen, taken = rendered, true
		}
	}
	return &renderable.Tag{Children: chosen}
}

// partialTag inlines a loaded partial, optionally with extra variables.
func (w *walker) partialTag(it *item, lines validation.Range) renderable.Node {
	m := it.marker
	fileAttr, ok := m.Lookup("file")
	if !ok {
		w.report(lines, KindTag, IDAttributeMissingRequired, "Missing required attribute: 'file'")
		return nil
	}
	v, ok := w.evaluate(fileAttr.Value, lines)
	if !ok {
		return nil
	}
	file, ok := v.(string)
	if !ok {
		w.report(lines, KindTag, IDAttributeTypeInvalid, "Attribute 'file' must be type of 'string'")
		return nil
	}
	for _, a := range m.Attrs {
		if a.Name != "file" && a.Name != "variables" {
			w.report(lines, KindTag, IDAttributeUndefined, "Invalid attribute: '%s'", a.Name)
		}
	}

	key := partials.Key(file)
	doc, ok := w.cfg.Partials[key]
	if !ok || doc == nil {
		w.report(lines, KindTag, IDPartialUndefined, "Undefined partial: '%s'", file)
		return nil
	}
	if slices.Contains(w.including, key) {
		w.report(lines, KindTag, IDPartialCycle, "Partial '%s' includes itself", file)
		return nil
	}

	eval := w.eval
	if varsAttr, ok := m.Lookup("variables"); ok {
		v, ok := w.evaluate(varsAttr.Value, lines)
		if !ok {
			return nil
		}
		extra, ok := v.(map[string]any)
		if !ok {
			w.report(lines, KindTag, IDAttributeTypeInvalid, "Attribute 'variables' must be type of 'object'")
			return nil
		}
		eval = withVariables(w.eval, extra)
	}

	prevDoc, prevEval, prevAnchor, prevIncluding := w.doc, w.eval, w.anchor, w.including
	if w.anchor == nil {
		w.anchor = &lines
	}
	w.doc, w.eval = doc, eval
	w.including = append(w.including, key)
	children := w.children(doc.Root)
	w.doc, w.eval, w.anchor, w.including = prevDoc, prevEval, prevAnchor, prevIncluding

	return &renderable.Tag{Children: children}
}

func withVariables(parent *hcl.EvalContext, extra map[string]any) *hcl.EvalContext {
	vars := maps.Clone(parent.Variables)
	if vars == nil {
		vars = make(map[string]cty.Value, len(extra))
	}
	maps.Copy(vars, expr.ObjectOf(extra))
	return &hcl.EvalContext{Variables: vars, Functions: parent.Functions}
}
