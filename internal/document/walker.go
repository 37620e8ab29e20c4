package document

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/escape"
	"git.home.luguber.info/inful/markweave/internal/expr"
	"git.home.luguber.info/inful/markweave/internal/renderable"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

// Validate checks doc against cfg and returns every finding in document
// order. It never fails; an empty result means the document is clean.
func Validate(doc *ast.Document, cfg *schema.Fragment) []validation.Error {
	w := newWalker(doc, cfg)
	w.document()
	return w.errs
}

// Transform builds the renderable tree of doc. Constructs that Validate
// would report render as little as possible.
func Transform(doc *ast.Document, cfg *schema.Fragment) renderable.Node {
	return newWalker(doc, cfg).document()
}

type walker struct {
	cfg  *schema.Fragment
	eval *hcl.EvalContext
	doc  *ast.Document
	errs []validation.Error

	// including holds the partials being expanded, outermost first.
	including []string
	// anchor is the line range of the outermost partial marker. Findings
	// inside partials are reported there.
	anchor *validation.Range
}

func newWalker(doc *ast.Document, cfg *schema.Fragment) *walker {
	if cfg == nil {
		cfg = &schema.Fragment{}
	}
	return &walker{cfg: cfg, doc: doc, eval: newEvalContext(cfg.Variables, cfg.Functions)}
}

func newEvalContext(vars map[string]any, fns map[string]schema.Function) *hcl.EvalContext {
	ctx := &hcl.EvalContext{Variables: expr.ObjectOf(vars), Functions: expr.Stdlib()}
	for name, fn := range fns {
		if fn.Result == nil {
			continue
		}
		ctx.Functions[name] = expr.UserFunction(fn.Params, fn.Result, func() *hcl.EvalContext { return ctx })
	}
	return ctx
}

func (w *walker) document() renderable.Node {
	if w.doc == nil || w.doc.Root == nil {
		return renderable.NewTag("article", nil)
	}
	return w.node(w.doc.Root)
}

func (w *walker) report(lines validation.Range, kind, id, format string, args ...any) {
	if w.anchor != nil {
		lines = *w.anchor
	}
	w.errs = append(w.errs, validation.Error{
		Kind:     kind,
		ID:       id,
		Lines:    lines,
		Severity: SeverityOf(id),
		Message:  fmt.Sprintf(format, args...),
	})
}

func (w *walker) lines(n, closer gmast.Node) validation.Range {
	start, end := w.doc.Lines(n)
	if closer != nil {
		_, end = w.doc.Lines(closer)
	}
	return validation.Range{Start: start, End: end}
}

// item is a sibling node or a tag marker with the siblings it encloses.
type item struct {
	node     gmast.Node
	marker   *ast.TagMarker
	closer   gmast.Node
	children []*item
}

// markerOf returns the marker n stands for: n itself, or the single tag
// marker of a paragraph or marker line that holds nothing else.
func (w *walker) markerOf(n gmast.Node) *ast.TagMarker {
	switch n := n.(type) {
	case *ast.TagMarker:
		return n
	case *gmast.Paragraph, *ast.MarkerLine:
		var found *ast.TagMarker
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if m, ok := c.(*ast.TagMarker); ok && found == nil && m.Shape != ast.MarkerExpression {
				found = m
				continue
			}
			if t, ok := c.(*gmast.Text); ok && len(bytes.TrimSpace(t.Segment.Value(w.doc.Source))) == 0 {
				continue
			}
			return nil
		}
		return found
	}
	return nil
}

// group pairs open and close markers among the children of parent.
func (w *walker) group(parent gmast.Node) []*item {
	root := &item{}
	stack := []*item{root}
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		top := stack[len(stack)-1]
		m := w.markerOf(c)
		if m == nil {
			top.children = append(top.children, &item{node: c})
			continue
		}

		switch m.Shape {
		case ast.MarkerOpen:
			it := &item{node: c, marker: m}
			top.children = append(top.children, it)
			stack = append(stack, it)
		case ast.MarkerClose:
			j := len(stack) - 1
			for j > 0 && stack[j].marker.Name != m.Name {
				j--
			}
			if j == 0 {
				w.report(w.lines(c, nil), KindTag, IDMissingOpening, "Node '%s' is missing opening", m.Name)
				continue
			}
			for _, open := range stack[j+1:] {
				w.unclosed(open)
			}
			stack[j].closer = c
			stack = stack[:j]
		default:
			top.children = append(top.children, &item{node: c, marker: m})
		}
	}
	for _, open := range stack[1:] {
		w.unclosed(open)
	}
	return root.children
}

func (w *walker) unclosed(it *item) {
	w.report(w.lines(it.node, nil), KindTag, IDMissingClosing, "Node '%s' is missing closing", it.marker.Name)
}

func (w *walker) children(parent gmast.Node) renderable.Nodes {
	return w.items(w.group(parent))
}

func (w *walker) items(items []*item) renderable.Nodes {
	out := make(renderable.Nodes, 0, len(items))
	for _, it := range items {
		n := w.item(it)
		if n == nil {
			continue
		}
		// Adjacent text runs are joined so a heading keeps one title.
		if t, ok := n.(renderable.Text); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(renderable.Text); ok {
				out[len(out)-1] = prev + t
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func (w *walker) item(it *item) renderable.Node {
	m := it.marker
	if m == nil {
		return w.node(it.node)
	}
	lines := w.lines(it.node, it.closer)
	switch m.Shape {
	case ast.MarkerInvalid:
		w.report(lines, KindTag, IDSyntaxError, "Invalid tag syntax {%%%s%%}: %v", m.Raw, m.Err)
		return nil
	case ast.MarkerExpression:
		return w.expression(m.Expression, lines)
	default:
		return w.tag(it, lines)
	}
}

func (w *walker) expression(e hclsyntax.Expression, lines validation.Range) renderable.Node {
	v, ok := w.evaluate(e, lines)
	if !ok || v == nil {
		return nil
	}
	return renderable.Text(escape.TemplateSyntax(renderable.Stringify(v)))
}

// evaluate resolves e in the current context. Undefined names and evaluation
// failures are reported and yield ok=false.
func (w *walker) evaluate(e hclsyntax.Expression, lines validation.Range) (any, bool) {
	for _, name := range expr.FunctionCalls(e) {
		if _, ok := w.eval.Functions[name]; !ok {
			w.report(lines, KindFunction, IDFunctionUndefined, "Undefined function: '%s'", name)
			return nil, false
		}
	}
	for _, name := range expr.RootVariables(e) {
		if _, ok := w.eval.Variables[name]; !ok {
			w.report(lines, KindVariable, IDVariableUndefined, "Undefined variable: '%s'", name)
			return nil, false
		}
	}

	val, diags := e.Value(w.eval)
	if diags.HasErrors() {
		w.report(lines, KindTag, IDExpressionInvalid, "Invalid expression: %s", diagSummary(diags))
		return nil, false
	}
	v, err := expr.FromCty(val)
	if err != nil {
		w.report(lines, KindTag, IDExpressionInvalid, "Invalid expression: %v", err)
		return nil, false
	}
	return v, true
}

func diagSummary(diags hcl.Diagnostics) string {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if d.Detail != "" {
			return d.Summary + "; " + d.Detail
		}
		return d.Summary
	}
	return diags.Error()
}

// truthy follows Markdoc: everything except false and null is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}
