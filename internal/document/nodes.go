package document

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/escape"
	"git.home.luguber.info/inful/markweave/internal/renderable"
)

// Node kinds that a nodes fragment may override, named as in Markdoc.
const (
	NodeDocument   = "document"
	NodeHeading    = "heading"
	NodeParagraph  = "paragraph"
	NodeInline     = "inline"
	NodeHr         = "hr"
	NodeBlockquote = "blockquote"
	NodeFence      = "fence"
	NodeList       = "list"
	NodeItem       = "item"
	NodeStrong     = "strong"
	NodeEm         = "em"
	NodeStrike     = "s"
	NodeCode       = "code"
	NodeLink       = "link"
	NodeImage      = "image"
	NodeText       = "text"
	NodeHardbreak  = "hardbreak"
	NodeTable      = "table"
	NodeThead      = "thead"
	NodeTbody      = "tbody"
	NodeTr         = "tr"
	NodeTh         = "th"
	NodeTd         = "td"
)

func (w *walker) node(n gmast.Node) renderable.Node {
	src := w.doc.Source
	switch n := n.(type) {
	case *gmast.Document:
		return w.wrap(n, NodeDocument, "article", nil, nil, w.children(n))
	case *gmast.Heading:
		return w.wrap(n, NodeHeading, "h"+strconv.Itoa(n.Level), nil,
			map[string]any{"level": n.Level}, w.children(n))
	case *gmast.Paragraph, *ast.MarkerLine:
		return w.wrap(n, NodeParagraph, "p", nil, nil, w.children(n))
	case *gmast.TextBlock:
		return w.wrap(n, NodeInline, "", nil, nil, w.children(n))
	case *gmast.ThematicBreak:
		return w.wrap(n, NodeHr, "hr", nil, nil, nil)
	case *gmast.Blockquote:
		return w.wrap(n, NodeBlockquote, "blockquote", nil, nil, w.children(n))
	case *gmast.FencedCodeBlock:
		return w.fence(n, string(n.Language(src)))
	case *gmast.CodeBlock:
		return w.fence(n, "")
	case *gmast.HTMLBlock:
		content := linesContent(n.Lines(), src)
		if n.HasClosure() {
			content += string(n.ClosureLine.Value(src))
		}
		return renderable.Text(escape.TemplateSyntax(content))
	case *gmast.List:
		return w.list(n)
	case *gmast.ListItem:
		return w.wrap(n, NodeItem, "li", nil, nil, w.children(n))
	case *gmast.Emphasis:
		if n.Level >= 2 {
			return w.wrap(n, NodeStrong, "strong", nil, nil, w.children(n))
		}
		return w.wrap(n, NodeEm, "em", nil, nil, w.children(n))
	case *gmast.CodeSpan:
		return w.codeSpan(n)
	case *gmast.Link:
		return w.link(n, string(n.Destination), string(n.Title), w.children(n))
	case *gmast.AutoLink:
		label := renderable.Text(escape.TemplateSyntax(string(n.Label(src))))
		return w.link(n, string(n.URL(src)), "", label)
	case *gmast.Image:
		return w.image(n)
	case *gmast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(src))
		}
		return renderable.Text(escape.TemplateSyntax(b.String()))
	case *gmast.Text:
		return w.text(n)
	case *gmast.String:
		return renderable.Text(escape.TemplateSyntax(string(n.Value)))
	case *east.Table:
		return w.table(n)
	case *east.Strikethrough:
		return w.wrap(n, NodeStrike, "s", nil, nil, w.children(n))
	case *ast.TagMarker:
		// Markers are consumed by group.
		return nil
	default:
		return &renderable.Tag{Children: w.children(n)}
	}
}

// wrap builds the element for a node of the given kind. A configured node
// replaces the element name and sees only the attributes it declares, taken
// from intrinsic or their defaults. A configured node that declares no
// attributes receives every intrinsic attribute.
func (w *walker) wrap(n gmast.Node, kind, name string, attrs []renderable.Attribute, intrinsic map[string]any, children renderable.Node) renderable.Node {
	name, attrs = w.element(n, kind, name, attrs, intrinsic)
	t := &renderable.Tag{Name: name, Attributes: attrs}
	if c, ok := children.(renderable.Nodes); !ok || len(c) > 0 {
		t.Children = children
	}
	return t
}

func (w *walker) element(n gmast.Node, kind, name string, attrs []renderable.Attribute, intrinsic map[string]any) (string, []renderable.Attribute) {
	s, ok := w.cfg.Nodes[kind]
	if !ok {
		return name, attrs
	}
	if s.Render != "" {
		name = s.Render
	}

	var out []renderable.Attribute
	if len(s.Attributes) == 0 {
		for _, k := range slices.Sorted(maps.Keys(intrinsic)) {
			if v := intrinsic[k]; v != nil {
				out = append(out, renderable.Attribute{Name: k, Value: v})
			}
		}
		return name, out
	}
	for _, k := range slices.Sorted(maps.Keys(s.Attributes)) {
		decl := s.Attributes[k]
		if v, ok := intrinsic[k]; ok && v != nil {
			out = append(out, renderable.Attribute{Name: k, Value: v})
			continue
		}
		switch {
		case decl.Default != nil:
			out = append(out, renderable.Attribute{Name: k, Value: decl.Default})
		case decl.Required:
			w.report(w.lines(n, nil), KindNode, IDAttributeMissingRequired, "Missing required attribute: '%s'", k)
		}
	}
	return name, out
}

func (w *walker) text(n *gmast.Text) renderable.Node {
	raw := n.Segment.Value(w.doc.Source)
	if !n.IsRaw() {
		raw = util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(raw)))
	}
	var out renderable.Node = renderable.Text(escape.TemplateSyntax(string(raw)))
	if s, ok := w.cfg.Nodes[NodeText]; ok && s.Render != "" {
		out = w.wrap(n, NodeText, "", nil, map[string]any{"content": string(raw)}, out)
	}

	switch {
	case n.HardLineBreak():
		return renderable.Nodes{out, w.wrap(n, NodeHardbreak, "br", nil, nil, nil)}
	case n.SoftLineBreak():
		if t, ok := out.(renderable.Text); ok {
			return t + " "
		}
		return renderable.Nodes{out, renderable.Text(" ")}
	}
	return out
}

// fence renders code blocks. Content stays raw for pre and code, which the
// renderer escapes itself; any other element gets escaped text.
func (w *walker) fence(n gmast.Node, language string) renderable.Node {
	content := linesContent(n.Lines(), w.doc.Source)
	var attrs []renderable.Attribute
	intrinsic := map[string]any{"content": content}
	if language != "" {
		attrs = []renderable.Attribute{{Name: "data-language", Value: language}}
		intrinsic["language"] = language
	}
	name, attrs := w.element(n, NodeFence, "pre", attrs, intrinsic)
	return &renderable.Tag{Name: name, Attributes: attrs, Children: codeContent(name, content)}
}

func (w *walker) codeSpan(n *gmast.CodeSpan) renderable.Node {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *gmast.Text:
			b.Write(c.Segment.Value(w.doc.Source))
		case *gmast.String:
			b.Write(c.Value)
		}
	}
	content := strings.ReplaceAll(b.String(), "\n", " ")
	name, attrs := w.element(n, NodeCode, "code", nil, map[string]any{"content": content})
	return &renderable.Tag{Name: name, Attributes: attrs, Children: codeContent(name, content)}
}

func codeContent(name, content string) renderable.Node {
	if name == "pre" || name == "code" {
		return renderable.Text(content)
	}
	return renderable.Text(escape.TemplateSyntax(content))
}

func (w *walker) list(n *gmast.List) renderable.Node {
	name := "ul"
	var attrs []renderable.Attribute
	intrinsic := map[string]any{"ordered": n.IsOrdered()}
	if n.IsOrdered() {
		name = "ol"
		if n.Start != 1 {
			attrs = []renderable.Attribute{{Name: "start", Value: n.Start}}
			intrinsic["start"] = n.Start
		}
	}
	return w.wrap(n, NodeList, name, attrs, intrinsic, w.children(n))
}

func (w *walker) link(n gmast.Node, href, title string, children renderable.Node) renderable.Node {
	attrs := []renderable.Attribute{{Name: "href", Value: href}}
	intrinsic := map[string]any{"href": href}
	if title != "" {
		attrs = append(attrs, renderable.Attribute{Name: "title", Value: title})
		intrinsic["title"] = title
	}
	return w.wrap(n, NodeLink, "a", attrs, intrinsic, children)
}

func (w *walker) image(n *gmast.Image) renderable.Node {
	src := string(n.Destination)
	alt := plainText(n, w.doc.Source)
	attrs := []renderable.Attribute{{Name: "src", Value: src}, {Name: "alt", Value: alt}}
	intrinsic := map[string]any{"src": src, "alt": alt}
	if len(n.Title) > 0 {
		attrs = append(attrs, renderable.Attribute{Name: "title", Value: string(n.Title)})
		intrinsic["title"] = string(n.Title)
	}
	return w.wrap(n, NodeImage, "img", attrs, intrinsic, nil)
}

func (w *walker) table(n *east.Table) renderable.Node {
	var head, body renderable.Nodes
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *east.TableHeader:
			row := w.wrap(c, NodeTr, "tr", nil, nil, w.cells(c, NodeTh, "th"))
			head = append(head, row)
		case *east.TableRow:
			body = append(body, w.wrap(c, NodeTr, "tr", nil, nil, w.cells(c, NodeTd, "td")))
		}
	}

	var parts renderable.Nodes
	if len(head) > 0 {
		parts = append(parts, w.wrap(n, NodeThead, "thead", nil, nil, head))
	}
	if len(body) > 0 {
		parts = append(parts, w.wrap(n, NodeTbody, "tbody", nil, nil, body))
	}
	return w.wrap(n, NodeTable, "table", nil, nil, parts)
}

func (w *walker) cells(row gmast.Node, kind, name string) renderable.Nodes {
	var out renderable.Nodes
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			continue
		}
		var attrs []renderable.Attribute
		intrinsic := map[string]any{}
		if cell.Alignment != east.AlignNone {
			attrs = []renderable.Attribute{{Name: "align", Value: cell.Alignment.String()}}
			intrinsic["align"] = cell.Alignment.String()
		}
		out = append(out, w.wrap(cell, kind, name, attrs, intrinsic, w.children(cell)))
	}
	return out
}

func linesContent(lines *text.Segments, src []byte) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// plainText returns the text content of n, as used for image alt text.
func plainText(n gmast.Node, src []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *gmast.Text:
			b.Write(util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(c.Segment.Value(src)))))
		case *gmast.String:
			b.Write(c.Value)
		}
		return gmast.WalkContinue, nil
	})
	return b.String()
}
