// Package render serializes a renderable tree into Svelte-safe markup.
package render

import (
	"strings"

	"git.home.luguber.info/inful/markweave/internal/escape"
	"git.home.luguber.info/inful/markweave/internal/renderable"
	"git.home.luguber.info/inful/markweave/internal/util/sets"
)

// VoidElements are the HTML elements that never have content or a closing tag.
// https://html.spec.whatwg.org/#void-elements
var VoidElements = sets.New(
	"area", "base", "br", "col", "embed", "hr", "img",
	"input", "link", "meta", "source", "track", "wbr",
)

const (
	codeElement = "code"
	preElement  = "pre"
)

// Render converts a node into markup. It never fails: unexpected shapes
// render as the empty string.
func Render(node renderable.Node) string {
	var b strings.Builder
	write(&b, node)
	return b.String()
}

func write(b *strings.Builder, node renderable.Node) {
	switch n := node.(type) {
	case renderable.Text:
		b.WriteString(string(n))
	case renderable.Nodes:
		for _, child := range n {
			write(b, child)
		}
	case *renderable.Tag:
		if n == nil {
			return
		}
		writeTag(b, n)
	}
}

func writeTag(b *strings.Builder, tag *renderable.Tag) {
	if tag.Name == "" {
		write(b, tag.Children)
		return
	}

	b.WriteByte('<')
	b.WriteString(tag.Name)
	for _, attr := range tag.Attributes {
		b.WriteByte(' ')
		b.WriteString(attr.Name)
		b.WriteString(`="`)
		b.WriteString(escape.HostMarkup(renderable.Stringify(attr.Value)))
		b.WriteByte('"')
	}

	if VoidElements.Has(tag.Name) {
		b.WriteString(" />")
		return
	}

	b.WriteByte('>')
	if hasContent(tag.Children) {
		switch tag.Name {
		case codeElement:
			b.WriteString(verbatim(tag.Children))
		case preElement:
			b.WriteString("<code>")
			b.WriteString(verbatim(tag.Children))
			b.WriteString("</code>")
		default:
			write(b, tag.Children)
		}
	}
	b.WriteString("</")
	b.WriteString(tag.Name)
	b.WriteByte('>')
}

// hasContent reports whether children should be emitted between the tags.
// Scalar numbers and booleans count as no content.
func hasContent(children renderable.Node) bool {
	switch c := children.(type) {
	case nil, renderable.Number, renderable.Bool:
		return false
	case renderable.Text:
		return c != ""
	case renderable.Nodes:
		return len(c) > 0
	case *renderable.Tag:
		return c != nil
	default:
		return false
	}
}

// verbatim joins code contents without structural rendering. Newlines inside
// sequence elements are dropped and elements are joined with newlines.
func verbatim(children renderable.Node) string {
	switch c := children.(type) {
	case renderable.Text:
		return escape.TemplateSyntax(string(c))
	case renderable.Nodes:
		parts := make([]string, len(c))
		for i, child := range c {
			s := strings.ReplaceAll(renderable.Stringify(child), "\n", "")
			parts[i] = escape.TemplateSyntax(s)
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
