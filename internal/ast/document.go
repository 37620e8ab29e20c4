// Package ast holds the parsed form of a Markdoc document: the goldmark tree of
// its body plus the tag markers found inline.
package ast

import (
	"bytes"

	gmast "github.com/yuin/goldmark/ast"
)

// Document is one parsed source document.
type Document struct {
	// Filename is the path the document was read from, if any.
	Filename string
	// Source is the body after the frontmatter block. All goldmark segments
	// index into it.
	Source []byte
	// Frontmatter is the decoded frontmatter. It is never nil.
	Frontmatter map[string]any
	// RawFrontmatter is the YAML between the delimiters.
	RawFrontmatter string
	// HasFrontmatter reports whether the document opened with a frontmatter block.
	HasFrontmatter bool
	// LineOffset is the number of lines that precede Source in the file.
	LineOffset int
	// Root is the goldmark document node.
	Root gmast.Node
}

// Line maps a byte offset in Source to a 1-based line in the original file.
func (d *Document) Line(offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Source) {
		offset = len(d.Source)
	}
	return d.LineOffset + bytes.Count(d.Source[:offset], []byte("\n")) + 1
}

// Lines returns the 1-based line range covered by n. Nodes without their own
// position take it from their first positioned descendant.
func (d *Document) Lines(n gmast.Node) (int, int) {
	start, end, ok := d.span(n)
	if !ok {
		return d.LineOffset + 1, d.LineOffset + 1
	}
	return d.Line(start), d.Line(max(start, end-1))
}

func (d *Document) span(n gmast.Node) (int, int, bool) {
	if n == nil {
		return 0, 0, false
	}
	if m, ok := n.(*TagMarker); ok {
		return m.Start, m.Stop, true
	}
	if t, ok := n.(*gmast.Text); ok {
		return t.Segment.Start, t.Segment.Stop, true
	}
	if n.Type() == gmast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, lines.At(lines.Len() - 1).Stop, true
		}
	}

	start, end, found := 0, 0, false
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s, e, ok := d.span(c)
		if !ok {
			continue
		}
		if !found {
			start, found = s, true
		}
		end = e
	}
	return start, end, found
}
