package ast

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	gmast "github.com/yuin/goldmark/ast"
)

// KindTagMarker is the goldmark node kind of a {% ... %} marker.
var KindTagMarker = gmast.NewNodeKind("TagMarker")

// MarkerType distinguishes the shapes a marker can take.
type MarkerType int

const (
	MarkerOpen MarkerType = iota
	MarkerClose
	MarkerSelfClosing
	MarkerExpression
	MarkerInvalid
)

func (t MarkerType) String() string {
	switch t {
	case MarkerOpen:
		return "open"
	case MarkerClose:
		return "close"
	case MarkerSelfClosing:
		return "self-closing"
	case MarkerExpression:
		return "expression"
	default:
		return "invalid"
	}
}

// PrimaryAttribute is the attribute name given to a value written right after
// the tag name, as in {% if $x %}.
const PrimaryAttribute = "primary"

// MarkerAttribute is a name=value pair on an open or self-closing marker.
type MarkerAttribute struct {
	Name  string
	Value hclsyntax.Expression
	Raw   string
}

// TagMarker is an inline node for one {% ... %} marker.
type TagMarker struct {
	gmast.BaseInline

	Shape MarkerType
	Name  string
	Attrs []MarkerAttribute
	// Expression is set for MarkerExpression.
	Expression hclsyntax.Expression
	// Raw is the marker text between the delimiters.
	Raw string
	// Start and Stop are byte offsets of the whole marker in the document source.
	Start, Stop int
	// Err is set when the marker could not be parsed. Shape is MarkerInvalid.
	Err error
}

var (
	_ gmast.Node = (*TagMarker)(nil)
	_ gmast.Node = (*MarkerLine)(nil)
)

// Kind implements gmast.Node.
func (m *TagMarker) Kind() gmast.NodeKind { return KindTagMarker }

// Dump implements gmast.Node.
func (m *TagMarker) Dump(source []byte, level int) {
	gmast.DumpHelper(m, source, level, map[string]string{
		"Shape": m.Shape.String(),
		"Name":  m.Name,
		"Raw":   fmt.Sprintf("%q", m.Raw),
	}, nil)
}

// Lookup returns the named marker attribute.
func (m *TagMarker) Lookup(name string) (MarkerAttribute, bool) {
	for _, a := range m.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return MarkerAttribute{}, false
}

// KindMarkerLine is the goldmark node kind of a line holding a single marker.
var KindMarkerLine = gmast.NewNodeKind("MarkerLine")

// MarkerLine is a block for a line that holds exactly one {% ... %} marker,
// so the marker can interrupt a paragraph or end a list. Its inline content
// is the marker itself.
type MarkerLine struct {
	gmast.BaseBlock
}

// NewMarkerLine returns an empty MarkerLine.
func NewMarkerLine() *MarkerLine { return &MarkerLine{} }

// Kind implements gmast.Node.
func (n *MarkerLine) Kind() gmast.NodeKind { return KindMarkerLine }

// Dump implements gmast.Node.
func (n *MarkerLine) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, nil, nil)
}
