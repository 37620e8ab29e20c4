package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmast "github.com/yuin/goldmark/ast"
)

func TestTagMarker_IsInlineNode(t *testing.T) {
	m := &TagMarker{Shape: MarkerOpen, Name: "callout"}
	para := gmast.NewParagraph()
	para.AppendChild(para, m)

	assert.Equal(t, KindTagMarker, m.Kind())
	assert.Equal(t, gmast.TypeInline, m.Type())
	assert.Same(t, para, m.Parent())
	assert.Empty(t, m.Attributes(), "goldmark attributes stay separate from marker attributes")
}

func TestTagMarker_Lookup(t *testing.T) {
	m := &TagMarker{Attrs: []MarkerAttribute{{Name: PrimaryAttribute, Raw: "$x"}, {Name: "file", Raw: `"a.md"`}}}

	a, ok := m.Lookup("file")
	require.True(t, ok)
	assert.Equal(t, `"a.md"`, a.Raw)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestMarkerLine_IsBlockNode(t *testing.T) {
	n := NewMarkerLine()

	assert.Equal(t, KindMarkerLine, n.Kind())
	assert.Equal(t, gmast.TypeBlock, n.Type())
	assert.False(t, n.IsRaw())
}

func TestDocument_LinesOfMarker(t *testing.T) {
	src := []byte("a\n{% x %}\n")
	doc := &Document{Source: src, LineOffset: 3}
	m := &TagMarker{Start: 2, Stop: 9}

	start, end := doc.Lines(m)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}
