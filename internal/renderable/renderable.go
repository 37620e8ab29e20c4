// Package renderable defines the tree produced by the document transformer and
// consumed by the renderer.
package renderable

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Node is one of Text, Number, Bool, Nodes or *Tag. A nil Node is the null
// shape and renders as nothing.
type Node interface {
	isNode()
}

// Text is an already escaped string scalar.
type Text string

// Number is a numeric scalar.
type Number float64

// Bool is a boolean scalar.
type Bool bool

// Nodes is an ordered sequence of nodes.
type Nodes []Node

// Attribute is a single name/value pair on a Tag.
type Attribute struct {
	Name  string
	Value any
}

// Tag is a structured node. A Tag with an empty Name renders exactly its
// children. Attributes keep insertion order.
type Tag struct {
	Name       string
	Attributes []Attribute
	Children   Node
}

func (Text) isNode()   {}
func (Number) isNode() {}
func (Bool) isNode()   {}
func (Nodes) isNode()  {}
func (*Tag) isNode()   {}

// NewTag builds a tag whose children are the given nodes.
func NewTag(name string, attrs []Attribute, children ...Node) *Tag {
	t := &Tag{Name: name, Attributes: attrs}
	if len(children) > 0 {
		t.Children = Nodes(children)
	}
	return t
}

// Attr returns the value of the named attribute.
func (t *Tag) Attr(name string) (any, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// ChildNodes returns the children as a sequence. A single non-sequence child
// is returned as a one-element slice.
func (t *Tag) ChildNodes() Nodes {
	switch c := t.Children.(type) {
	case nil:
		return nil
	case Nodes:
		return c
	default:
		return Nodes{c}
	}
}

// Stringify returns the string form of an attribute value or a node, the way
// a template engine would print it.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case Text:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case Bool:
		return strconv.FormatBool(bool(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case Number:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, ",")
	case Nodes:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	case *Tag:
		return "[object Object]"
	default:
		return fmt.Sprint(x)
	}
}
