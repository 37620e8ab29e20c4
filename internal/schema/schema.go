// Package schema describes configuration fragments (nodes, tags, variables
// and functions) and loads them from a schema directory.
package schema

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/expr"
)

// Kind names one of the fragment files a schema directory may provide.
type Kind string

const (
	KindNodes     Kind = "nodes"
	KindTags      Kind = "tags"
	KindVariables Kind = "variables"
	KindFunctions Kind = "functions"
)

// Kinds lists every loadable kind.
var Kinds = []Kind{KindNodes, KindTags, KindVariables, KindFunctions}

// Attribute types understood by Attribute.Accepts.
const (
	TypeAny     = "any"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Attribute declares one attribute of a tag or node.
type Attribute struct {
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Matches     []any  `yaml:"matches,omitempty" json:"matches,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Schema declares how a tag or node is rendered.
type Schema struct {
	// Render is the element or component name. Empty renders only children.
	Render      string               `yaml:"render,omitempty" json:"render,omitempty"`
	SelfClosing bool                 `yaml:"self_closing,omitempty" json:"self_closing,omitempty"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	Attributes  map[string]Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Function is a user-defined function whose result is an expression over its
// parameters.
type Function struct {
	Params []string
	Source string
	Result hcl.Expression
}

// Fragment is one source of configuration. A nil map means the source did not
// provide that part at all.
type Fragment struct {
	Nodes     map[string]Schema
	Tags      map[string]Schema
	Functions map[string]Function
	Variables map[string]any
	Partials  map[string]*ast.Document
}

// NormalizedType returns the attribute type in lower case, defaulting to any.
func (a Attribute) NormalizedType() string {
	t := strings.ToLower(strings.TrimSpace(a.Type))
	if t == "" {
		return TypeAny
	}
	return t
}

// Accepts reports whether v has the declared type.
func (a Attribute) Accepts(v any) bool {
	switch a.NormalizedType() {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

// Allows reports whether v is one of the Matches values. An attribute
// without Matches allows anything.
func (a Attribute) Allows(v any) bool {
	if len(a.Matches) == 0 {
		return true
	}
	got := fmt.Sprint(v)
	for _, m := range a.Matches {
		if fmt.Sprint(m) == got {
			return true
		}
	}
	return false
}

// NewFunction parses a Markdoc-style result expression.
func NewFunction(params []string, source, filename string) (Function, error) {
	e, diags := expr.Parse(source, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return Function{}, fmt.Errorf("parse function result %q: %w", source, diags)
	}
	return Function{Params: params, Source: source, Result: e}, nil
}

// UnmarshalYAML decodes {params: [...], result: "expr"}.
func (f *Function) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Params []string `yaml:"params"`
		Result string   `yaml:"result"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.Result) == "" {
		return fmt.Errorf("line %d: function result is required", value.Line)
	}
	fn, err := NewFunction(raw.Params, raw.Result, "")
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = fn
	return nil
}
