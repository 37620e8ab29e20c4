package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/markweave/internal/expr"
)

type tagsFile struct {
	Items []schemaBlock `hcl:"tag,block"`
}

type nodesFile struct {
	Items []schemaBlock `hcl:"node,block"`
}

type schemaBlock struct {
	Name        string           `hcl:"name,label"`
	Render      *string          `hcl:"render,optional"`
	SelfClosing *bool            `hcl:"self_closing,optional"`
	Description *string          `hcl:"description,optional"`
	Attributes  []attributeBlock `hcl:"attribute,block"`
}

type attributeBlock struct {
	Name        string         `hcl:"name,label"`
	Type        *string        `hcl:"type,optional"`
	Required    *bool          `hcl:"required,optional"`
	Description *string        `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Matches     hcl.Expression `hcl:"matches,optional"`
}

type functionsFile struct {
	Functions []functionBlock `hcl:"function,block"`
}

type functionBlock struct {
	Name   string         `hcl:"name,label"`
	Params []string       `hcl:"params,optional"`
	Result hcl.Expression `hcl:"result"`
}

// Decode parses fragment source of the given kind. The format is chosen by
// the file extension of filename: .hcl, .yaml or .yml.
func Decode(kind Kind, filename string, src []byte) (any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return decodeHCL(kind, filename, src)
	case ".yaml", ".yml":
		return decodeYAML(kind, src)
	default:
		return nil, fmt.Errorf("unsupported fragment format %q", filepath.Ext(filename))
	}
}

func staticContext() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: expr.Stdlib()}
}

func decodeHCL(kind Kind, filename string, src []byte) (any, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	switch kind {
	case KindTags:
		var f tagsFile
		if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
			return nil, diags
		}
		return schemasFromBlocks(f.Items)
	case KindNodes:
		var f nodesFile
		if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
			return nil, diags
		}
		return schemasFromBlocks(f.Items)
	case KindFunctions:
		var f functionsFile
		if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
			return nil, diags
		}
		out := make(map[string]Function, len(f.Functions))
		for _, b := range f.Functions {
			out[b.Name] = Function{
				Params: b.Params,
				Source: string(bytes.TrimSpace(b.Result.Range().SliceBytes(src))),
				Result: b.Result,
			}
		}
		return out, nil
	case KindVariables:
		attrs, diags := file.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		ctx := staticContext()
		out := make(map[string]any, len(attrs))
		for name, attr := range attrs {
			v, diags := attr.Expr.Value(ctx)
			if diags.HasErrors() {
				return nil, diags
			}
			native, err := expr.FromCty(v)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			out[name] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown fragment kind %q", kind)
	}
}

func schemasFromBlocks(blocks []schemaBlock) (map[string]Schema, error) {
	ctx := staticContext()
	out := make(map[string]Schema, len(blocks))
	for _, b := range blocks {
		s := Schema{
			Render:      deref(b.Render),
			SelfClosing: deref(b.SelfClosing),
			Description: deref(b.Description),
		}
		if len(b.Attributes) > 0 {
			s.Attributes = make(map[string]Attribute, len(b.Attributes))
		}
		for _, a := range b.Attributes {
			attr := Attribute{
				Type:        deref(a.Type),
				Required:    deref(a.Required),
				Description: deref(a.Description),
			}
			def, err := staticValue(ctx, a.Default)
			if err != nil {
				return nil, fmt.Errorf("%s.%s default: %w", b.Name, a.Name, err)
			}
			attr.Default = def
			matches, err := staticValue(ctx, a.Matches)
			if err != nil {
				return nil, fmt.Errorf("%s.%s matches: %w", b.Name, a.Name, err)
			}
			if matches != nil {
				list, ok := matches.([]any)
				if !ok {
					return nil, fmt.Errorf("%s.%s matches: expected a list", b.Name, a.Name)
				}
				attr.Matches = list
			}
			s.Attributes[a.Name] = attr
		}
		out[b.Name] = s
	}
	return out, nil
}

func staticValue(ctx *hcl.EvalContext, e hcl.Expression) (any, error) {
	if e == nil {
		return nil, nil
	}
	v, diags := e.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	return expr.FromCty(v)
}

func decodeYAML(kind Kind, src []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var err error
	var out any
	switch kind {
	case KindTags, KindNodes:
		m := map[string]Schema{}
		err = dec.Decode(&m)
		out = m
	case KindFunctions:
		m := map[string]Function{}
		err = dec.Decode(&m)
		out = m
	case KindVariables:
		m := map[string]any{}
		err = dec.Decode(&m)
		out = m
	default:
		return nil, fmt.Errorf("unknown fragment kind %q", kind)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
