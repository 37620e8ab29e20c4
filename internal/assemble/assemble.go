// Package assemble merges configuration fragments into the final
// configuration used for validation, transformation and rendering.
package assemble

import (
	"git.home.luguber.info/inful/markweave/internal/ast"
	"git.home.luguber.info/inful/markweave/internal/schema"
)

// FrontmatterKey is the reserved variable that always holds the decoded
// frontmatter of the document being processed.
const FrontmatterKey = "frontmatter"

// Sources are the fragments that make up a final configuration, in
// increasing precedence.
type Sources struct {
	// Schema is what the schema directory provided.
	Schema schema.Fragment
	// Direct holds overrides supplied by the caller.
	Direct schema.Fragment
	// SchemaPartials are the partials found beneath the schema directory.
	SchemaPartials map[string]*ast.Document
	// ExplicitPartials are the partials from an explicitly configured directory.
	ExplicitPartials map[string]*ast.Document
	// Derived is the decoded frontmatter.
	Derived map[string]any
}

// Merge combines layers key by key. A later layer replaces a key from an
// earlier one entirely. The result is never nil.
func Merge[V any](layers ...map[string]V) map[string]V {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	out := make(map[string]V, n)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Assemble builds the final configuration. Every map of the result is
// non-nil, and variables always contain the frontmatter under FrontmatterKey.
func Assemble(src Sources) *schema.Fragment {
	derived := src.Derived
	if derived == nil {
		derived = map[string]any{}
	}

	vars := Merge(src.Schema.Variables, src.Direct.Variables)
	vars[FrontmatterKey] = derived

	return &schema.Fragment{
		Nodes:     Merge(src.Schema.Nodes, src.Direct.Nodes),
		Tags:      Merge(src.Schema.Tags, src.Direct.Tags),
		Functions: Merge(src.Schema.Functions, src.Direct.Functions),
		Variables: vars,
		Partials:  Merge(src.SchemaPartials, src.ExplicitPartials),
	}
}
