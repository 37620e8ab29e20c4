package expr

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Stdlib returns a fresh copy of the built-in function table. Names follow the
// HCL ecosystem, plus the Markdoc built-ins equals, and, or, not and default.
func Stdlib() map[string]function.Function {
	return map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"ceil":       stdlib.CeilFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"concat":     stdlib.ConcatFunc,
		"contains":   stdlib.ContainsFunc,
		"distinct":   stdlib.DistinctFunc,
		"flatten":    stdlib.FlattenFunc,
		"floor":      stdlib.FloorFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"keys":       stdlib.KeysFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"merge":      stdlib.MergeFunc,
		"min":        stdlib.MinFunc,
		"replace":    stdlib.ReplaceFunc,
		"reverse":    stdlib.ReverseFunc,
		"sort":       stdlib.SortFunc,
		"split":      stdlib.SplitFunc,
		"strlen":     stdlib.StrlenFunc,
		"substr":     stdlib.SubstrFunc,
		"title":      stdlib.TitleFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
		"values":     stdlib.ValuesFunc,

		"equals":  stdlib.EqualFunc,
		"and":     stdlib.AndFunc,
		"or":      stdlib.OrFunc,
		"not":     stdlib.NotFunc,
		"default": stdlib.CoalesceFunc,
	}
}

// UserFunction builds a cty function whose body is an HCL expression. The
// parameters are bound as variables in a child of the context returned by
// scope at call time, so user functions can call each other.
func UserFunction(params []string, body hcl.Expression, scope func() *hcl.EvalContext) function.Function {
	specParams := make([]function.Parameter, len(params))
	for i, name := range params {
		specParams[i] = function.Parameter{
			Name:             name,
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		}
	}
	return function.New(&function.Spec{
		Params: specParams,
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var parent *hcl.EvalContext
			if scope != nil {
				parent = scope()
			}
			if parent == nil {
				parent = &hcl.EvalContext{Functions: Stdlib()}
			}
			ctx := parent.NewChild()
			ctx.Variables = make(map[string]cty.Value, len(params))
			for i, name := range params {
				ctx.Variables[name] = args[i]
			}
			v, diags := body.Value(ctx)
			if diags.HasErrors() {
				return cty.DynamicVal, diags
			}
			return v, nil
		},
	})
}
