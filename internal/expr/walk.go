package expr

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// FunctionCalls returns the sorted, unique names of all functions called in e.
func FunctionCalls(e hcl.Expression) []string {
	syntaxExpr, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil
	}
	functions := make(map[string]struct{})
	walkForFunctions(syntaxExpr, functions)

	out := make([]string, 0, len(functions))
	for f := range functions {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RootVariables returns the sorted, unique root names of all variable
// references in e.
func RootVariables(e hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, t := range e.Variables() {
		seen[t.RootName()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(e hclsyntax.Expression, functions map[string]struct{}) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[x.Name] = struct{}{}
		for _, arg := range x.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(x.LHS, functions)
		walkForFunctions(x.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(x.Condition, functions)
		walkForFunctions(x.TrueResult, functions)
		walkForFunctions(x.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(x.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range x.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(x.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range x.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range x.Items {
			walkForFunctions(item.KeyExpr, functions)
			walkForFunctions(item.ValueExpr, functions)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkForFunctions(x.Wrapped, functions)
	case *hclsyntax.ForExpr:
		walkForFunctions(x.CollExpr, functions)
		walkForFunctions(x.KeyExpr, functions)
		walkForFunctions(x.ValExpr, functions)
		walkForFunctions(x.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(x.Collection, functions)
		walkForFunctions(x.Key, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(x.Source, functions)
		walkForFunctions(x.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(x.Expression, functions)
	case *hclsyntax.RelativeTraversalExpr:
		walkForFunctions(x.Source, functions)
	}
}
