package schema

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/markweave/internal/expr"
)

func TestAttribute_Accepts(t *testing.T) {
	tests := []struct {
		typ  string
		v    any
		want bool
	}{
		{"", "x", true},
		{"String", "x", true},
		{"string", 1, false},
		{"number", 1, true},
		{"number", 1.5, true},
		{"number", "1", false},
		{"Boolean", true, true},
		{"array", []any{1}, true},
		{"array", "a", false},
		{"object", map[string]any{}, true},
		{"any", nil, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Attribute{Type: tt.typ}.Accepts(tt.v), "%s %v", tt.typ, tt.v)
	}
}

func TestAttribute_Allows(t *testing.T) {
	a := Attribute{Matches: []any{"info", "warning", 3}}
	assert.True(t, a.Allows("info"))
	assert.True(t, a.Allows(3))
	assert.False(t, a.Allows("error"))
	assert.True(t, Attribute{}.Allows("anything"))
}

func TestFunction_UnmarshalYAML(t *testing.T) {
	var fns map[string]Function
	require.NoError(t, yaml.Unmarshal([]byte("shout:\n  params: [s]\n  result: upper($s)\n"), &fns))

	fn := fns["shout"]
	assert.Equal(t, []string{"s"}, fn.Params)
	assert.Equal(t, "upper($s)", fn.Source)
	assert.Equal(t, []string{"upper"}, expr.FunctionCalls(fn.Result))

	err := yaml.Unmarshal([]byte("bad:\n  params: [s]\n"), &fns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result is required")

	err = yaml.Unmarshal([]byte("bad:\n  result: \"upper(\"\n"), &fns)
	require.Error(t, err)
}

func TestNewFunction_Evaluates(t *testing.T) {
	fn, err := NewFunction([]string{"a", "b"}, "$a + $b", "")
	require.NoError(t, err)

	ctx := &hcl.EvalContext{Functions: expr.Stdlib()}
	ctx.Functions["add"] = expr.UserFunction(fn.Params, fn.Result, func() *hcl.EvalContext { return ctx })

	e, diags := expr.Parse("add(2, 3)", "t", hcl.InitialPos)
	require.False(t, diags.HasErrors())
	v, diags := e.Value(ctx)
	require.False(t, diags.HasErrors(), diags.Error())
	got, err := expr.FromCty(v)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}
