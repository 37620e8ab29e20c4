package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func slash(p string) string { return filepath.ToSlash(p) }

func TestCandidates_Order(t *testing.T) {
	assert.Equal(t, []string{
		"/s/tags.hcl",
		"/s/tags.yaml",
		"/s/tags.yml",
		"/s/tags/index.hcl",
		"/s/tags/index.yaml",
		"/s/tags/index.yml",
	}, Candidates("/s", KindTags))
}

func TestResolver_LoadsYmlFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.yml"), "box:\n  render: Box\n")
	writeFile(t, filepath.Join(dir, "variables.yaml"), "site: yaml\n")
	writeFile(t, filepath.Join(dir, "variables.yml"), "site: yml\n")

	res := NewResolver().Load(context.Background(), dir)

	assert.Equal(t, "Box", res.Fragment.Tags["box"].Render)
	assert.Equal(t, map[string]any{"site": "yaml"}, res.Fragment.Variables)
	assert.Equal(t, []string{
		slash(filepath.Join(dir, "tags.yml")),
		slash(filepath.Join(dir, "variables.yaml")),
	}, res.Dependencies)
}

func TestResolver_LoadsAllKinds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.hcl"), `tag "box" { render = "Box" }`)
	writeFile(t, filepath.Join(dir, "nodes", "index.yaml"), "heading:\n  render: Heading\n")
	writeFile(t, filepath.Join(dir, "variables.yaml"), "site: docs\n")
	writeFile(t, filepath.Join(dir, "functions.hcl"), `function "id" {
  params = ["x"]
  result = x
}`)

	res := NewResolver().Load(context.Background(), dir)

	assert.Equal(t, "Box", res.Fragment.Tags["box"].Render)
	assert.Equal(t, "Heading", res.Fragment.Nodes["heading"].Render)
	assert.Equal(t, map[string]any{"site": "docs"}, res.Fragment.Variables)
	assert.Contains(t, res.Fragment.Functions, "id")
	assert.Nil(t, res.Fragment.Partials)

	assert.Equal(t, []string{
		slash(filepath.Join(dir, "functions.hcl")),
		slash(filepath.Join(dir, "nodes", "index.yaml")),
		slash(filepath.Join(dir, "tags.hcl")),
		slash(filepath.Join(dir, "variables.yaml")),
	}, res.Dependencies)
}

func TestResolver_PrefersDirectFileAndHCL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.hcl"), `tag "a" { render = "FromHCL" }`)
	writeFile(t, filepath.Join(dir, "tags.yaml"), "a:\n  render: FromYAML\n")
	writeFile(t, filepath.Join(dir, "tags", "index.hcl"), `tag "a" { render = "FromIndex" }`)

	res := NewResolver().Load(context.Background(), dir)
	assert.Equal(t, "FromHCL", res.Fragment.Tags["a"].Render)
	assert.Equal(t, []string{slash(filepath.Join(dir, "tags.hcl"))}, res.Dependencies)
}

func TestResolver_MissingKindsStayNil(t *testing.T) {
	res := NewResolver().Load(context.Background(), t.TempDir())
	assert.Nil(t, res.Fragment.Tags)
	assert.Nil(t, res.Fragment.Nodes)
	assert.Nil(t, res.Fragment.Variables)
	assert.Nil(t, res.Fragment.Functions)
	assert.Empty(t, res.Dependencies)
}

func TestResolver_FailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.hcl"), `tag "broken" {`)
	writeFile(t, filepath.Join(dir, "variables.yaml"), "ok: true\n")

	res := NewResolver().Load(context.Background(), dir)
	assert.Nil(t, res.Fragment.Tags)
	assert.Equal(t, map[string]any{"ok": true}, res.Fragment.Variables)
	assert.Contains(t, res.Dependencies, slash(filepath.Join(dir, "tags.hcl")), "a file that failed to decode is still a dependency")
}

type fakeLoader struct {
	mu    sync.Mutex
	calls map[Kind]int
	fail  map[Kind]error
	value map[Kind]any
}

func (f *fakeLoader) Load(kind Kind, _ string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[Kind]int{}
	}
	f.calls[kind]++
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	return f.value[kind], nil
}

func TestResolver_UsesPluggableLoader(t *testing.T) {
	dir := t.TempDir()
	for _, k := range Kinds {
		writeFile(t, filepath.Join(dir, string(k)+".yaml"), "")
	}
	fl := &fakeLoader{
		fail: map[Kind]error{KindNodes: errors.New("boom")},
		value: map[Kind]any{
			KindTags:      map[string]Schema{"x": {Render: "X"}},
			KindVariables: "not a map",
			KindFunctions: map[string]Function{},
		},
	}

	res := NewResolver(WithLoader(fl)).Load(context.Background(), dir)
	assert.Nil(t, res.Fragment.Nodes)
	assert.Nil(t, res.Fragment.Variables, "wrong value types are dropped")
	assert.Equal(t, "X", res.Fragment.Tags["x"].Render)
	assert.NotNil(t, res.Fragment.Functions)
	assert.Len(t, res.Dependencies, 4)
	for _, k := range Kinds {
		assert.Equal(t, 1, fl.calls[k])
	}
}

func TestResolver_RepeatedLoadsAreIdentical(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tags.hcl"), tagsHCL)
	writeFile(t, filepath.Join(dir, "variables.hcl"), `a = [1, 2]`)

	r := NewResolver()
	first := r.Load(context.Background(), dir)
	second := r.Load(context.Background(), dir)

	opts := cmpopts.IgnoreFields(Function{}, "Result")
	if diff := cmp.Diff(first, second, opts); diff != "" {
		t.Fatalf("resolutions differ (-first +second):\n%s", diff)
	}
}

type countingLoader struct {
	mu    sync.Mutex
	loads int
}

func (c *countingLoader) Load(kind Kind, path string) (any, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	return FileLoader{}.Load(kind, path)
}

func TestCachingLoader_ReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "variables.yaml")
	writeFile(t, p, "a: 1\n")

	inner := &countingLoader{}
	cl := NewCachingLoader(inner)

	v, err := cl.Load(KindVariables, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, v)

	_, err = cl.Load(KindVariables, p)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loads)
	assert.Equal(t, 1, cl.Len())

	writeFile(t, p, "a: 22\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(p, future, future))

	v, err = cl.Load(KindVariables, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 22}, v)
	assert.Equal(t, 2, inner.loads)
}

func TestCachingLoader_DoesNotCacheFailures(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tags.hcl")
	writeFile(t, p, `tag "x" {`)

	cl := NewCachingLoader(nil)
	_, err := cl.Load(KindTags, p)
	require.Error(t, err)
	assert.Zero(t, cl.Len())
}
