package preprocess

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/render"
	"git.home.luguber.info/inful/markweave/internal/schema"
	"git.home.luguber.info/inful/markweave/internal/validation"
)

const calloutTags = `callout:
  render: Callout
  attributes:
    type:
      type: string
`

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return filepath.ToSlash(p)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "markdoc/tags.yaml", calloutTags)
	writeFile(t, root, "markdoc/partials/header.md", "Shared header\n")
	writeFile(t, root, "markdoc/partials/bad.md", "---\ntitle: [\n---\n")
	return root
}

func newPreprocessor(root string, mutate func(*Options)) *Preprocessor {
	opts := DefaultOptions()
	opts.Root = root
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts, WithLogger(quietLogger()))
}

const fullDocument = "---\ntitle: Hello\n---\n" +
	"# {% $frontmatter.title %}\n\n" +
	"{% callout type=\"note\" %}\nBody\n{% /callout %}\n\n" +
	"{% partial file=\"header.md\" /%}\n"

func TestProcess_FullDocument(t *testing.T) {
	root := newProject(t)
	p := newPreprocessor(root, nil)

	res, err := p.Process(context.Background(), "doc.md", []byte(fullDocument))
	require.NoError(t, err)

	want := "<script context=\"module\">\n" +
		"\texport const metadata = {\"title\":\"Hello\"};\n" +
		"\tconst { title } = metadata;\n" +
		"</script>\n" +
		"<script>\n" +
		"\timport Callout from '/src/lib/components/Callout.svelte';\n" +
		"</script>\n" +
		"<article><h1>Hello</h1><Callout type=\"note\"><p>Body</p></Callout><p>Shared header</p></article>"
	assert.Equal(t, want, res.Code)

	rootSlash := filepath.ToSlash(root)
	assert.Equal(t, []string{
		rootSlash + "/markdoc/partials/header.md",
		rootSlash + "/markdoc/tags.yaml",
	}, res.Dependencies)
	assert.Equal(t, []render.Heading{{Level: 1, Title: "Hello"}}, res.Headings)
	assert.Equal(t, map[string]any{"title": "Hello"}, res.Frontmatter)
	assert.Empty(t, res.Findings)
}

func TestProcess_IsDeterministic(t *testing.T) {
	root := newProject(t)
	p := newPreprocessor(root, nil)
	ctx := context.Background()

	first, err := p.Process(ctx, "doc.md", []byte(fullDocument))
	require.NoError(t, err)
	second, err := p.Process(ctx, "doc.md", []byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Dependencies, second.Dependencies)

	a := p.Resolve(ctx, nil)
	b := p.Resolve(ctx, nil)
	assert.Equal(t, a.Dependencies, b.Dependencies)
	assert.Equal(t, a.Config.Tags, b.Config.Tags)
	assert.Equal(t, a.Config.Variables, b.Config.Variables)
}

func TestHandles(t *testing.T) {
	p := newPreprocessor(t.TempDir(), nil)

	assert.True(t, p.Handles("docs/a.md"))
	assert.True(t, p.Handles("docs/a.mdoc"))
	assert.False(t, p.Handles("docs/a.txt"))
	assert.False(t, p.Handles(""))

	res, err := p.Process(context.Background(), "a.txt", []byte("# x"))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestProcess_ValidationFailure(t *testing.T) {
	p := newPreprocessor(t.TempDir(), nil)

	res, err := p.Process(context.Background(), "doc.md", []byte("{% nope /%}\n"))

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t,
		"Markdoc validation failed in doc.md. Found 1 error at or above configured level \"error\".\n\n"+
			"CRITICAL (tag): Undefined tag: 'nope' at doc.md:1",
		ce.Message())
}

func TestProcess_FindingsBelowThreshold(t *testing.T) {
	p := newPreprocessor(t.TempDir(), func(o *Options) { o.ValidationLevel = validation.SeverityCritical })

	res, err := p.Process(context.Background(), "doc.md", []byte("Hi {% $missing %}\n"))

	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "variable-undefined", res.Findings[0].ID)
	assert.Equal(t, "<article><p>Hi </p></article>", res.Code)
}

func TestProcess_ParseFailure(t *testing.T) {
	p := newPreprocessor(t.TempDir(), nil)

	_, err := p.Process(context.Background(), "doc.md", []byte("---\ntitle: [\n---\n"))

	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryParse))
}

func TestProcess_LayoutWithoutFrontmatter(t *testing.T) {
	p := newPreprocessor(t.TempDir(), func(o *Options) { o.Layout = "$lib/Layout.svelte" })

	res, err := p.Process(context.Background(), "doc.md", []byte("Hi\n"))
	require.NoError(t, err)

	assert.Equal(t, "<script>\n"+
		"\timport Layout_DEFAULT from '$lib/Layout.svelte';\n"+
		"</script>\n"+
		"<Layout_DEFAULT>\n"+
		"<article><p>Hi</p></article></Layout_DEFAULT>\n", res.Code)
}

func TestProcess_LayoutSpreadsMetadata(t *testing.T) {
	p := newPreprocessor(t.TempDir(), func(o *Options) { o.Layout = "/src/Layout.svelte" })

	res, err := p.Process(context.Background(), "doc.md", []byte("---\nmy-key: 1\n---\nHi\n"))
	require.NoError(t, err)

	assert.Contains(t, res.Code, "\texport const metadata = {\"my-key\":1};\n")
	assert.NotContains(t, res.Code, "const {")
	assert.Contains(t, res.Code, "<Layout_DEFAULT {...metadata}>\n")
}

func TestResolve_DirectOverridesAndExplicitPartials(t *testing.T) {
	root := newProject(t)
	writeFile(t, root, "shared/header.md", "Explicit header\n")
	p := newPreprocessor(root, func(o *Options) {
		o.PartialsDirectory = "/shared"
		o.Direct = schema.Fragment{
			Tags:      map[string]schema.Schema{"callout": {Render: "Note"}},
			Variables: map[string]any{"frontmatter": "shadowed?"},
		}
	})

	res := p.Resolve(context.Background(), map[string]any{"title": "T"})

	assert.Equal(t, "Note", res.Config.Tags["callout"].Render)
	assert.Equal(t, map[string]any{"title": "T"}, res.Config.Variables["frontmatter"])
	assert.Contains(t, res.Dependencies, filepath.ToSlash(root)+"/shared/header.md")

	out, err := p.Process(context.Background(), "doc.md", []byte("{% partial file=\"header.md\" /%}\n"))
	require.NoError(t, err)
	assert.Equal(t, "<article><p>Explicit header</p></article>", out.Code)
}

func TestResolve_ExplicitSchemaDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config/schema/tags.yaml", calloutTags)
	p := newPreprocessor(root, func(o *Options) { o.SchemaDirectory = "config/schema" })

	dir, ok := p.SchemaDirectory(context.Background())
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(root)+"/config/schema", dir)

	res := p.Resolve(context.Background(), nil)
	assert.Contains(t, res.Config.Tags, "callout")
}

func TestResolve_NoSchemaDirectory(t *testing.T) {
	p := newPreprocessor(t.TempDir(), nil)

	res := p.Resolve(context.Background(), nil)

	assert.Empty(t, res.Dependencies)
	assert.NotNil(t, res.Config.Tags)
	assert.Equal(t, map[string]any{}, res.Config.Variables["frontmatter"])
}
