package build

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/markweave/internal/foundation/errors"
	"git.home.luguber.info/inful/markweave/internal/incremental"
	"git.home.luguber.info/inful/markweave/internal/preprocess"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

type project struct {
	root    string
	builder *Builder
	req     Request
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "markdoc/tags.yaml", "callout:\n  render: Callout\n")
	writeFile(t, root, "markdoc/partials/footer.md", "Footer\n")
	writeFile(t, root, "index.md", "# Home\n\n{% callout %}\nHi\n{% /callout %}\n")
	writeFile(t, root, "guide/intro.mdoc", "Intro {% partial file=\"footer.md\" /%}\n")
	writeFile(t, root, "notes.txt", "not a document")
	writeFile(t, root, ".cache/hidden.md", "# hidden")

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := preprocess.DefaultOptions()
	opts.Root = root
	pre := preprocess.New(opts, preprocess.WithLogger(quiet))

	return &project{
		root:    root,
		builder: NewBuilder(pre, WithLogger(quiet)),
		req: Request{
			SourceDir:       root,
			OutputDir:       filepath.Join(root, "build"),
			OutputExtension: ".svelte",
			ManifestPath:    filepath.Join(root, ".markweave", "manifest.json"),
			ConfigHash:      "cfg",
			Concurrency:     2,
		},
	}
}

func (p *project) run(t *testing.T) *Result {
	t.Helper()
	res, err := p.builder.Run(context.Background(), p.req)
	require.NoError(t, err)
	return res
}

func statuses(res *Result) map[string]DocumentStatus {
	out := map[string]DocumentStatus{}
	for _, o := range res.Outcomes {
		out[o.Source] = o.Status
	}
	return out
}

func TestRun_BuildsThenSkips(t *testing.T) {
	p := newProject(t)

	first := p.run(t)
	assert.Equal(t, StatusSuccess, first.Status)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, map[string]DocumentStatus{"guide/intro.mdoc": DocumentBuilt, "index.md": DocumentBuilt}, statuses(first))

	index, err := os.ReadFile(filepath.Join(p.root, "build", "index.svelte"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "import Callout from '/src/lib/components/Callout.svelte';")
	assert.Contains(t, string(index), "<Callout><p>Hi</p></Callout>")

	intro, err := os.ReadFile(filepath.Join(p.root, "build", "guide", "intro.svelte"))
	require.NoError(t, err)
	assert.Contains(t, string(intro), "Footer")

	m, err := incremental.LoadManifest(p.req.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, m.RunID)
	assert.Equal(t, []string{"guide/intro.mdoc", "index.md"}, m.Sources())

	second := p.run(t)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, 2, second.Skipped)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_RebuildsOnDependencyAndConfigChange(t *testing.T) {
	p := newProject(t)
	p.run(t)

	writeFile(t, p.root, "markdoc/partials/footer.md", "New footer\n")
	res := p.run(t)
	assert.Equal(t, 2, res.Built, "every document depends on the schema partials")
	for _, o := range res.Outcomes {
		assert.Equal(t, incremental.ReasonDependency, o.Reason, o.Source)
	}

	p.req.ConfigHash = "changed"
	res = p.run(t)
	assert.Equal(t, 2, res.Built)
	assert.Equal(t, incremental.ReasonConfig, res.Outcomes[0].Reason)

	p.req.Force = true
	res = p.run(t)
	assert.Equal(t, 2, res.Built)
}

func TestRun_Failure(t *testing.T) {
	p := newProject(t)
	writeFile(t, p.root, "broken.md", "{% nope /%}\n")

	res, err := p.builder.Run(context.Background(), p.req)

	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Built)
	require.Len(t, res.Failures(), 1)
	assert.Equal(t, "broken.md", res.Failures()[0].Source)
	assert.NoFileExists(t, filepath.Join(p.root, "build", "broken.svelte"))

	m, err := incremental.LoadManifest(p.req.ManifestPath)
	require.NoError(t, err)
	_, ok := m.Get("broken.md")
	assert.False(t, ok)
}

func TestRun_PrunesRemovedSources(t *testing.T) {
	p := newProject(t)
	p.run(t)
	out := filepath.Join(p.root, "build", "index.svelte")
	require.FileExists(t, out)

	require.NoError(t, os.Remove(filepath.Join(p.root, "index.md")))
	p.run(t)

	assert.NoFileExists(t, out)
	m, err := incremental.LoadManifest(p.req.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"guide/intro.mdoc"}, m.Sources())
}

func TestRun_DryRun(t *testing.T) {
	p := newProject(t)
	p.req.DryRun = true

	res := p.run(t)

	assert.Equal(t, 2, res.Built)
	assert.NoDirExists(t, filepath.Join(p.root, "build"))
	assert.NoFileExists(t, p.req.ManifestPath)
}

func TestRun_Files(t *testing.T) {
	p := newProject(t)
	p.req.Files = []string{filepath.Join(p.root, "index.md")}

	res := p.run(t)

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, "index.md", res.Outcomes[0].Source)
}

func TestRun_FilesOutsideSourceDirAreIgnored(t *testing.T) {
	p := newProject(t)
	outside := filepath.Join(t.TempDir(), "elsewhere.md")
	p.req.SourceDir = filepath.Join(p.root, "guide")
	p.req.Files = []string{outside, filepath.Join(p.root, "guide", "intro.mdoc")}

	res := p.run(t)

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, "intro.mdoc", res.Outcomes[0].Source)
}

func TestRun_Cancelled(t *testing.T) {
	p := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.builder.Run(ctx, p.req)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestSources(t *testing.T) {
	p := newProject(t)

	got, err := Sources(p.root, Excluded(context.Background(), p.builder.pre, p.req), p.builder.pre.Handles)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(p.root, "guide", "intro.mdoc"),
		filepath.Join(p.root, "index.md"),
	}, got)
}

func TestSources_ExcludedRootIsStillWalked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n")
	writeFile(t, dir, "out/b.md", "# B\n")
	writeFile(t, dir, "manifest.json", "{}")
	manifest := filepath.Join(dir, "manifest.json")
	all := func(string) bool { return true }

	got, err := Sources(dir, []string{filepath.Join(dir, "out"), manifest, dir}, all)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md")}, got)
}

func TestRun_ManifestInSourceRoot(t *testing.T) {
	p := newProject(t)
	p.req.ManifestPath = filepath.Join(p.root, "manifest.json")

	res := p.run(t)
	assert.Equal(t, 2, res.Built)
	assert.FileExists(t, p.req.ManifestPath)

	res = p.run(t)
	assert.Equal(t, 2, res.Skipped)
}

func TestOutputPath(t *testing.T) {
	exts := []string{".md", ".svelte.md"}
	assert.Equal(t, filepath.Join("out", "a", "b.svelte"), outputPath("out", "a/b.md", exts, ".svelte"))
	assert.Equal(t, filepath.Join("out", "page.svelte"), outputPath("out", "page.svelte.md", exts, ".svelte"))
}

func TestRunOrdered(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := []int{1, 2, 3, 4, 5, 6}

	got := runOrdered(context.Background(), items, 2, func(_ context.Context, n int) int {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return n * 10
	})

	assert.Equal(t, []int{10, 20, 30, 40, 50, 60}, got)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Nil(t, runOrdered(context.Background(), []int(nil), 2, func(context.Context, int) int { return 0 }))
}
