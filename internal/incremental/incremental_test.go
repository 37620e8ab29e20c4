package incremental

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFingerprint(t *testing.T) {
	doc := []byte("---\ntitle: A\n---\n# Body\n")

	assert.Equal(t, mdfp.CalculateFingerprintFromParts("title: A", "# Body\n"), Fingerprint(doc))
	assert.Equal(t, Fingerprint(doc), Fingerprint([]byte("---\r\ntitle: A\r\n---\r\n# Body\n")))
	assert.NotEqual(t, Fingerprint(doc), Fingerprint([]byte("---\ntitle: B\n---\n# Body\n")))
	assert.NotEmpty(t, Fingerprint([]byte("---\nunterminated\n")))
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tags.yaml")
	write(t, p, "x")

	sum, err := HashFile(p)
	require.NoError(t, err)
	assert.Equal(t, "2d711642b726b04401627ca9fbac32f5c8530fb1903cc4db02258717921a4881", sum)

	missing, err := HashFile(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".markweave", "manifest.json")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Empty(t, m.Sources())

	m.RunID = "run-1"
	m.ConfigHash = "cfg"
	m.Put("b.md", Entry{Fingerprint: "fb", Dependencies: map[string]string{"/s/tags.yaml": "h"}})
	m.Put("a.md", Entry{Fingerprint: "fa"})
	require.NoError(t, m.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, []string{"a.md", "b.md"}, loaded.Sources())
	assert.Equal(t, []string{"b.md"}, loaded.Dependents("/s/tags.yaml"))

	loaded.Delete("a.md")
	_, ok := loaded.Get("a.md")
	assert.False(t, ok)
}

func TestLoadManifest_VersionMismatchAndCorruption(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.json")
	write(t, old, `{"version": 0, "documents": {"a.md": {}}}`)

	m, err := LoadManifest(old)
	require.NoError(t, err)
	assert.Empty(t, m.Sources())

	bad := filepath.Join(dir, "bad.json")
	write(t, bad, "{")
	_, err = LoadManifest(bad)
	assert.Error(t, err)
}

func TestChecker(t *testing.T) {
	dir := t.TempDir()
	dep := filepath.Join(dir, "markdoc", "tags.yaml")
	out := filepath.Join(dir, "build", "a.svelte")
	write(t, dep, "callout: {}\n")
	write(t, out, "<article></article>")
	content := []byte("# A\n")

	m := NewManifest()
	m.ConfigHash = "cfg"
	c := NewChecker(m, "cfg")

	d := c.Check("a.md", content)
	assert.Equal(t, Decision{Rebuild: true, Reason: ReasonNew, Fingerprint: Fingerprint(content)}, d)

	require.NoError(t, c.Record("a.md", d.Fingerprint, out, []string{dep}))
	assert.Equal(t, ReasonUnchanged, c.Check("a.md", content).Reason)
	assert.False(t, c.Check("a.md", content).Rebuild)

	assert.Equal(t, ReasonContent, c.Check("a.md", []byte("# B\n")).Reason)
	assert.Equal(t, ReasonConfig, NewChecker(m, "other").Check("a.md", content).Reason)

	write(t, dep, "callout: {render: Callout}\n")
	assert.Equal(t, ReasonDependency, c.Check("a.md", content).Reason)

	require.NoError(t, c.Record("a.md", d.Fingerprint, out, []string{dep}))
	require.NoError(t, os.Remove(out))
	assert.Equal(t, ReasonOutputMissing, c.Check("a.md", content).Reason)

	c.Forget("a.md")
	assert.Equal(t, ReasonNew, c.Check("a.md", content).Reason)
}
