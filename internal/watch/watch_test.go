package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func startWatcher(t *testing.T, root string, opts ...Option) <-chan []string {
	t.Helper()
	batches := make(chan []string, 10)
	opts = append([]Option{WithDebounce(20 * time.Millisecond), WithLogger(quiet())}, opts...)
	w, err := New([]string{root}, func(_ context.Context, changed []string) { batches <- changed }, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
	return batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch received")
		return nil
	}
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o750))
	batches := startWatcher(t, root)

	a := filepath.Join(root, "docs", "a.md")
	require.NoError(t, os.WriteFile(a, []byte("# A"), 0o600))
	require.NoError(t, os.WriteFile(a, []byte("# A2"), 0o600))

	got := waitBatch(t, batches)
	assert.Contains(t, got, a)
	for _, p := range got {
		assert.True(t, strings.HasPrefix(p, root), p)
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	batches := startWatcher(t, root)

	dir := filepath.Join(root, "new")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	waitBatch(t, batches)

	p := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(p, []byte("b"), 0o600))
	assert.Contains(t, waitBatch(t, batches), p)
}

func TestWatcher_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "build")
	require.NoError(t, os.MkdirAll(out, 0o750))
	batches := startWatcher(t, root, WithIgnore(out))

	require.NoError(t, os.WriteFile(filepath.Join(out, "x.svelte"), []byte("x"), 0o600))
	doc := filepath.Join(root, "doc.md")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o600))

	assert.Equal(t, []string{doc}, waitBatch(t, batches))
}

func TestWatcher_NeverIgnoresItsRoot(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "manifest.json")
	batches := startWatcher(t, root, WithIgnore(root, manifest))

	require.NoError(t, os.WriteFile(manifest, []byte("{}"), 0o600))
	doc := filepath.Join(root, "doc.md")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o600))

	assert.Equal(t, []string{doc}, waitBatch(t, batches))
}

func TestClassifier(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(doc, []byte("# A"), 0o600))

	c := Classifier{
		ConfigFile: filepath.Join(root, "markweave.yaml"),
		ConfigDirs: []string{filepath.Join(root, "markdoc")},
		Handles:    func(p string) bool { return strings.HasSuffix(p, ".md") },
	}

	assert.Equal(t, Plan{Files: []string{doc}}, c.Plan([]string{doc, filepath.Join(root, "notes.txt")}))
	assert.Equal(t, Plan{Reload: true, Full: true}, c.Plan([]string{doc, filepath.Join(root, "markweave.yaml")}))
	assert.Equal(t, Plan{Full: true}, c.Plan([]string{filepath.Join(root, "markdoc", "partials", "x.md")}))
	assert.Equal(t, Plan{Full: true}, c.Plan([]string{filepath.Join(root, "gone.md")}))
	assert.True(t, c.Plan([]string{filepath.Join(root, "notes.txt")}).Empty())
}
