package discovery

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRelative(t *testing.T) {
	assert.Equal(t, "./markdoc", ProjectRelative("/markdoc"))
	assert.Equal(t, "./src/markdoc", ProjectRelative("./src/markdoc"))
	assert.Equal(t, "schema", ProjectRelative("schema"))
}

func TestFindFirstExisting_PrefersEarlierCandidate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "markdoc"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "markdoc"), 0o750))

	got, ok := FindFirstExisting(context.Background(), nil, root, []string{"./markdoc", "./src/markdoc"})
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "markdoc")), got)
}

func TestFindFirstExisting_LeadingSlashIsProjectRelative(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "markdoc"), 0o750))

	got, ok := FindFirstExisting(context.Background(), nil, root, []string{"/markdoc", "/src/markdoc"})
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "src", "markdoc")), got)
}

func TestFindFirstExisting_SkipsFilesAndMisses(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "markdoc"), []byte("not a dir"), 0o600))

	_, ok := FindFirstExisting(context.Background(), nil, root, []string{"./markdoc", "./missing"})
	assert.False(t, ok)

	_, ok = FindFirstExisting(context.Background(), nil, root, nil)
	assert.False(t, ok)
}

func TestFindFirstExisting_LogsStatErrorsToGivenLogger(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "markdoc"), 0o750))
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, ok := FindFirstExisting(context.Background(), logger, root, []string{"./file/sub", "./markdoc"})

	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "markdoc")), got)
	assert.Contains(t, buf.String(), "Error checking directory, skipping")
}
