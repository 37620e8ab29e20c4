package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	b, err := Split(input)
	require.NoError(t, err)
	require.False(t, b.Present)
	require.Empty(t, b.Raw)
	require.Equal(t, input, b.Body)
	require.Zero(t, b.BodyLine)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	b, err := Split(input)
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("key: value\n"), b.Raw)
	require.Equal(t, []byte("# Title\n"), b.Body)
	require.Equal(t, 3, b.BodyLine)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	b, err := Split(input)
	require.Error(t, err)
	require.False(t, b.Present)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	b, err := Split(input)
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("key: value\r\n"), b.Raw)
	require.Equal(t, []byte("# Title\r\n"), b.Body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsPresentWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	b, err := Split(input)
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Empty(t, b.Raw)
	require.Equal(t, []byte("# Title\n"), b.Body)
	require.Equal(t, 2, b.BodyLine)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	b, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, b.Present)
	require.Equal(t, []byte("title: x\n"), b.Raw)
	require.Empty(t, b.Body)
}

func TestDecode_ValidYAML_ReturnsMap(t *testing.T) {
	fields, err := Decode([]byte("uid: abc\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", fields["uid"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestDecode_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := Decode(nil)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.NotNil(t, fields)
}

func TestDecode_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Decode([]byte(": not yaml"))
	require.Error(t, err)
}
