// Package incremental decides which documents need rebuilding by comparing
// content fingerprints and dependency hashes against the previous build.
package incremental

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/markweave/internal/frontmatter"
)

// Fingerprint computes the content fingerprint of a source document from its
// raw frontmatter and body. Documents with a broken frontmatter block are
// fingerprinted as a whole.
func Fingerprint(content []byte) string {
	block, err := frontmatter.Split(content)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	fm := strings.TrimSuffix(strings.ReplaceAll(string(block.Raw), "\r\n", "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(block.Body))
}

// HashFile returns the hex sha256 of a file. A missing file hashes to the
// empty string so that its later appearance counts as a change.
func HashFile(path string) (string, error) {
	// #nosec G304 -- dependency paths come from the schema resolver
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashDependencies hashes every dependency.
func HashDependencies(paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		sum, err := HashFile(p)
		if err != nil {
			return nil, err
		}
		out[p] = sum
	}
	return out, nil
}
