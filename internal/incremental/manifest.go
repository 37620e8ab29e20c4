package incremental

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// ManifestVersion is bumped whenever the manifest layout changes. Manifests
// with another version are discarded.
const ManifestVersion = 1

// Entry records how one source document was last built.
type Entry struct {
	Fingerprint  string            `json:"fingerprint"`
	Output       string            `json:"output"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	BuiltAt      time.Time         `json:"built_at"`
}

// Manifest is the persisted record of the previous build. It is safe for
// concurrent use.
type Manifest struct {
	Version    int              `json:"version"`
	RunID      string           `json:"run_id"`
	ConfigHash string           `json:"config_hash"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Documents  map[string]Entry `json:"documents"`

	mu sync.RWMutex
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Version: ManifestVersion, Documents: map[string]Entry{}}
}

// LoadManifest reads a manifest. A missing file yields an empty manifest, as
// does a manifest written by another version.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- manifest path comes from configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := NewManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return NewManifest(), nil
	}
	if m.Documents == nil {
		m.Documents = map[string]Entry{}
	}
	return m, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Get returns the entry for a source document.
func (m *Manifest) Get(source string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.Documents[source]
	return e, ok
}

// Put records the entry for a source document.
func (m *Manifest) Put(source string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents[source] = e
}

// Delete forgets a source document.
func (m *Manifest) Delete(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Documents, source)
}

// Sources lists the recorded source documents in order.
func (m *Manifest) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.Documents))
}

// Dependents lists the sources that depend on path.
func (m *Manifest) Dependents(path string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for src, e := range m.Documents {
		if _, ok := e.Dependencies[path]; ok {
			out = append(out, src)
		}
	}
	slices.Sort(out)
	return out
}
