// Package stronghold implements the model handle: a model archive that can
// be loaded, validated and reloaded from its source.
package stronghold

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ekisa-team/stronghold/internal/source"
)

// Status is the current loading status of a model.
type Status string

const (
	// StatusUnloaded indicates that the model has never been loaded.
	StatusUnloaded Status = "unloaded"

	// StatusLoading indicates that a reload is in progress.
	StatusLoading Status = "loading"

	// StatusLoaded indicates that the last reload succeeded.
	StatusLoaded Status = "loaded"

	// StatusFailed indicates that the last reload failed.
	StatusFailed Status = "failed"
)

// FileInfo is one file of a loaded model.
type FileInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Snapshot is the result of a successful load.
type Snapshot struct {
	Manifest Manifest   `json:"manifest"`
	Files    []FileInfo `json:"files"`
	Checksum string     `json:"checksum"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// Info summarizes a model for listings.
type Info struct {
	ID       string      `json:"id"`
	Source   source.Type `json:"source"`
	Location string      `json:"location"`
	Status   Status      `json:"status"`
	Version  string      `json:"version,omitempty"`
	Checksum string      `json:"checksum,omitempty"`
	LoadedAt *time.Time  `json:"loaded_at,omitempty"`
	Error    string      `json:"error,omitempty"`
	Reloads  int         `json:"reloads"`
}

// Model is a model handle backed by a source.
// A failed reload keeps the last successfully loaded snapshot.
type Model struct {
	id       string
	src      source.Source
	snapshot *Snapshot
	status   Status
	lastErr  error
	reloads  int
	reloadMu sync.Mutex
	mu       sync.RWMutex
}

// NewModel creates an unloaded model for src. The identifier is the source
// name without its archive extension.
func NewModel(src source.Source) (*Model, error) {
	id := strings.TrimSuffix(src.Name(), source.ArchiveExt)
	if id == "" || id == "." || id == "/" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, src.Location())
	}

	return &Model{
		id:     id,
		src:    src,
		status: StatusUnloaded,
	}, nil
}

// Identifier returns the stable identifier of the model.
func (m *Model) Identifier() string {
	return m.id
}

// ForceReload reads the model from its source again. Concurrent reloads of
// the same model are serialized.
func (m *Model) ForceReload() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	m.setStatus(StatusLoading)

	snap, err := m.load()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reloads++
	if err != nil {
		m.status = StatusFailed
		m.lastErr = err
		slog.Warn("Model reload failed", "model_id", m.id, "source", m.src.Location(), "kept_previous", m.snapshot != nil, "error", err)
		return err
	}

	m.snapshot = snap
	m.status = StatusLoaded
	m.lastErr = nil
	slog.Info("Model loaded", "model_id", m.id, "version", snap.Manifest.Version, "files", len(snap.Files), "checksum", snap.Checksum)

	return nil
}

// Snapshot returns the last successfully loaded state.
func (m *Model) Snapshot() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, m.id)
	}

	return m.snapshot, nil
}

// Status returns the current loading status.
func (m *Model) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.status
}

// Info returns a summary of the model.
func (m *Model) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		ID:       m.id,
		Source:   m.src.Type(),
		Location: m.src.Location(),
		Status:   m.status,
		Reloads:  m.reloads,
	}
	if m.snapshot != nil {
		loadedAt := m.snapshot.LoadedAt
		info.LoadedAt = &loadedAt
		info.Version = m.snapshot.Manifest.Version
		info.Checksum = m.snapshot.Checksum
	}
	if m.lastErr != nil {
		info.Error = m.lastErr.Error()
	}

	return info
}

func (m *Model) setStatus(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status = status
}

// load opens the source and builds a new snapshot without touching the model state.
func (m *Model) load() (*Snapshot, error) {
	archive, err := m.src.Open()
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	data, err := archive.ReadFile(ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidManifest, ManifestFile, err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if manifest.ID != "" && manifest.ID != m.id {
		return nil, fmt.Errorf("%w: manifest id %q does not match model %q", ErrInvalidManifest, manifest.ID, m.id)
	}

	present := make(map[string]bool)
	for _, name := range archive.Files() {
		present[name] = true
	}
	for _, name := range manifest.Files {
		if !present[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
	}

	sum := sha256.New()
	files := make([]FileInfo, 0, len(present))
	for _, name := range archive.Files() {
		size, err := hashFile(sum, archive, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		files = append(files, FileInfo{Path: name, Size: size})
	}

	return &Snapshot{
		Manifest: *manifest,
		Files:    files,
		Checksum: hex.EncodeToString(sum.Sum(nil)),
		LoadedAt: time.Now(),
	}, nil
}

// hashFile streams the named file into h, prefixed by its name.
func hashFile(h hash.Hash, archive source.Archive, name string) (int64, error) {
	rc, err := archive.Open(name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	h.Write([]byte(name))
	h.Write([]byte{0})

	return io.Copy(h, rc)
}
