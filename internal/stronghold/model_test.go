package stronghold

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/stronghold/internal/bundled"
	"github.com/ekisa-team/stronghold/internal/source"
)

const testManifest = `name: Test model
version: 1.2.0
inputs: [depth]
outputs: [exit_0, exit_1]
files:
  - weights.bin
`

func writeModelDir(t *testing.T, name, manifest string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	for p, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, p), []byte(content), 0o644))
	}

	return dir
}

func TestNewModel_Identifier(t *testing.T) {
	m, err := NewModel(source.Internal(bundled.FS(), "basic-v1.zip"))
	require.NoError(t, err)
	assert.Equal(t, "basic-v1", m.Identifier())
	assert.Equal(t, StatusUnloaded, m.Status())

	m, err = NewModel(source.External("/models/m2"))
	require.NoError(t, err)
	assert.Equal(t, "m2", m.Identifier())

	_, err = NewModel(source.External("/"))
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestModel_LoadBundled(t *testing.T) {
	m, err := NewModel(source.Internal(bundled.FS(), "basic-v1.zip"))
	require.NoError(t, err)

	_, err = m.Snapshot()
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, m.ForceReload())

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "basic-v1", snap.Manifest.ID)
	assert.Equal(t, "1.0.0", snap.Manifest.Version)
	assert.Len(t, snap.Files, 3)
	assert.NotEmpty(t, snap.Checksum)

	info := m.Info()
	assert.Equal(t, StatusLoaded, info.Status)
	assert.Equal(t, source.TypeInternal, info.Source)
	assert.Equal(t, 1, info.Reloads)
	assert.NotNil(t, info.LoadedAt)
	assert.Empty(t, info.Error)
}

func TestModel_FailedReloadKeepsSnapshot(t *testing.T) {
	dir := writeModelDir(t, "m2", testManifest, map[string]string{"weights.bin": "w1"})

	m, err := NewModel(source.External(dir))
	require.NoError(t, err)
	require.NoError(t, m.ForceReload())

	before, err := m.Snapshot()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "weights.bin")))

	err = m.ForceReload()
	assert.ErrorIs(t, err, ErrMissingFile)

	after, err := m.Snapshot()
	require.NoError(t, err)
	assert.Same(t, before, after)

	info := m.Info()
	assert.Equal(t, StatusFailed, info.Status)
	assert.Contains(t, info.Error, "weights.bin")
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, 2, info.Reloads)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights.bin"), []byte("w2"), 0o644))
	require.NoError(t, m.ForceReload())

	latest, err := m.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, before.Checksum, latest.Checksum)
	assert.Equal(t, StatusLoaded, m.Status())
	assert.Empty(t, m.Info().Error)
}

func TestModel_InvalidManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{name: "missing version", manifest: "name: x\nfiles: [weights.bin]\n"},
		{name: "bad version", manifest: "name: x\nversion: latest\nfiles: [weights.bin]\n"},
		{name: "no files", manifest: "name: x\nversion: 1.0.0\nfiles: []\n"},
		{name: "unknown field", manifest: "name: x\nversion: 1.0.0\nfiles: [weights.bin]\nextra: 1\n"},
		{name: "id mismatch", manifest: "id: other\nname: x\nversion: 1.0.0\nfiles: [weights.bin]\n"},
		{name: "not yaml", manifest: "name: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeModelDir(t, "m3", tt.manifest, map[string]string{"weights.bin": "w"})

			m, err := NewModel(source.External(dir))
			require.NoError(t, err)

			err = m.ForceReload()
			assert.ErrorIs(t, err, ErrInvalidManifest)
			assert.Equal(t, StatusFailed, m.Status())
		})
	}
}

func TestModel_MissingSource(t *testing.T) {
	m, err := NewModel(source.External(filepath.Join(t.TempDir(), "gone.zip")))
	require.NoError(t, err)

	err = m.ForceReload()
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestModel_ConcurrentReloads(t *testing.T) {
	dir := writeModelDir(t, "m4", testManifest, map[string]string{"weights.bin": "w"})

	m, err := NewModel(source.External(dir))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.ForceReload())
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, m.Info().Reloads)
	assert.Equal(t, StatusLoaded, m.Status())
}

func TestModel_ChecksumAndSizes(t *testing.T) {
	dir := writeModelDir(t, "m2", testManifest, map[string]string{"weights.bin": "0123456789"})

	m, err := NewModel(source.External(dir))
	require.NoError(t, err)
	require.NoError(t, m.ForceReload())

	snap, err := m.Snapshot()
	require.NoError(t, err)

	want := sha256.New()
	for _, f := range []struct{ name, content string }{
		{ManifestFile, testManifest},
		{"weights.bin", "0123456789"},
	} {
		want.Write([]byte(f.name))
		want.Write([]byte{0})
		want.Write([]byte(f.content))
	}
	assert.Equal(t, hex.EncodeToString(want.Sum(nil)), snap.Checksum)
	assert.Equal(t, []FileInfo{
		{Path: ManifestFile, Size: int64(len(testManifest))},
		{Path: "weights.bin", Size: 10},
	}, snap.Files)
}

func TestModel_LoadZipWithTopLevelDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "m2.zip")
	f, err := os.Create(p)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range map[string]string{
		"m2/" + ManifestFile: testManifest,
		"m2/weights.bin":     "w",
	} {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	m, err := NewModel(source.External(p))
	require.NoError(t, err)
	require.NoError(t, m.ForceReload())

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", snap.Manifest.Version)
	assert.Equal(t, "m2", m.Identifier())
}
