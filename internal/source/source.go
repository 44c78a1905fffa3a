// Package source opens the backing storage of a model, either an archive
// bundled with the binary or a location on the filesystem.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Type is the kind of storage a model is loaded from.
type Type string

const (
	// TypeInternal is a model archive bundled with the binary.
	TypeInternal Type = "internal"

	// TypeExternal is a model archive or directory on the filesystem.
	TypeExternal Type = "external"
)

// ArchiveExt is the extension of model archives.
const ArchiveExt = ".zip"

// Error definitions for the source package.
var (
	ErrNotFound    = errors.New("model source not found")
	ErrUnsupported = errors.New("unsupported model source")
)

// Source locates the bytes of one model.
type Source interface {
	// Type returns whether the source is internal or external.
	Type() Type

	// Name returns the base name of the source, e.g. "basic-v1.zip".
	Name() string

	// Location returns the resource name or filesystem path.
	Location() string

	// Open opens the model contents for reading.
	Open() (Archive, error)
}

// Internal returns a source for the archive named resource inside bundle.
func Internal(bundle fs.FS, resource string) Source {
	return &internalSource{bundle: bundle, resource: resource}
}

// External returns a source for an archive or directory at p.
func External(p string) Source {
	return &externalSource{path: filepath.Clean(p)}
}

type internalSource struct {
	bundle   fs.FS
	resource string
}

func (s *internalSource) Type() Type       { return TypeInternal }
func (s *internalSource) Name() string     { return path.Base(s.resource) }
func (s *internalSource) Location() string { return s.resource }

func (s *internalSource) Open() (Archive, error) {
	if s.bundle == nil {
		return nil, fmt.Errorf("%w: no bundle for %s", ErrNotFound, s.resource)
	}
	if !strings.HasSuffix(s.resource, ArchiveExt) {
		return nil, fmt.Errorf("%w: internal model %s is not a %s archive", ErrUnsupported, s.resource, ArchiveExt)
	}

	data, err := fs.ReadFile(s.bundle, s.resource)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: bundled model %s", ErrNotFound, s.resource)
		}
		return nil, fmt.Errorf("failed to read bundled model %s: %w", s.resource, err)
	}

	return openZipBytes(data)
}

type externalSource struct {
	path string
}

func (s *externalSource) Type() Type       { return TypeExternal }
func (s *externalSource) Name() string     { return filepath.Base(s.path) }
func (s *externalSource) Location() string { return s.path }

func (s *externalSource) Open() (Archive, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat model %s: %w", s.path, err)
	}

	if info.IsDir() {
		return openDir(s.path)
	}
	if !strings.HasSuffix(s.path, ArchiveExt) {
		return nil, fmt.Errorf("%w: %s is neither a directory nor a %s archive", ErrUnsupported, s.path, ArchiveExt)
	}

	return openZipFile(s.path)
}
