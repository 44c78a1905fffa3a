package source

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Archive is a read-only view of the files of a model.
type Archive interface {
	// Files returns the slash-separated paths of all regular files, sorted.
	Files() []string

	// ReadFile returns the contents of the named file.
	ReadFile(name string) ([]byte, error)

	// Open opens the named file for streaming reads.
	Open(name string) (io.ReadCloser, error)

	// Close releases the archive.
	Close() error
}

type zipArchive struct {
	files  map[string]*zip.File
	names  []string
	closer io.Closer
}

func openZipBytes(data []byte) (Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	return newZipArchive(r.File, nil), nil
}

func openZipFile(p string) (Archive, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive %s: %w", p, err)
	}

	return newZipArchive(rc.File, rc), nil
}

// newZipArchive indexes the regular files of a zip. Archives whose entries all
// live under one top-level directory (zip -r m.zip m/) are rooted at it.
func newZipArchive(entries []*zip.File, closer io.Closer) *zipArchive {
	files := make(map[string]*zip.File, len(entries))
	for _, f := range entries {
		if f.FileInfo().IsDir() {
			continue
		}
		files[path.Clean(f.Name)] = f
	}

	prefix := commonTopDir(files)

	a := &zipArchive{
		files:  make(map[string]*zip.File, len(files)),
		closer: closer,
	}
	for name, f := range files {
		name = strings.TrimPrefix(name, prefix)
		a.files[name] = f
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)

	return a
}

// commonTopDir returns "dir/" when every name is nested under the same
// top-level directory, or "" otherwise.
func commonTopDir(files map[string]*zip.File) string {
	var top string
	for name := range files {
		dir, _, ok := strings.Cut(name, "/")
		if !ok {
			return ""
		}
		if top == "" {
			top = dir
		} else if dir != top {
			return ""
		}
	}
	if top == "" {
		return ""
	}

	return top + "/"
}

func (a *zipArchive) Files() []string {
	return a.names
}

func (a *zipArchive) ReadFile(name string) ([]byte, error) {
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (a *zipArchive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return f.Open()
}

func (a *zipArchive) Close() error {
	if a.closer == nil {
		return nil
	}

	return a.closer.Close()
}

type dirArchive struct {
	root  string
	names []string
}

func openDir(root string) (Archive, error) {
	a := &dirArchive{root: root}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		a.names = append(a.names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk model directory %s: %w", root, err)
	}
	sort.Strings(a.names)

	return a, nil
}

func (a *dirArchive) Files() []string {
	return a.names
}

func (a *dirArchive) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(a.path(name))
}

func (a *dirArchive) Open(name string) (io.ReadCloser, error) {
	return os.Open(a.path(name))
}

func (a *dirArchive) path(name string) string {
	return filepath.Join(a.root, filepath.FromSlash(path.Clean(name)))
}

func (a *dirArchive) Close() error {
	return nil
}
