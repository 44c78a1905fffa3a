// Package bundled holds the model archives shipped inside the binary.
package bundled

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed models/*.zip
var models embed.FS

// FS returns the bundled model archives, rooted at the models directory.
func FS() fs.FS {
	sub, err := fs.Sub(models, "models")
	if err != nil {
		panic(err)
	}

	return sub
}

// Names returns the resource names of all bundled archives, sorted.
func Names() []string {
	entries, err := fs.ReadDir(models, "models")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".zip") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names
}
