package fs

import (
	"os"
	"path/filepath"
	"strings"
)

// DirProvider reads partials from a directory on disk, matching
// funvibe-funxy's module-loader convention of resolving a bare name to
// a file by trying a fixed set of recognized extensions in order
// (detectPackageExtension/hasSourceFiles in internal/modules/loader.go).
type DirProvider struct {
	Root       string
	Extensions []string // tried in order when name has no extension of its own
}

// NewDirProvider creates a DirProvider defaulting to the conventional
// Liquid partial extensions.
func NewDirProvider(root string) *DirProvider {
	return &DirProvider{Root: root, Extensions: []string{".liquid", ".html"}}
}

func (d *DirProvider) Read(name string) (string, error) {
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", ErrNotFound
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		for _, ext := range d.Extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(d.Root, c))
		if err == nil {
			return string(data), nil
		}
	}
	return "", ErrNotFound
}

// BaseName strips the directory and every recognized extension,
// matching Liquid's "the alias for the bound variable defaults to the
// partial's base name" rule (§4.6).
func (d *DirProvider) BaseName(name string) string {
	base := filepath.Base(name)
	for _, ext := range d.Extensions {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
