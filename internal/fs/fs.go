// Package fs implements the file-system provider seam (§6
// "External Interfaces": `read(name: string) → string?`) plus the
// supporting caches a render pipeline layers on top of it, mirroring
// funvibe-funxy's internal/modules.Loader: a name->source resolver with
// an in-memory cache and cycle/duplicate-work guards, generalized here
// from "load a module by import path" to "load a partial template by
// name".
package fs

import "errors"

// ErrNotFound is returned by Provider.Read when name has no source,
// the trigger for §6's "Could not find asset <name>" error at
// the render/include call site.
var ErrNotFound = errors.New("fs: asset not found")

// Provider resolves a partial name to its raw template source.
type Provider interface {
	Read(name string) (string, error)
}

// MapProvider serves sources from an in-memory map, for tests and for
// embedding a fixed template set in a binary.
type MapProvider map[string]string

func (m MapProvider) Read(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", ErrNotFound
	}
	return src, nil
}
