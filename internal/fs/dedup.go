package fs

import "golang.org/x/sync/singleflight"

// CompileFunc compiles name's source to an opaque artifact (the render
// pipeline instantiates this with something that returns a linked,
// optimized *il.Program boxed as interface{}, keeping this package
// independent of internal/il).
type CompileFunc func(name string) (interface{}, error)

// Deduper ensures concurrent requests to compile the same partial name
// share one compilation instead of racing duplicate work, the
// singleflight idiom applied to "load module by name" the way
// funvibe-funxy's Loader.Processing map prevents reentrant cycles —
// here the goal is avoiding redundant work under concurrency rather
// than detecting import cycles (partials cannot recursively include
// themselves without tripping the VM's render-depth limit instead).
type Deduper struct {
	group singleflight.Group
}

// Compile runs fn(name) at most once per outstanding call for a given
// name; concurrent callers for the same name block on and share the
// single in-flight result.
func (d *Deduper) Compile(name string, fn CompileFunc) (interface{}, error) {
	v, err, _ := d.group.Do(name, func() (interface{}, error) {
		return fn(name)
	})
	return v, err
}
