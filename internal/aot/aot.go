// Package aot implements the ahead-of-time code generator named in
// §1: a backend that emits native Go source for a linked,
// optimized Program instead of interpreting it through C7's VM. Per
// the spec's own Non-goals ("the AOT code emitter for the host
// language... its design is a straightforward walk over the same IL"),
// this package commits to the interface and to one concrete emitter
// that performs that walk; it does not attempt instruction-by-instruction
// native lowering the way a production JIT/AOT backend eventually would.
package aot

import (
	"github.com/liquidil/liquidil/internal/il"
)

// Options configures the emitted source file.
type Options struct {
	Package  string // generated file's package clause; defaults to "generated"
	FuncName string // generated render entrypoint; defaults to "Render"
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "generated"
	}
	if o.FuncName == "" {
		o.FuncName = "Render"
	}
	return o
}

// Emitter turns a compiled Program into Go source implementing its
// render behavior. Walking prog.Code in order and switching on each
// instruction's Op is the whole contract; GoSourceEmitter is the one
// implementation this module ships.
type Emitter interface {
	Emit(prog *il.Program, opts Options) ([]byte, error)
}
