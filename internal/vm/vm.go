// Package vm implements C7 (the stack-based VM that executes linked,
// optimized IL) and C8 (Scope, the per-render execution context),
// mirroring funvibe-funxy's internal/vm fetch-dispatch-advance loop
// (vm.go/vm_exec.go) generalized from a general-purpose bytecode
// machine to this module's smaller, markup-oriented IL.
package vm

import (
	"strings"

	"github.com/liquidil/liquidil/internal/config"
	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// PartialCompiler resolves a partial name to a linked, optimized
// Program, the seam the VM uses to run `render`/`include` without
// importing internal/render (which itself imports vm), matching the
// general shape of funvibe-funxy's module-loader seam in
// internal/modules.
type PartialCompiler interface {
	Compile(name string) (*il.Program, error)
	BaseName(name string) string // the `with`/`for` default alias, e.g. "product" for "product.liquid"

	// Source returns the partial's own template text, used to resolve a
	// source line for a fault raised inside an inlined body (§4.7 pass
	// 0), whose Spans index into that body's offsets rather than the
	// host Program's. ok is false when the name is unknown or its text
	// isn't retained.
	Source(name string) (string, bool)
}

// Options configures the VM's runtime policy knobs (§4.6
// "Error surface", §4.5 "Render-depth counter").
type Options struct {
	// RenderErrorsInline, when true (the default), renders recoverable
	// faults as "Liquid error (...)" text and continues. When false,
	// the first recoverable fault aborts the render with a
	// *RuntimeError carrying whatever output was produced so far.
	RenderErrorsInline bool

	MaxRenderDepth  int
	MaxIncludeDepth int
}

// DefaultOptions mirrors config's process-wide defaults.
func DefaultOptions() Options {
	return Options{
		RenderErrorsInline: config.DefaultRenderErrors,
		MaxRenderDepth:     config.MaxRenderDepth,
		MaxIncludeDepth:    config.MaxIncludeDepth,
	}
}

// VM executes linked Programs against a Scope. render.Engine builds a
// fresh VM for each Render call; a VM holds only configuration (all
// per-execution state lives in execContext, not here), so one VM can
// also serve repeated and concurrent Run calls, the way funvibe-funxy's
// VM is built once per module and driven repeatedly.
type VM struct {
	Filters  filters.Table
	Partials PartialCompiler
	Options  Options
}

// New creates a VM. partials may be nil if the template set contains no
// render/include tags; filters may be nil to use no filters at all
// (CALL_FILTER then always faults as "unknown filter").
func New(filterTable filters.Table, partials PartialCompiler, opts Options) *VM {
	return &VM{Filters: filterTable, Partials: partials, Options: opts}
}

// activeLoop is one entry of the unified for/tablerow iteration stack;
// FOR_NEXT/TABLEROW_NEXT and PUSH_FORLOOP all operate on whichever
// entry is on top, since the two constructs never interleave within a
// single nesting level (§4.1 "Loops"/"Tablerow").
type activeLoop struct {
	kind        string // "forloop" or "tablerowloop"
	iter        *iterator
	cols        int
	rowRendered bool
	loopVarName string
	startOffset int64
}

// fileFrame is one entry of execContext's SET_CONTEXT stack: the
// file/source pair in effect before entering an inlined partial body,
// restored when that body's closing SET_CONTEXT is reached.
type fileFrame struct {
	file   string
	source string
}

// execContext holds everything specific to one Program's dispatch run;
// render/include push a fresh execContext for the partial's own
// Program while sharing (include) or replacing (render) the Scope.
type execContext struct {
	prog  *il.Program
	scope *Scope
	stack []value.Value
	ip    int
	loops []*activeLoop

	// file/source track which template's text the current instruction's
	// Span indexes into, for fault()'s "file line N" diagnostics.
	// SET_CONTEXT (emitted around an inlined partial body, §4.7 pass 0)
	// pushes/pops this as dispatch enters and leaves that body.
	file      string
	source    string
	fileStack []fileFrame
}

func newExecContext(prog *il.Program, scope *Scope) *execContext {
	return &execContext{
		prog:   prog,
		scope:  scope,
		stack:  make([]value.Value, 0, config.InitialStackSize),
		file:   prog.SourceName,
		source: prog.Source,
	}
}

// location resolves the current instruction's source file/line for
// fault(), falling back to a zero line when no span was recorded (e.g.
// Programs built by hand in tests) or no source text is available for
// the file currently in effect.
func (ec *execContext) location() (file string, line int) {
	file = ec.file
	if ec.source == "" || ec.ip >= len(ec.prog.Spans) {
		return file, 0
	}
	span := ec.prog.Spans[ec.ip]
	if !span.Valid {
		return file, 0
	}
	return file, lineAt(ec.source, span.Start)
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(source string, offset int) int {
	if offset < 0 {
		offset = 0
	} else if offset > len(source) {
		offset = len(source)
	}
	return strings.Count(source[:offset], "\n") + 1
}

func (ec *execContext) push(v value.Value) { ec.stack = append(ec.stack, v) }

func (ec *execContext) pop() value.Value {
	n := len(ec.stack) - 1
	if n < 0 {
		panic(errStackUnderflow)
	}
	v := ec.stack[n]
	ec.stack = ec.stack[:n]
	return v
}

func (ec *execContext) peek() value.Value {
	if len(ec.stack) == 0 {
		panic(errStackUnderflow)
	}
	return ec.stack[len(ec.stack)-1]
}

// Run executes prog against scope to completion, returning the
// rendered output accumulated in scope (for a fresh top-level scope,
// scope.Output(); include/render instead read back through the shared
// Scope's own capture/output plumbing).
func (vm *VM) Run(prog *il.Program, scope *Scope) (string, error) {
	scope.PushRegisterFrame(prog.RegisterCount)
	defer scope.PopRegisterFrame()

	ec := newExecContext(prog, scope)
	if err := vm.dispatch(ec); err != nil {
		return scope.Output(), err
	}
	return scope.Output(), nil
}

// dispatch is the fetch-decode-execute loop (§4.6).
func (vm *VM) dispatch(ec *execContext) error {
	code := ec.prog.Code
	for ec.ip < len(code) {
		inst := code[ec.ip]
		jumped, err := vm.step(ec, &inst)
		if err != nil {
			return err
		}
		if !jumped {
			ec.ip++
		}
	}
	return nil
}

// fault reports a recoverable runtime condition per §4.6
// "Error surface": inline text in the default mode, or an aborting
// *RuntimeError in strict mode. Either way the message carries the
// current instruction's file/line when one is available.
func (vm *VM) fault(ec *execContext, msg string) error {
	file, line := ec.location()
	if vm.Options.RenderErrorsInline {
		ec.scope.Write(formatFault(file, line, msg))
		return nil
	}
	return &RuntimeError{Message: msg, File: file, Line: line, PartialOutput: ec.scope.Output()}
}
