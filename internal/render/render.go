// Package render implements the public orchestration seam: source text
// in, rendered output out, wiring C1-C7 (lexers, parser, linker,
// optimizer, VM) the way funvibe-funxy's internal/pipeline.Pipeline
// strings its own compile stages together into one entry point
// (DESIGN.md).
package render

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/liquidil/liquidil/internal/config"
	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/fs"
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/linker"
	"github.com/liquidil/liquidil/internal/optimizer"
	"github.com/liquidil/liquidil/internal/parser"
	"github.com/liquidil/liquidil/internal/value"
	"github.com/liquidil/liquidil/internal/vm"
)

// Operand payloads (CycleValue.Lit, ArgDescriptor.Value) are declared
// interface{}, so gob needs every concrete type that can appear there
// registered before a *il.Program crosses Encode/Decode — the same set
// internal/aot's generated-source embedding registers.
func init() {
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
}

// Template is a compiled, linked, and optimized program ready to be run
// against any number of Scopes (§3 "Template (compiled)").
type Template struct {
	Program *il.Program
	Source  string
	// Linked reports whether the optimizer's "strip LABEL" pass (#21)
	// ran, the way internal/optimizer.Context.Linked threads through;
	// kept for diagnostics (a Template pretty-printed after pass 21 has
	// no LABEL markers left to show).
	Linked bool
}

// Options configures an Engine. A zero Options is usable: no partials,
// the builtin filter table, every optimizer pass enabled, and
// RenderErrorsInline per config.DefaultRenderErrors.
type Options struct {
	// Filters backs CALL_FILTER. Defaults to filters.NewDefaultTable().
	Filters filters.Table

	// Provider resolves render/include partial names to source text.
	// Nil means partials always fault as unresolved.
	Provider fs.Provider

	// PassSpec selects the optimizer passes the way §6's DSL
	// does. A nil pointer defers to config.PassSpecEnvVar (unset means
	// "all passes"); a non-nil pointer is used verbatim, including "".
	PassSpec *string

	// VM carries the render-depth/strict-mode knobs passed through to
	// vm.Options. A zero value (MaxRenderDepth/MaxIncludeDepth both 0)
	// is treated by New as "unset" and replaced with vm.DefaultOptions().
	VM vm.Options

	// Cache, if set, persists compiled partials across process restarts
	// (fs.CompiledCache), keyed by name and a sha256 fingerprint of the
	// partial's source. A restart-cold Engine still has to recompile the
	// first time it sees a name, but a long-running host process that
	// reopens the same cache skips re-parsing/re-optimizing unchanged
	// partials entirely.
	Cache *fs.CompiledCache
}

// NewOptions returns Options pre-filled with every documented default,
// for callers who want "give me the normal Engine" rather than having
// to know vm.DefaultOptions()/filters.NewDefaultTable() exist.
func NewOptions() Options {
	return Options{
		Filters: filters.NewDefaultTable(),
		VM:      vm.DefaultOptions(),
	}
}

// Engine ties a Provider, a filter Table, an optimizer pass selection,
// and a compiled-partial cache together into one reusable render
// pipeline, mirroring funvibe-funxy's Pipeline: a long-lived object
// built once and driven per input afterward.
type Engine struct {
	opts Options

	mu       sync.RWMutex
	compiled map[string]*Template // name -> compiled partial, in-process cache

	dedup *fs.Deduper

	inlining map[string]bool // names currently being resolved, cycle guard for pass 0
	inlineMu sync.Mutex
}

// New creates an Engine. A zero Options{} is valid: New fills in the
// default filter table and vm.DefaultOptions(), and with no Provider
// partials are not resolved.
func New(opts Options) *Engine {
	if opts.VM.MaxRenderDepth == 0 && opts.VM.MaxIncludeDepth == 0 {
		opts.VM = vm.DefaultOptions()
	}
	if opts.Filters == nil {
		opts.Filters = filters.NewDefaultTable()
	}
	return &Engine{
		opts:     opts,
		compiled: map[string]*Template{},
		dedup:    &fs.Deduper{},
		inlining: map[string]bool{},
	}
}

// passSelection resolves this Engine's pass DSL per Options.PassSpec /
// config.PassSpecEnvVar (§6, §9 "Globals").
func (e *Engine) passSelection() (map[int]bool, error) {
	if e.opts.PassSpec != nil {
		return optimizer.ParsePassSpec(*e.opts.PassSpec)
	}
	return optimizer.ResolvePassSelection(config.PassSpecEnvVar)
}

// Compile parses, optimizes, and links src into a runnable Template. It
// does not consult or populate the partial cache; use CompilePartial (or
// Render against a named template through the Provider) for that.
func (e *Engine) Compile(src string) (*Template, error) {
	return e.compileNamed("", src)
}

func (e *Engine) compileNamed(name, src string) (*Template, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	selected, err := e.passSelection()
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	// The passes read jump operands as label IDs, so they run on the
	// unlinked program; Link is needed only when pass 21 did not run.
	optimized, didStripLabels := optimizer.Run(prog, selected, (*inliner)(e), e.opts.Filters)
	if !didStripLabels {
		if optimized, err = linker.Link(optimized); err != nil {
			return nil, fmt.Errorf("render: linking: %w", err)
		}
	}
	optimized.SourceName = name
	optimized.Source = src
	return &Template{Program: optimized, Source: src, Linked: didStripLabels}, nil
}

// Render executes tmpl against assigns, using this Engine's filter
// table, partial resolver, and VM options (§2 "C7 → output").
func (e *Engine) Render(tmpl *Template, assigns map[string]value.Value) (string, error) {
	machine := vm.New(e.opts.Filters, (*partialCompiler)(e), e.opts.VM)
	scope := vm.NewScope(assigns)
	return machine.Run(tmpl.Program, scope)
}

// RenderString is the one-shot convenience form: compile src, render it
// against assigns, and discard the compiled Template.
func (e *Engine) RenderString(src string, assigns map[string]value.Value) (string, error) {
	tmpl, err := e.Compile(src)
	if err != nil {
		return "", err
	}
	return e.Render(tmpl, assigns)
}

// CompilePartial resolves and compiles name through Provider, caching
// the result in-process (keyed by name only — a Provider backed by a
// changing filesystem should be paired with an external invalidation
// strategy) and, when Options.Cache is set, in a fingerprint-keyed
// fs.CompiledCache that survives process restarts.
func (e *Engine) CompilePartial(name string) (*Template, error) {
	e.mu.RLock()
	if t, ok := e.compiled[name]; ok {
		e.mu.RUnlock()
		return t, nil
	}
	e.mu.RUnlock()

	v, err := e.dedup.Compile(name, func(name string) (interface{}, error) {
		if e.opts.Provider == nil {
			return nil, fmt.Errorf("could not find asset %s", name)
		}
		src, err := e.opts.Provider.Read(name)
		if err != nil {
			return nil, fmt.Errorf("could not find asset %s: %w", name, err)
		}
		return e.compileWithCache(name, src)
	})
	if err != nil {
		return nil, err
	}
	tmpl := v.(*Template)

	e.mu.Lock()
	e.compiled[name] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}

// compileWithCache consults Options.Cache before falling back to a full
// Compile, and stores the result back on a miss.
func (e *Engine) compileWithCache(name, src string) (*Template, error) {
	if e.opts.Cache == nil {
		return e.compileNamed(name, src)
	}

	fingerprint := fs.Fingerprint(src)
	if raw, ok, err := e.opts.Cache.Get(name, fingerprint); err == nil && ok {
		var prog il.Program
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&prog); err == nil {
			prog.SourceName = name
			prog.Source = src
			return &Template{Program: &prog, Source: src}, nil
		}
	}

	tmpl, err := e.compileNamed(name, src)
	if err != nil {
		return nil, err
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(tmpl.Program); err == nil {
		_ = e.opts.Cache.Put(name, fingerprint, payload.Bytes())
	}
	return tmpl, nil
}

// BaseName implements vm.PartialCompiler: the `with`/`for` default
// alias is the partial name with its directory and extension stripped
// (§4.6 "The alias for the bound variable defaults to the
// partial's base name").
func BaseName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// partialCompiler adapts *Engine to vm.PartialCompiler without
// exporting Engine's internals under that name (Engine itself keeps a
// plain (*Template, error)-returning CompilePartial for callers outside
// the VM).
type partialCompiler Engine

func (p *partialCompiler) Compile(name string) (*il.Program, error) {
	tmpl, err := (*Engine)(p).CompilePartial(name)
	if err != nil {
		return nil, err
	}
	return tmpl.Program, nil
}

func (p *partialCompiler) BaseName(name string) string { return BaseName(name) }

// Source implements vm.PartialCompiler: the partial's own template
// text, so a fault raised while executing an inlined body (whose spans
// index into that body's source, not the host's) can still report a
// source line.
func (p *partialCompiler) Source(name string) (string, bool) {
	e := (*Engine)(p)
	e.mu.RLock()
	defer e.mu.RUnlock()
	tmpl, ok := e.compiled[name]
	if !ok {
		return "", false
	}
	return tmpl.Source, true
}

// inliner adapts *Engine to optimizer.Inliner for pass 0 ("inline
// simple partials"). It resolves and fully compiles the named partial
// eagerly, guarded against self-referential cycles (a partial that
// directly or indirectly renders itself) by tracking in-flight names;
// a cycle, a missing Provider, or any compile error just disables
// inlining for that call site rather than failing the whole compile,
// since RENDER_PARTIAL/INCLUDE_PARTIAL remain a correct (if unfolded)
// fallback.
type inliner Engine

func (in *inliner) Resolve(name string) (*il.Program, bool) {
	e := (*Engine)(in)

	in.inlineMu.Lock()
	if in.inlining[name] {
		in.inlineMu.Unlock()
		return nil, false
	}
	in.inlining[name] = true
	in.inlineMu.Unlock()
	defer func() {
		in.inlineMu.Lock()
		delete(in.inlining, name)
		in.inlineMu.Unlock()
	}()

	tmpl, err := e.CompilePartial(name)
	if err != nil {
		return nil, false
	}
	return tmpl.Program, true
}
