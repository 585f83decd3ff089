package vm

import (
	"strings"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// Scope is C8: the lexically scoped variable environment plus every
// other piece of state a render call threads through the VM. One Scope
// is created per top-level render call;
// `render` allocates a fresh Scope seeded from its arg map, while
// `include` reuses the caller's Scope so assignments persist.
type Scope struct {
	frames []map[string]value.Value
	root   map[string]value.Value

	captures []*strings.Builder
	out      *strings.Builder

	forOffsets map[string]int64
	cycleState map[string]int
	ifchanged  map[string]string
	counters   map[string]int64

	interrupt struct {
		pending bool
		kind    il.InterruptKind
	}

	renderDepth int

	// registerStack holds one register frame per active Program
	// invocation (the top-level render plus each nested render/include),
	// so a partial's own STORE_TEMP/LOAD_TEMP numbering never collides
	// with the caller's in-flight temporaries even though `include`
	// shares everything else in this Scope (§3 register file,
	// generalized here to be per-invocation rather than strictly global
	// — see DESIGN.md).
	registerStack [][]value.Value
}

// NewScope creates a Scope seeded with assigns as its root bindings.
func NewScope(assigns map[string]value.Value) *Scope {
	if assigns == nil {
		assigns = map[string]value.Value{}
	}
	return &Scope{
		root:       assigns,
		out:        &strings.Builder{},
		forOffsets: map[string]int64{},
		cycleState: map[string]int{},
		ifchanged:  map[string]string{},
		counters:   map[string]int64{},
	}
}

// Increment implements `{% increment name %}`: returns the counter's
// value before bumping it (starts at 0), a namespace independent of
// regular `assign` bindings.
func (s *Scope) Increment(name string) int64 {
	v := s.counters[name]
	s.counters[name] = v + 1
	return v
}

// Decrement implements `{% decrement name %}`: bumps the counter down
// first, then returns it (so the first call on a fresh name yields -1).
func (s *Scope) Decrement(name string) int64 {
	s.counters[name]--
	return s.counters[name]
}

// Lookup resolves name against frames top-to-bottom, then the root
// assigns (§3).
func (s *Scope) Lookup(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	if v, ok := s.root[name]; ok {
		return v, true
	}
	return value.Nil{}, false
}

// Assign binds name in the innermost active frame, or the root if no
// frame is open (top-level `assign` outside any block).
func (s *Scope) Assign(name string, v value.Value) {
	if len(s.frames) == 0 {
		s.root[name] = v
		return
	}
	s.frames[len(s.frames)-1][name] = v
}

// PushFrame opens a new lexical frame (PUSH_SCOPE).
func (s *Scope) PushFrame() {
	s.frames = append(s.frames, map[string]value.Value{})
}

// PopFrame closes the innermost frame (POP_SCOPE).
func (s *Scope) PopFrame() {
	s.frames = s.frames[:len(s.frames)-1]
}

// PushCapture opens a new capture buffer (PUSH_CAPTURE); subsequent
// Write calls append to it instead of the render output until the
// matching PopCapture.
func (s *Scope) PushCapture() {
	s.captures = append(s.captures, &strings.Builder{})
}

// PopCapture closes the innermost capture buffer and returns its text.
func (s *Scope) PopCapture() string {
	n := len(s.captures) - 1
	b := s.captures[n]
	s.captures = s.captures[:n]
	return b.String()
}

// Write appends text to the innermost open capture buffer, or the
// render output if no capture is active.
func (s *Scope) Write(text string) {
	if n := len(s.captures); n > 0 {
		s.captures[n-1].WriteString(text)
		return
	}
	s.out.WriteString(text)
}

// Output returns the accumulated top-level render output.
func (s *Scope) Output() string { return s.out.String() }

// ForOffset returns the remembered next-index for a `offset:continue`
// loop, if one was recorded by a prior FOR_END on the same loop name.
func (s *Scope) ForOffset(loopName string) (int64, bool) {
	v, ok := s.forOffsets[loopName]
	return v, ok
}

// SetForOffset records the next-index for loopName (FOR_END).
func (s *Scope) SetForOffset(loopName string, next int64) {
	s.forOffsets[loopName] = next
}

// CycleIndex advances and returns the pre-advance index for identity
// among n values, wrapping modulo n (CYCLE_STEP/CYCLE_STEP_VAR).
func (s *Scope) CycleIndex(identity string, n int) int {
	if n <= 0 {
		return 0
	}
	idx := s.cycleState[identity]
	s.cycleState[identity] = (idx + 1) % n
	return idx
}

// IfchangedCheck reports whether text differs from the last value
// recorded under tagID, recording text as the new last value either
// way (IFCHANGED_CHECK).
func (s *Scope) IfchangedCheck(tagID, text string) bool {
	last, ok := s.ifchanged[tagID]
	s.ifchanged[tagID] = text
	return !ok || last != text
}

// SetInterrupt records a pending break/continue (PUSH_INTERRUPT).
func (s *Scope) SetInterrupt(kind il.InterruptKind) {
	s.interrupt.pending = true
	s.interrupt.kind = kind
}

// PendingInterrupt reports the currently pending interrupt, if any.
func (s *Scope) PendingInterrupt() (il.InterruptKind, bool) {
	return s.interrupt.kind, s.interrupt.pending
}

// ClearInterrupt drops any pending interrupt (POP_INTERRUPT, and the
// continue case of JUMP_IF_INTERRUPT).
func (s *Scope) ClearInterrupt() {
	s.interrupt.pending = false
}

// HasInterrupt reports whether any writes/assigns should currently be
// suppressed (§4.5 "Interrupt propagation").
func (s *Scope) HasInterrupt() bool { return s.interrupt.pending }

// PushRegisterFrame opens a fresh register file of size n for a newly
// entered Program invocation.
func (s *Scope) PushRegisterFrame(n int) {
	s.registerStack = append(s.registerStack, make([]value.Value, n))
}

// PopRegisterFrame closes the innermost register file.
func (s *Scope) PopRegisterFrame() {
	s.registerStack = s.registerStack[:len(s.registerStack)-1]
}

// StoreTemp writes idx in the innermost register file (STORE_TEMP).
func (s *Scope) StoreTemp(idx int, v value.Value) {
	regs := s.registerStack[len(s.registerStack)-1]
	regs[idx] = v
}

// LoadTemp reads idx from the innermost register file (LOAD_TEMP).
func (s *Scope) LoadTemp(idx int) value.Value {
	regs := s.registerStack[len(s.registerStack)-1]
	return regs[idx]
}

// EnterRenderDepth increments the render-depth counter, returning false
// if doing so would exceed limit (§4.5).
func (s *Scope) EnterRenderDepth(limit int) bool {
	if s.renderDepth >= limit {
		return false
	}
	s.renderDepth++
	return true
}

// ExitRenderDepth decrements the render-depth counter.
func (s *Scope) ExitRenderDepth() { s.renderDepth-- }
