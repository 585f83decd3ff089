package optimizer

import "github.com/liquidil/liquidil/internal/il"

// passInlineSimplePartials is pass 0: replace a CONST_RENDER/CONST_INCLUDE
// that carries no arguments at all (no `with`, `for` or named args) by
// the partial's own compiled body, wrapped in PUSH_SCOPE/POP_SCOPE when
// the call is an isolated `render`, and bracketed by SET_CONTEXT
// markers recording where the inlined source begins and ends, for
// diagnostic line mapping. The body's HALT and LABEL markers are left
// out of the splice.
//
// Inlining is restricted to partial bodies containing no FIND_VAR/
// FIND_VAR_PATH/FIND_VAR_DYNAMIC at all: such a body cannot observe
// anything about the caller's scope, so it is safe to splice in
// regardless of whether the surrounding instruction is `render`
// (isolated) or `include` (shared) — a body that does reference
// variables would need real scope-isolation semantics PUSH_SCOPE alone
// doesn't provide (Scope.Lookup falls through to root bindings), so
// those are left as genuine partial calls instead.
func passInlineSimplePartials(c *Context) bool {
	if c.Inliner == nil {
		return false
	}
	changed := false
	for i := 0; i < len(c.Code); i++ {
		inst := c.Code[i]
		if inst.Op != il.CONST_RENDER && inst.Op != il.CONST_INCLUDE {
			continue
		}
		if len(inst.Args) > 0 {
			continue
		}
		body, ok := c.Inliner.Resolve(inst.PartialName)
		if !ok || body == nil {
			continue
		}
		if bodyReferencesScope(body.Code) {
			continue
		}

		// The BUILD_HASH immediately before this instruction still pops
		// zero items (HashCount 0) and pushes an empty hash the partial
		// instruction itself would have consumed; with no args that
		// push/pop pair is dead once the instruction disappears, so
		// replace it with NOOP and let pass 7 clean it up.
		if i > 0 && c.Code[i-1].Op == il.BUILD_HASH && c.Code[i-1].HashCount == 0 {
			c.Code[i-1] = il.Instruction{Op: il.NOOP}
		}

		inlined := make([]il.Instruction, 0, len(body.Code)+3)
		inlinedSpans := make([]il.Span, 0, len(body.Spans)+3)
		inlined = append(inlined, il.Instruction{Op: il.SET_CONTEXT, Str: inst.PartialName})
		inlinedSpans = append(inlinedSpans, c.Spans[i])
		if inst.Isolated {
			inlined = append(inlined, il.Instruction{Op: il.PUSH_SCOPE})
			inlinedSpans = append(inlinedSpans, c.Spans[i])
		}
		regBase := c.RegisterCount
		for k, bodyInst := range body.Code {
			if bodyInst.Op == il.HALT || bodyInst.Op == il.LABEL {
				continue
			}
			if bodyInst.Op == il.STORE_TEMP || bodyInst.Op == il.LOAD_TEMP {
				bodyInst.Int += int64(regBase)
			}
			inlined = append(inlined, bodyInst)
			inlinedSpans = append(inlinedSpans, body.Spans[k])
		}
		if inst.Isolated {
			inlined = append(inlined, il.Instruction{Op: il.POP_SCOPE})
			inlinedSpans = append(inlinedSpans, c.Spans[i])
		}
		inlined = append(inlined, il.Instruction{Op: il.SET_CONTEXT, Str: ""})
		inlinedSpans = append(inlinedSpans, c.Spans[i])

		newCode := make([]il.Instruction, 0, len(c.Code)+len(inlined))
		newSpans := make([]il.Span, 0, len(c.Spans)+len(inlined))
		newCode = append(newCode, c.Code[:i]...)
		newSpans = append(newSpans, c.Spans[:i]...)
		newCode = append(newCode, inlined...)
		newSpans = append(newSpans, inlinedSpans...)
		newCode = append(newCode, c.Code[i+1:]...)
		newSpans = append(newSpans, c.Spans[i+1:]...)

		c.Code, c.Spans = newCode, newSpans
		c.RegisterCount += body.RegisterCount
		changed = true
		break // indices shifted; resume on the next sweep.
	}
	return changed
}

func bodyReferencesScope(code []il.Instruction) bool {
	for _, inst := range code {
		switch inst.Op {
		case il.FIND_VAR, il.FIND_VAR_PATH, il.FIND_VAR_DYNAMIC,
			il.RENDER_PARTIAL, il.INCLUDE_PARTIAL, il.CONST_RENDER, il.CONST_INCLUDE:
			return true
		}
	}
	return false
}
