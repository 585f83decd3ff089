package optimizer

import "github.com/liquidil/liquidil/internal/il"

// passStripLabel is pass 21: resolve every label-ID jump operand to an
// absolute instruction index and delete the LABEL markers, the same
// resolution internal/linker performs — run here, it means the linker
// has nothing left to do, which Context.Linked signals to the render
// pipeline so it can skip calling linker.Link on this program.
func passStripLabel(c *Context) bool {
	hasLabel := false
	for _, inst := range c.Code {
		if inst.Op == il.LABEL {
			hasLabel = true
			break
		}
	}
	if !hasLabel {
		c.Linked = true
		return false
	}

	offsets := make(map[int]int, 16)
	for i, inst := range c.Code {
		if inst.Op == il.LABEL {
			offsets[inst.Label] = i
		}
	}
	for i := range c.Code {
		inst := &c.Code[i]
		switch inst.Op {
		case il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY, il.JUMP_IF_INTERRUPT:
			if idx, ok := offsets[inst.Label]; ok {
				inst.Label = idx
			}
		case il.FOR_NEXT, il.TABLEROW_NEXT:
			if idx, ok := offsets[inst.Label]; ok {
				inst.Label = idx
			}
			if idx, ok := offsets[inst.Label2]; ok {
				inst.Label2 = idx
			}
		case il.FOR_INIT, il.TABLEROW_INIT:
			if inst.HasRecovery {
				if idx, ok := offsets[inst.RecoveryLabel]; ok {
					inst.RecoveryLabel = idx
				}
			}
		}
	}

	drop := make([]bool, len(c.Code))
	removedBefore := make([]int, len(c.Code)+1)
	for i, inst := range c.Code {
		removedBefore[i+1] = removedBefore[i]
		if inst.Op == il.LABEL {
			drop[i] = true
			removedBefore[i+1]++
		}
	}
	for i := range c.Code {
		inst := &c.Code[i]
		switch inst.Op {
		case il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY, il.JUMP_IF_INTERRUPT:
			inst.Label -= removedBefore[inst.Label]
		case il.FOR_NEXT, il.TABLEROW_NEXT:
			inst.Label -= removedBefore[inst.Label]
			inst.Label2 -= removedBefore[inst.Label2]
		case il.FOR_INIT, il.TABLEROW_INIT:
			if inst.HasRecovery {
				inst.RecoveryLabel -= removedBefore[inst.RecoveryLabel]
			}
		}
	}

	code, spans, _ := keep(c.Code, c.Spans, drop)
	c.Code, c.Spans = code, spans
	c.Linked = true
	return true
}

// passRemoveInterruptChecks is pass 22: when the whole program contains
// no PUSH_INTERRUPT (so no `break`/`continue` was ever compiled) and no
// INCLUDE_PARTIAL/CONST_INCLUDE (an included partial runs in the same
// scope and could itself push an interrupt the caller must observe),
// every JUMP_IF_INTERRUPT and POP_INTERRUPT is provably dead.
func passRemoveInterruptChecks(c *Context) bool {
	for _, inst := range c.Code {
		switch inst.Op {
		case il.PUSH_INTERRUPT, il.INCLUDE_PARTIAL, il.CONST_INCLUDE:
			return false
		}
	}
	changed := false
	drop := make([]bool, len(c.Code))
	for i, inst := range c.Code {
		if inst.Op == il.POP_INTERRUPT {
			drop[i] = true
			changed = true
		}
	}
	if !changed {
		return false
	}
	// JUMP_IF_INTERRUPT is a conditional transfer with no stack effect
	// of its own (it neither pushes nor pops); with no interrupt ever
	// pending, it always falls through, so it can be dropped outright
	// same as POP_INTERRUPT rather than rewritten to anything else.
	for i, inst := range c.Code {
		if inst.Op == il.JUMP_IF_INTERRUPT {
			drop[i] = true
		}
	}
	code, spans, _ := keep(c.Code, c.Spans, drop)
	c.Code, c.Spans = code, spans
	return true
}
