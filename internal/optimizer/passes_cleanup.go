package optimizer

import "github.com/liquidil/liquidil/internal/il"

// passRemoveRedundantIsTruthy is pass 6: delete IS_TRUTHY when the
// preceding instruction is already known to leave a Bool on top.
func passRemoveRedundantIsTruthy(c *Context) bool {
	changed := false
	for i := 1; i < len(c.Code); i++ {
		if c.Code[i].Op == il.IS_TRUTHY && producesBool(c.Code[i-1]) {
			c.Code[i] = il.Instruction{Op: il.NOOP}
			changed = true
		}
	}
	return changed
}

// passRemoveNoop is pass 7: drop NOOP instructions (including the
// tombstones earlier folding passes leave behind) and reindex.
func passRemoveNoop(c *Context) bool {
	drop := make([]bool, len(c.Code))
	any := false
	for i, inst := range c.Code {
		if inst.Op == il.NOOP {
			drop[i] = true
			any = true
		}
	}
	if !any {
		return false
	}
	code, spans, changed := keep(c.Code, c.Spans, drop)
	c.Code, c.Spans = code, spans
	return changed
}

// passRemoveJumpToNextLabel is pass 8: delete an unconditional JUMP
// whose target label is the instruction immediately following it
// (conditional jumps are left — deleting them would also need to pop
// the condition they test, changing stack effect).
func passRemoveJumpToNextLabel(c *Context) bool {
	changed := false
	for i := 0; i+1 < len(c.Code); i++ {
		if c.Code[i].Op != il.JUMP {
			continue
		}
		next := c.Code[i+1]
		if next.Op == il.LABEL && next.Label == c.Code[i].Label {
			c.Code[i] = il.Instruction{Op: il.NOOP}
			changed = true
		}
	}
	return changed
}

// passMergeWriteRaw is passes 9 and 11: concatenate adjacent WRITE_RAW
// instructions.
func passMergeWriteRaw(c *Context) bool {
	changed := false
	for i := 0; i+1 < len(c.Code); i++ {
		if c.Code[i].Op != il.WRITE_RAW || c.Code[i+1].Op != il.WRITE_RAW {
			continue
		}
		c.Code[i+1].Str = c.Code[i].Str + c.Code[i+1].Str
		c.Code[i] = il.Instruction{Op: il.NOOP}
		changed = true
	}
	return changed
}

// passRemoveUnreachable is pass 10: delete instructions that fall
// between an unconditional transfer (JUMP/HALT) and the next LABEL,
// since nothing can reach them.
func passRemoveUnreachable(c *Context) bool {
	drop := make([]bool, len(c.Code))
	changed := false
	i := 0
	for i < len(c.Code) {
		if c.Code[i].Op != il.JUMP && c.Code[i].Op != il.HALT {
			i++
			continue
		}
		j := i + 1
		for j < len(c.Code) && c.Code[j].Op != il.LABEL {
			drop[j] = true
			changed = true
			j++
		}
		i = j
	}
	if !changed {
		return false
	}
	code, spans, _ := keep(c.Code, c.Spans, drop)
	c.Code, c.Spans = code, spans
	return true
}

// passRemoveEmptyWriteRaw is pass 13: drop WRITE_RAW("").
func passRemoveEmptyWriteRaw(c *Context) bool {
	drop := make([]bool, len(c.Code))
	any := false
	for i, inst := range c.Code {
		if inst.Op == il.WRITE_RAW && inst.Str == "" {
			drop[i] = true
			any = true
		}
	}
	if !any {
		return false
	}
	code, spans, changed := keep(c.Code, c.Spans, drop)
	c.Code, c.Spans = code, spans
	return changed
}
