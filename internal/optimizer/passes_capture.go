package optimizer

import "github.com/liquidil/liquidil/internal/il"

// passFoldConstantCaptures is pass 12: a `{% capture x %}...{% endcapture %}`
// whose body is pure literal text compiles to PUSH_CAPTURE, some
// WRITE_RAW instructions, POP_CAPTURE, ASSIGN(x) — fold that whole
// sequence to CONST_STRING(text), ASSIGN(x) when nothing in the body
// depends on runtime state.
func passFoldConstantCaptures(c *Context) bool {
	changed := false
	for i := 0; i < len(c.Code); i++ {
		if c.Code[i].Op != il.PUSH_CAPTURE {
			continue
		}
		j := i + 1
		text := ""
		pure := true
		for j < len(c.Code) && c.Code[j].Op != il.POP_CAPTURE {
			if c.Code[j].Op != il.WRITE_RAW {
				pure = false
				break
			}
			text += c.Code[j].Str
			j++
		}
		if !pure || j >= len(c.Code) || c.Code[j].Op != il.POP_CAPTURE {
			continue
		}
		assignIdx := j + 1
		if assignIdx >= len(c.Code) {
			continue
		}
		name, isAssignOp := isAssign(c.Code[assignIdx])
		if !isAssignOp {
			continue
		}
		assignOp := c.Code[assignIdx].Op
		for k := i; k <= j; k++ {
			c.Code[k] = il.Instruction{Op: il.NOOP}
		}
		// Re-emit as two instructions in place of the PUSH_CAPTURE slot
		// and the ASSIGN slot, leaving everything between as NOOPs for
		// pass 7 to strip.
		c.Code[i] = il.Instruction{Op: il.CONST_STRING, Str: text}
		c.Code[assignIdx] = il.Instruction{Op: assignOp, Str: name}
		changed = true
	}
	return changed
}
