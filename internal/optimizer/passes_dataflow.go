package optimizer

import (
	"golang.org/x/exp/maps"

	"github.com/liquidil/liquidil/internal/il"
)

// passPropagateConstants is pass 14: when a name is assigned exactly
// once in the whole program via ASSIGN immediately preceded by a
// CONST_* push, replace every later FIND_VAR of that name with the
// same constant. This is a whole-program, control-flow-insensitive
// approximation of "single-definition dominates" — sound for the
// common top-level `{% assign x = <literal> %}` case, but it does not
// attempt dominance analysis across branches, so a name whose ASSIGN
// comes after the first LABEL, jump or loop start (for example one side
// of an `if`) is conservatively left alone, and so is a name that is
// also bound by ASSIGN_LOCAL (loop variables, block-scoped rebinding).
func passPropagateConstants(c *Context) bool {
	counts := map[string]int{}
	constIdx := map[string]int{}
	for i, inst := range c.Code {
		name, isA := isAssign(inst)
		if !isA {
			continue
		}
		counts[name]++
		if inst.Op == il.ASSIGN && i > 0 && isConst(c.Code[i-1]) {
			constIdx[name] = i - 1
		}
	}

	changed := false
	for name, idx := range constIdx {
		branched := false
		for _, prev := range c.Code[:idx] {
			switch prev.Op {
			case il.LABEL, il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY,
				il.JUMP_IF_INTERRUPT, il.FOR_INIT, il.TABLEROW_INIT:
				branched = true
			}
		}
		if counts[name] != 1 || branched {
			continue
		}
		assignIdx := idx + 1
		folded := c.Code[idx]
		for i := assignIdx + 1; i < len(c.Code); i++ {
			if c.Code[i].Op == il.FIND_VAR && c.Code[i].Str == name {
				c.Code[i] = folded
				changed = true
			}
		}
	}
	return changed
}

// loopBodyBounds finds, for each FOR_INIT/TABLEROW_INIT at index start,
// the matching END instruction's index by tracking nesting depth (loop
// constructs never interleave illegally — a nested loop's INIT/END pair
// is always fully contained between its enclosing loop's INIT and END).
func loopBodyBounds(code []il.Instruction, start int) (end int, ok bool) {
	openOp, closeOp := code[start].Op, il.FOR_END
	if openOp == il.TABLEROW_INIT {
		closeOp = il.TABLEROW_END
	}
	depth := 0
	for i := start; i < len(code); i++ {
		if code[i].Op == openOp {
			depth++
		}
		if code[i].Op == closeOp {
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// passHoistLoopInvariants is pass 16: for each loop, find the first
// FIND_VAR or FIND_VAR_PATH in its body whose base variable is never
// reassigned inside the loop and is not the loop's own binding, move that
// single lookup above FOR_INIT/TABLEROW_INIT, and cache it in a fresh
// register so the body reads LOAD_TEMP instead of recomputing it every
// iteration. Each call hoists at most one expression in the whole
// program (the insertion shifts indices); repeated sweeps hoist
// additional candidates.
func passHoistLoopInvariants(c *Context) bool {
	changed := false
	for i := 0; i < len(c.Code); i++ {
		if c.Code[i].Op != il.FOR_INIT && c.Code[i].Op != il.TABLEROW_INIT {
			continue
		}
		end, ok := loopBodyBounds(c.Code, i)
		if !ok {
			continue
		}
		loopVar := c.Code[i].LoopVar

		reassigned := map[string]bool{}
		for k := i + 1; k < end; k++ {
			if name, isA := isAssign(c.Code[k]); isA {
				reassigned[name] = true
			}
		}

		for k := i + 1; k < end; k++ {
			inst := c.Code[k]
			if inst.Op != il.FIND_VAR_PATH && inst.Op != il.FIND_VAR {
				continue
			}
			if inst.Str == loopVar || inst.Str == "forloop" || inst.Str == "tablerowloop" {
				continue
			}
			if reassigned[inst.Str] {
				continue
			}
			reg := c.RegisterCount
			c.RegisterCount++

			hoisted := inst
			hoistedSpan := c.Spans[k]

			c.Code = append(c.Code, il.Instruction{}, il.Instruction{})
			c.Spans = append(c.Spans, il.Span{}, il.Span{})
			copy(c.Code[i+2:], c.Code[i:])
			copy(c.Spans[i+2:], c.Spans[i:])
			c.Code[i] = hoisted
			c.Spans[i] = hoistedSpan
			c.Code[i+1] = il.Instruction{Op: il.STORE_TEMP, Int: int64(reg)}
			c.Spans[i+1] = hoistedSpan

			c.Code[k+2] = il.Instruction{Op: il.LOAD_TEMP, Int: int64(reg)}
			changed = true
			break
		}
		if changed {
			break // indices shifted; let the next sweep continue.
		}
	}
	return changed
}

// passCacheRepeatedLookups is pass 17: when the same FIND_VAR_PATH
// appears twice in a row within a straight-line run (no intervening
// assignment to its base name, loop boundary, or partial call that
// could change scope), cache the first occurrence's result in a
// register via DUP;STORE_TEMP and replace the second occurrence with
// LOAD_TEMP.
func passCacheRepeatedLookups(c *Context) bool {
	changed := false
	for i := 0; i < len(c.Code); i++ {
		first := c.Code[i]
		if first.Op != il.FIND_VAR_PATH {
			continue
		}
		for j := i + 1; j < len(c.Code); j++ {
			inst := c.Code[j]
			if name, isA := isAssign(inst); isA && name == first.Str {
				break
			}
			switch inst.Op {
			case il.FOR_INIT, il.TABLEROW_INIT, il.FOR_END, il.TABLEROW_END,
				il.PUSH_SCOPE, il.POP_SCOPE, il.LABEL,
				il.RENDER_PARTIAL, il.INCLUDE_PARTIAL, il.CONST_RENDER, il.CONST_INCLUDE:
				j = len(c.Code) // stop scanning this run entirely
				continue
			}
			if sameLookupChain(first, inst) {
				reg := c.RegisterCount
				c.RegisterCount++
				c.Code = append(c.Code, il.Instruction{}, il.Instruction{})
				c.Spans = append(c.Spans, il.Span{}, il.Span{})
				copy(c.Code[i+3:], c.Code[i+1:])
				copy(c.Spans[i+3:], c.Spans[i+1:])
				c.Code[i+1] = il.Instruction{Op: il.DUP}
				c.Code[i+2] = il.Instruction{Op: il.STORE_TEMP, Int: int64(reg)}
				c.Code[j+2] = il.Instruction{Op: il.LOAD_TEMP, Int: int64(reg)}
				changed = true
				return changed // indices shifted; resume next sweep.
			}
		}
	}
	return changed
}

// passValueNumbering is pass 18: eliminate an immediately-repeated pure
// instruction (same opcode and operands back to back, with nothing
// else between) by replacing the second occurrence with DUP. This
// covers the degenerate but real case of a value computed twice in a
// row; a full global value-numbering pass across branches is out of
// scope here.
func passValueNumbering(c *Context) bool {
	changed := false
	for i := 0; i+1 < len(c.Code); i++ {
		a, b := c.Code[i], c.Code[i+1]
		if !isPureProducer(a) {
			continue
		}
		if !instructionsEqual(a, b) {
			continue
		}
		c.Code[i+1] = il.Instruction{Op: il.DUP}
		changed = true
	}
	return changed
}

func isPureProducer(inst il.Instruction) bool {
	switch inst.Op {
	case il.CONST_NIL, il.CONST_TRUE, il.CONST_FALSE, il.CONST_INT, il.CONST_FLOAT,
		il.CONST_STRING, il.CONST_RANGE, il.CONST_EMPTY, il.CONST_BLANK,
		il.FIND_VAR, il.FIND_VAR_PATH:
		return true
	}
	return false
}

func instructionsEqual(a, b il.Instruction) bool {
	if a.Op != b.Op || a.Str != b.Str || a.Int != b.Int || a.Int2 != b.Int2 || a.Float != b.Float {
		return false
	}
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}

// passRegisterAllocation is pass 19: a linear-scan reuse of temp
// register indices. Register i's live range runs from its first
// STORE_TEMP(i) to its last STORE_TEMP(i) or LOAD_TEMP(i); a range that
// ends inside a loop (between a LABEL and a later JUMP back to it) is
// extended to that JUMP, since the body runs again. Registers whose
// ranges never overlap are coalesced onto the same index, shrinking
// RegisterCount.
func passRegisterAllocation(c *Context) bool {
	type rng struct{ start, end int }
	ranges := map[int]*rng{}
	labelAt := map[int]int{}
	for i, inst := range c.Code {
		switch inst.Op {
		case il.LABEL:
			labelAt[inst.Label] = i
		case il.STORE_TEMP:
			idx := int(inst.Int)
			if ranges[idx] == nil {
				ranges[idx] = &rng{start: i, end: i}
			} else if i > ranges[idx].end {
				ranges[idx].end = i
			}
		case il.LOAD_TEMP:
			idx := int(inst.Int)
			if ranges[idx] != nil && i > ranges[idx].end {
				ranges[idx].end = i
			}
		}
	}
	for q, inst := range c.Code {
		p, ok := labelAt[inst.Label]
		if inst.Op != il.JUMP || !ok || p > q {
			continue
		}
		for _, r := range ranges {
			if r.start < q && r.end >= p && r.end < q {
				r.end = q
			}
		}
	}
	if len(ranges) == 0 {
		return false
	}

	order := maps.Keys(ranges)
	// simple insertion sort by start; typically a handful of registers
	// per program, so an O(n^2) pass here is not worth a sort import.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && ranges[order[j]].start < ranges[order[j-1]].start; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	remap := map[int]int{}
	var freeEnds []struct {
		reg int
		end int
	}
	next := 0
	for _, idx := range order {
		r := ranges[idx]
		assigned := -1
		for k, f := range freeEnds {
			if f.end < r.start {
				assigned = f.reg
				freeEnds = append(freeEnds[:k], freeEnds[k+1:]...)
				break
			}
		}
		if assigned == -1 {
			assigned = next
			next++
		}
		remap[idx] = assigned
		freeEnds = append(freeEnds, struct {
			reg int
			end int
		}{assigned, r.end})
	}

	changed := false
	for i := range c.Code {
		switch c.Code[i].Op {
		case il.STORE_TEMP, il.LOAD_TEMP:
			newIdx := remap[int(c.Code[i].Int)]
			if int64(newIdx) != c.Code[i].Int {
				c.Code[i].Int = int64(newIdx)
				changed = true
			}
		}
	}
	if next < c.RegisterCount {
		c.RegisterCount = next
		changed = true
	} else if next > c.RegisterCount {
		c.RegisterCount = next
	}
	return changed
}
