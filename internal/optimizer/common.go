package optimizer

import (
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// isConst reports whether inst is one of the CONST_* pushes pass 1-3
// reason about (MAKE_RANGE and CONST_RANGE with runtime-only operands
// are intentionally excluded; CONST_RANGE itself is already constant
// and handled directly).
func isConst(inst il.Instruction) bool {
	switch inst.Op {
	case il.CONST_NIL, il.CONST_TRUE, il.CONST_FALSE, il.CONST_INT,
		il.CONST_FLOAT, il.CONST_STRING, il.CONST_RANGE, il.CONST_EMPTY, il.CONST_BLANK:
		return true
	}
	return false
}

// constValue evaluates a CONST_* instruction to its value.Value.
func constValue(inst il.Instruction) value.Value {
	switch inst.Op {
	case il.CONST_NIL:
		return value.Nil{}
	case il.CONST_TRUE:
		return value.Bool(true)
	case il.CONST_FALSE:
		return value.Bool(false)
	case il.CONST_INT:
		return value.Int(inst.Int)
	case il.CONST_FLOAT:
		return value.Float(inst.Float)
	case il.CONST_STRING:
		return value.String(inst.Str)
	case il.CONST_RANGE:
		return value.Range{Start: inst.Int, End: inst.Int2}
	case il.CONST_EMPTY:
		return value.EmptyLiteral{}
	case il.CONST_BLANK:
		return value.BlankLiteral{}
	}
	return value.Nil{}
}

// instForConst builds the CONST_* instruction that pushes v, or false if
// v has no literal encoding (lists/maps/drops never fold to constants).
func instForConst(v value.Value) (il.Instruction, bool) {
	switch t := v.(type) {
	case value.Nil:
		return il.Instruction{Op: il.CONST_NIL}, true
	case value.Bool:
		if t {
			return il.Instruction{Op: il.CONST_TRUE}, true
		}
		return il.Instruction{Op: il.CONST_FALSE}, true
	case value.Int:
		return il.Instruction{Op: il.CONST_INT, Int: int64(t)}, true
	case value.Float:
		return il.Instruction{Op: il.CONST_FLOAT, Float: float64(t)}, true
	case value.String:
		return il.Instruction{Op: il.CONST_STRING, Str: string(t)}, true
	case value.Range:
		return il.Instruction{Op: il.CONST_RANGE, Int: t.Start, Int2: t.End}, true
	case value.EmptyLiteral:
		return il.Instruction{Op: il.CONST_EMPTY}, true
	case value.BlankLiteral:
		return il.Instruction{Op: il.CONST_BLANK}, true
	}
	return il.Instruction{}, false
}

// producesBool reports whether inst is known, independent of its
// operands, to always leave a Bool on top of the stack — the condition
// pass 6 uses to recognize a redundant IS_TRUTHY.
func producesBool(inst il.Instruction) bool {
	switch inst.Op {
	case il.CONST_TRUE, il.CONST_FALSE, il.COMPARE, il.CASE_COMPARE,
		il.CONTAINS_OP, il.BOOL_NOT, il.IS_TRUTHY:
		return true
	}
	return false
}

// isAssign reports whether inst binds a variable, and if so its name.
func isAssign(inst il.Instruction) (string, bool) {
	if inst.Op == il.ASSIGN || inst.Op == il.ASSIGN_LOCAL {
		return inst.Str, true
	}
	return "", false
}

// keep filters code/spans in lockstep, dropping every index i where
// drop[i] is true. Label-ID-based jump operands are untouched by
// construction — deleting non-LABEL instructions never invalidates a
// jump target, since targets are label IDs, not positions, for as long
// as Run's sweeps last (pass 21 turns them into positions only after
// the last sweep).
func keep(code []il.Instruction, spans []il.Span, drop []bool) ([]il.Instruction, []il.Span, bool) {
	changed := false
	outCode := make([]il.Instruction, 0, len(code))
	outSpans := make([]il.Span, 0, len(spans))
	for i, inst := range code {
		if drop[i] {
			changed = true
			continue
		}
		outCode = append(outCode, inst)
		outSpans = append(outSpans, spans[i])
	}
	return outCode, outSpans, changed
}

// sameLookupChain reports whether two instructions are an identical
// pure lookup of the same path off the same base, for pass 17's
// redundancy check.
func sameLookupChain(a, b il.Instruction) bool {
	if a.Op != b.Op {
		return false
	}
	if a.Str != b.Str {
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

// referencesName reports whether inst reads variable name through
// FIND_VAR or FIND_VAR_PATH. No pass calls it.
func referencesName(inst il.Instruction, name string) bool {
	switch inst.Op {
	case il.FIND_VAR, il.FIND_VAR_PATH:
		return inst.Str == name
	}
	return false
}
