package optimizer

import (
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// passFoldConstantUnaryComparison is pass 1: evaluate IS_TRUTHY,
// BOOL_NOT, and COMPARE when their operands are immediately preceding
// CONST_* pushes.
func passFoldConstantUnaryComparison(c *Context) bool {
	changed := false
	for i := 1; i < len(c.Code); i++ {
		inst := c.Code[i]
		switch inst.Op {
		case il.IS_TRUTHY, il.BOOL_NOT:
			if !isConst(c.Code[i-1]) {
				continue
			}
			v := constValue(c.Code[i-1])
			result := value.Truthy(v)
			if inst.Op == il.BOOL_NOT {
				result = !result
			}
			folded, ok := instForConst(value.Bool(result))
			if !ok {
				continue
			}
			c.Code[i-1] = folded
			c.Code[i] = il.Instruction{Op: il.NOOP}
			changed = true

		case il.COMPARE:
			if i < 2 || !isConst(c.Code[i-2]) || !isConst(c.Code[i-1]) {
				continue
			}
			a := constValue(c.Code[i-2])
			b := constValue(c.Code[i-1])
			var result bool
			ok := true
			switch inst.Cmp {
			case il.CmpEQ:
				result = value.Equal(a, b)
			case il.CmpNE:
				result = !value.Equal(a, b)
			default:
				var op int
				switch inst.Cmp {
				case il.CmpLT:
					op = 0
				case il.CmpLE:
					op = 1
				case il.CmpGT:
					op = 2
				case il.CmpGE:
					op = 3
				}
				r, kind := value.Compare(op, a, b)
				if kind == value.CmpResultError {
					ok = false
				}
				result = r
			}
			if !ok {
				continue
			}
			folded, fok := instForConst(value.Bool(result))
			if !fok {
				continue
			}
			c.Code[i-2] = il.Instruction{Op: il.NOOP}
			c.Code[i-1] = folded
			c.Code[i] = il.Instruction{Op: il.NOOP}
			changed = true
		}
	}
	return changed
}

// purelyFoldableFilters lists the filters safe to evaluate at compile
// time: scalar-in, scalar-out, no reliance on host/filter-table state
// beyond the pure transform itself.
var purelyFoldableFilters = map[string]bool{
	"upcase": true, "downcase": true, "capitalize": true,
	"strip": true, "lstrip": true, "rstrip": true, "strip_newlines": true,
	"plus": true, "minus": true, "times": true, "divided_by": true,
	"modulo": true, "abs": true, "ceil": true, "floor": true, "round": true,
	"at_least": true, "at_most": true, "append": true, "prepend": true,
	"remove": true, "remove_first": true, "replace": true, "replace_first": true,
}

// passFoldConstantFilters is passes 2 and 15: evaluate a CALL_FILTER
// whose input and every positional argument are constants, for a
// filter on the pure-transform allowlist (no kwargs, since a constant
// kwargs hash would need BUILD_HASH folding this pass doesn't attempt).
func passFoldConstantFilters(c *Context) bool {
	if c.FilterTable == nil {
		return false
	}
	changed := false
	for i := 0; i < len(c.Code); i++ {
		inst := c.Code[i]
		if inst.Op != il.CALL_FILTER || inst.HasKwargs {
			continue
		}
		if !purelyFoldableFilters[inst.FilterName] {
			continue
		}
		n := inst.PosArgs
		if i-n-1 < 0 {
			continue
		}
		allConst := true
		for j := i - n; j <= i-1; j++ {
			if !isConst(c.Code[j]) {
				allConst = false
				break
			}
		}
		if !allConst || !isConst(c.Code[i-n-1]) {
			continue
		}
		fn, ok := c.FilterTable.Lookup(inst.FilterName)
		if !ok {
			continue
		}
		input := constValue(c.Code[i-n-1])
		args := make([]value.Value, n)
		for j := 0; j < n; j++ {
			args[j] = constValue(c.Code[i-n+j])
		}
		result, err := fn(input, args, nil)
		if err != nil {
			continue
		}
		folded, fok := instForConst(result)
		if !fok {
			continue
		}
		for j := i - n - 1; j < i; j++ {
			c.Code[j] = il.Instruction{Op: il.NOOP}
		}
		c.Code[i] = folded
		changed = true
	}
	return changed
}

// passFoldConstantWrites is pass 3: collapse CONST_* ; WRITE_VALUE into
// WRITE_RAW(stringified).
func passFoldConstantWrites(c *Context) bool {
	changed := false
	for i := 1; i < len(c.Code); i++ {
		if c.Code[i].Op != il.WRITE_VALUE || !isConst(c.Code[i-1]) {
			continue
		}
		text := value.Stringify(constValue(c.Code[i-1]))
		c.Code[i-1] = il.Instruction{Op: il.NOOP}
		c.Code[i] = il.Instruction{Op: il.WRITE_RAW, Str: text}
		changed = true
	}
	return changed
}
