package value

import (
	"strconv"
	"strings"
)

// Truthy implements §4.6: only nil and false are falsy; 0, "",
// [], {} are truthy. EMPTY/BLANK literals are themselves falsy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Nil:
		return false
	case Bool:
		return bool(t)
	case EmptyLiteral, BlankLiteral:
		return false
	case Drop:
		if tlv, ok := v.(ToLiquidValue); ok {
			return Truthy(tlv.ToLiquidValue())
		}
		return true
	default:
		return true
	}
}

func isBlankString(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isEmptyCollection(v Value) (bool, bool) {
	switch t := v.(type) {
	case String:
		return len(t) == 0, true
	case *List:
		return len(t.Items) == 0, true
	case *Map:
		return t.Len() == 0, true
	case EmptyLiteral:
		return true, true
	}
	return false, false
}

// EqualsEmpty implements `x == empty`: x is an empty string/list/map,
// or is the empty literal itself.
func EqualsEmpty(v Value) bool {
	ok, is := isEmptyCollection(v)
	return is && ok
}

// EqualsBlank implements `x == blank`: also true for nil/false and
// whitespace-only strings, in addition to the empty rule.
func EqualsBlank(v Value) bool {
	switch t := v.(type) {
	case Nil, nil:
		return true
	case Bool:
		return !bool(t)
	case BlankLiteral:
		return true
	case String:
		return isBlankString(string(t))
	}
	if ok, is := isEmptyCollection(v); is {
		return ok
	}
	return false
}

// Equal implements the == operator's general equality, delegating to
// EqualsEmpty/EqualsBlank when either operand is the empty/blank
// sentinel. `blank == blank` and `empty == empty` are false per Liquid
// convention (§4.6).
func Equal(a, b Value) bool {
	_, aEmpty := a.(EmptyLiteral)
	_, bEmpty := b.(EmptyLiteral)
	_, aBlank := a.(BlankLiteral)
	_, bBlank := b.(BlankLiteral)

	switch {
	case aEmpty && bEmpty:
		return false
	case aBlank && bBlank:
		return false
	case aEmpty:
		return EqualsEmpty(b)
	case bEmpty:
		return EqualsEmpty(a)
	case aBlank:
		return EqualsBlank(b)
	case bBlank:
		return EqualsBlank(a)
	}

	if da, ok := a.(Drop); ok {
		if tlv, ok := da.(ToLiquidValue); ok {
			return Equal(tlv.ToLiquidValue(), b)
		}
	}
	if db, ok := b.(Drop); ok {
		if tlv, ok := db.(ToLiquidValue); ok {
			return Equal(a, tlv.ToLiquidValue())
		}
	}

	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok || b == nil
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Int:
			return float64(x) == float64(y)
		case Float:
			return x == y
		}
		return false
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Range:
		y, ok := b.(Range)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		return ok && x == y
	}
	return false
}

// CaseEqual implements CASE_COMPARE's stricter rule (§4.6):
// when the subject is blank/empty, only strict emptiness matches
// (matching EqualsEmpty exactly, never the inclusive blank rule); when
// the pattern is blank/empty, the inclusive rule applies as usual.
func CaseEqual(subject, pattern Value) bool {
	if isBlankOrEmptyLiteral(subject) {
		if isBlankOrEmptyLiteral(pattern) {
			return false
		}
		return strictEmpty(pattern)
	}
	if _, ok := pattern.(BlankLiteral); ok {
		return EqualsBlank(subject)
	}
	if _, ok := pattern.(EmptyLiteral); ok {
		return EqualsEmpty(subject)
	}
	return Equal(subject, pattern)
}

// strictEmpty is the narrower emptiness test CASE_COMPARE applies when
// the case subject itself is blank/empty: unlike the inclusive rule used
// everywhere else, whitespace-only strings do not count (§4.6,
// "CASE_COMPARE is stricter").
func strictEmpty(v Value) bool {
	switch t := v.(type) {
	case Nil:
		return true
	case Bool:
		return !bool(t)
	case String:
		return len(t) == 0
	case EmptyLiteral, BlankLiteral:
		return true
	}
	if empty, is := isEmptyCollection(v); is {
		return empty
	}
	return false
}

func isBlankOrEmptyLiteral(v Value) bool {
	switch v.(type) {
	case BlankLiteral, EmptyLiteral:
		return true
	}
	return false
}

// NumericCompareResult reports the outcome of a numeric comparison
// attempt, distinguishing "false because incomparable" from "true/false
// result" and "error" (§4.6: silent false for nil/bool/list/map
// vs a recoverable ArgumentError for unparseable strings).
type NumericCompareResult int

const (
	CmpResultOK NumericCompareResult = iota
	CmpResultSilentFalse
	CmpResultError
)

// AsInt coerces v to an integer for operands like for/tablerow's
// limit:/offset:/cols: (§9 "malformed numeric operand is a
// recoverable error"). Floats truncate toward zero; numeric strings
// parse; anything else fails.
func AsInt(v Value) (int64, bool) {
	switch t := v.(type) {
	case Int:
		return int64(t), true
	case Float:
		return int64(t), true
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v Value) (float64, bool) {
	return AsFloat(v)
}

// AsFloat coerces v to a float, for filters that do arithmetic
// (plus/minus/times/divided_by/round/ceil/floor/abs).
func AsFloat(v Value) (float64, bool) {
	switch t := v.(type) {
	case Int:
		return float64(t), true
	case Float:
		return float64(t), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	}
	return 0, false
}

// IsIntLike reports whether v is an Int; when it holds for both inputs
// to an arithmetic op, the result stays an Int rather than widening to
// Float, mirroring Ruby Liquid's Integer#+ Integer producing an Integer.
func IsIntLike(v Value) bool {
	switch v.(type) {
	case Int:
		return true
	}
	return false
}

// Compare evaluates `<,<=,>,>=` per §4.6. result tells the
// caller whether b is meaningful, should be silently false, or is a
// recoverable runtime error.
func Compare(op int, a, b Value) (result bool, kind NumericCompareResult) {
	switch a.(type) {
	case Nil, Bool, *List, *Map:
		return false, CmpResultSilentFalse
	}
	switch b.(type) {
	case Nil, Bool, *List, *Map:
		return false, CmpResultSilentFalse
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		// Mixed numeric vs non-numeric-parseable string: a recoverable
		// ArgumentError (§4.6), printed as a Liquid error and
		// treated as false by the caller.
		_, aIsStr := a.(String)
		_, bIsStr := b.(String)
		if aIsStr || bIsStr {
			return false, CmpResultError
		}
		return false, CmpResultSilentFalse
	}

	switch op {
	case 0: // lt
		return af < bf, CmpResultOK
	case 1: // le
		return af <= bf, CmpResultOK
	case 2: // gt
		return af > bf, CmpResultOK
	case 3: // ge
		return af >= bf, CmpResultOK
	}
	return false, CmpResultSilentFalse
}

// Contains implements the `contains` operator: substring test for
// strings, membership test for lists.
func Contains(haystack, needle Value) bool {
	switch h := haystack.(type) {
	case String:
		if n, ok := needle.(String); ok {
			return strings.Contains(string(h), string(n))
		}
		return false
	case *List:
		for _, it := range h.Items {
			if Equal(it, needle) {
				return true
			}
		}
		return false
	}
	return false
}
