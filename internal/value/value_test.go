package value_test

import (
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/assert"

	"github.com/liquidil/liquidil/internal/value"
)

// equal wraps assert.Equal but appends a kr/pretty diff of want vs got
// on failure, since Value's tagged-union variants (especially *List/
// *Map) print unhelpfully little through testify's default formatter.
func equal(t *testing.T, want, got interface{}, msg string) {
	t.Helper()
	if !assert.ObjectsAreEqual(want, got) {
		t.Errorf("%s\n%s", msg, strings.Join(pretty.Diff(want, got), "\n"))
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    value.Value
		want bool
	}{
		{"nil value", value.Nil{}, false},
		{"false", value.Bool(false), false},
		{"true", value.Bool(true), true},
		{"zero int is truthy", value.Int(0), true},
		{"empty string is truthy", value.String(""), true},
		{"empty literal is falsy", value.EmptyLiteral{}, false},
		{"blank literal is falsy", value.BlankLiteral{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			equal(t, c.want, value.Truthy(c.v), "Truthy mismatch")
		})
	}
}

func TestEqualIntFloatCrossKind(t *testing.T) {
	assert.True(t, value.Equal(value.Int(3), value.Float(3.0)))
	assert.False(t, value.Equal(value.Int(3), value.Float(3.5)))
	assert.True(t, value.Equal(value.String("a"), value.String("a")))
	assert.False(t, value.Equal(value.String("a"), value.Int(1)))
}

func TestEqualEmptyAndBlankLiteralsNeverEqualThemselves(t *testing.T) {
	assert.False(t, value.Equal(value.EmptyLiteral{}, value.EmptyLiteral{}))
	assert.False(t, value.Equal(value.BlankLiteral{}, value.BlankLiteral{}))
}

func TestEqualListIsElementwise(t *testing.T) {
	a := &value.List{Items: []value.Value{value.Int(1), value.Int(2)}}
	b := &value.List{Items: []value.Value{value.Int(1), value.Int(2)}}
	c := &value.List{Items: []value.Value{value.Int(1), value.Int(3)}}
	assert.True(t, value.Equal(a, b))
	assert.False(t, value.Equal(a, c))
}

// CASE_COMPARE's asymmetric blank/empty rule: when the subject is
// blank/empty, only strict emptiness matches; when the pattern is, the
// inclusive rule applies.
func TestCaseEqualBlankAsymmetry(t *testing.T) {
	assert.True(t, value.CaseEqual(value.String(""), value.BlankLiteral{}))
	assert.False(t, value.CaseEqual(value.String(" "), value.EmptyLiteral{}))
	assert.True(t, value.CaseEqual(value.String(" "), value.BlankLiteral{}))
	assert.False(t, value.CaseEqual(value.BlankLiteral{}, value.String(" ")))
}

func TestCompareSilentFalseForNonComparableKinds(t *testing.T) {
	_, kind := value.Compare(0, value.Nil{}, value.Int(1))
	equal(t, value.CmpResultSilentFalse, kind, "Nil operand should be silently false")

	_, kind = value.Compare(0, value.Bool(true), value.Int(1))
	equal(t, value.CmpResultSilentFalse, kind, "Bool operand should be silently false")
}

func TestCompareUnparseableStringIsRecoverableError(t *testing.T) {
	_, kind := value.Compare(0, value.String("abc"), value.Int(1))
	equal(t, value.CmpResultError, kind, "non-numeric string should be a recoverable error, not silent false")
}

func TestCompareOperators(t *testing.T) {
	lt, kind := value.Compare(0, value.Int(1), value.Int(2))
	assert.True(t, lt)
	equal(t, value.CmpResultOK, kind, "")

	ge, _ := value.Compare(3, value.Float(2.5), value.Int(2))
	assert.True(t, ge)
}

func TestContainsSubstringAndMembership(t *testing.T) {
	assert.True(t, value.Contains(value.String("hello world"), value.String("wor")))
	assert.False(t, value.Contains(value.String("hello"), value.String("z")))

	list := &value.List{Items: []value.Value{value.String("a"), value.String("b")}}
	assert.True(t, value.Contains(list, value.String("b")))
	assert.False(t, value.Contains(list, value.String("c")))
}

func TestAsIntAndAsFloatCoercions(t *testing.T) {
	n, ok := value.AsInt(value.String(" 42 "))
	assert.True(t, ok)
	equal(t, int64(42), n, "AsInt should trim whitespace before parsing")

	_, ok = value.AsInt(value.String("nope"))
	assert.False(t, ok)

	f, ok := value.AsFloat(value.Int(7))
	assert.True(t, ok)
	equal(t, 7.0, f, "AsFloat should widen an Int")
}
