package filters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/value"
)

func call(t *testing.T, table filters.Table, name string, in value.Value, args ...value.Value) (value.Value, error) {
	t.Helper()
	fn, ok := table.Lookup(name)
	require.True(t, ok, "filter %q not registered", name)
	return fn(in, args, nil)
}

func TestDefaultTableRegistersEveryBuiltin(t *testing.T) {
	table := filters.NewDefaultTable()
	names := []string{
		"upcase", "downcase", "capitalize", "strip", "replace", "append", "split", "slice",
		"size", "first", "last", "reverse", "join", "sort", "uniq", "compact", "map", "where",
		"plus", "minus", "times", "divided_by", "modulo", "abs", "ceil", "floor", "round",
		"default", "json",
	}
	for _, name := range names {
		_, ok := table.Lookup(name)
		assert.True(t, ok, "expected builtin filter %q to be registered", name)
	}
	_, ok := table.Lookup("not_a_real_filter")
	assert.False(t, ok)
}

func TestStringFilters(t *testing.T) {
	table := filters.NewDefaultTable()

	out, err := call(t, table, "upcase", value.String("liquid"))
	require.NoError(t, err)
	assert.Equal(t, value.String("LIQUID"), out)

	out, err = call(t, table, "append", value.String("hello"), value.String(" world"))
	require.NoError(t, err)
	assert.Equal(t, value.String("hello world"), out)

	_, err = call(t, table, "append", value.String("hello"))
	assert.Error(t, err, "append with no argument should fault")

	out, err = call(t, table, "replace", value.String("a a a"), value.String("a"), value.String("b"))
	require.NoError(t, err)
	assert.Equal(t, value.String("b b b"), out)
}

func TestArrayFilters(t *testing.T) {
	table := filters.NewDefaultTable()
	list := &value.List{Items: []value.Value{value.Int(3), value.Int(1), value.Int(2)}}

	out, err := call(t, table, "size", list)
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), out)

	out, err = call(t, table, "first", list)
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), out)

	out, err = call(t, table, "join", list, value.String(","))
	require.NoError(t, err)
	assert.Equal(t, value.String("3,1,2"), out)

	out, err = call(t, table, "sort", list)
	require.NoError(t, err)
	sorted, ok := out.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(2), value.Int(3)}, sorted.Items)
}

func TestNumericFilters(t *testing.T) {
	table := filters.NewDefaultTable()

	out, err := call(t, table, "plus", value.Int(2), value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), out)

	out, err = call(t, table, "divided_by", value.Int(10), value.Int(5))
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), out)

	_, err = call(t, table, "divided_by", value.Int(10), value.Int(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")

	_, err = call(t, table, "plus", value.String("nope"), value.Int(1))
	assert.Error(t, err, "plus with a non-numeric operand should fault")
}

func TestMiscFilters(t *testing.T) {
	table := filters.NewDefaultTable()

	out, err := call(t, table, "default", value.Nil{}, value.String("fallback"))
	require.NoError(t, err)
	assert.Equal(t, value.String("fallback"), out)

	out, err = call(t, table, "default", value.String("set"), value.String("fallback"))
	require.NoError(t, err)
	assert.Equal(t, value.String("set"), out)

	m := value.NewMap()
	m.Set("a", value.Int(1))
	out, err = call(t, table, "json", m)
	require.NoError(t, err)
	assert.Equal(t, value.String(`{"a":1}`), out)
}
