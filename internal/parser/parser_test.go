package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/parser"
)

func parse(t *testing.T, src string) *il.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return prog
}

func TestParseRawTextEmitsWriteRaw(t *testing.T) {
	listing := il.Print(parse(t, "hello world"))
	assert.Contains(t, listing, "WRITE_RAW")
	assert.Contains(t, listing, `"hello world"`)
}

func TestParseOutputEmitsFindVarAndWriteValue(t *testing.T) {
	listing := il.Print(parse(t, "{{ name }}"))
	assert.Contains(t, listing, "FIND_VAR")
	assert.Contains(t, listing, "WRITE_VALUE")
}

func TestParseFilterChainEmitsCallFilterPerStage(t *testing.T) {
	listing := il.Print(parse(t, "{{ name | upcase | strip }}"))
	assert.Equal(t, 2, strings.Count(listing, "CALL_FILTER"))
}

func TestParseIfElseEmitsJumpPair(t *testing.T) {
	listing := il.Print(parse(t, "{% if a %}x{% else %}y{% endif %}"))
	assert.Contains(t, listing, "JUMP_IF_FALSE")
	assert.Contains(t, listing, "JUMP")
}

func TestParseForEmitsLoopOpcodes(t *testing.T) {
	listing := il.Print(parse(t, "{% for x in items %}{{ x }}{% endfor %}"))
	assert.Contains(t, listing, "FOR_INIT")
	assert.Contains(t, listing, "FOR_NEXT")
}

func TestParseUnclosedTagIsAnError(t *testing.T) {
	_, err := parser.Parse("{% if a %}unclosed")
	assert.Error(t, err)
}

func TestParseAssignEmitsAssign(t *testing.T) {
	listing := il.Print(parse(t, "{% assign x = 1 %}"))
	assert.Contains(t, listing, "ASSIGN")
}

func TestParseDottedPathLooksUpEachSegment(t *testing.T) {
	listing := il.Print(parse(t, "{{ product.title }}"))
	assert.Contains(t, listing, "FIND_VAR")
	assert.Contains(t, listing, "LOOKUP_CONST_KEY")
	assert.Contains(t, listing, "title")
}
