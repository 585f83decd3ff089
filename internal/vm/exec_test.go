package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/il"
)

// buildDividedByZeroProgram mirrors what the parser emits for
// `{{ x | divided_by: 0 }}`: push input, push the arg, CALL_FILTER,
// then the WRITE_VALUE every `{{ ... }}` filter chain ends with.
func buildDividedByZeroProgram() *il.Program {
	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.CONST_INT, Int: 1})
	b.Emit(il.Instruction{Op: il.CONST_INT, Int: 0})
	b.Emit(il.Instruction{Op: il.CALL_FILTER, FilterName: "divided_by", PosArgs: 1})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.HALT})
	return b.Program()
}

func TestCallFilterErrorSurfacesExactlyOnceInline(t *testing.T) {
	prog := buildDividedByZeroProgram()
	machine := New(filters.NewDefaultTable(), nil, Options{RenderErrorsInline: true})

	out, err := machine.Run(prog, NewScope(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "division by zero"), "output: %q", out)
	assert.Equal(t, "Liquid error: filters: divided_by: division by zero", out)
}

func TestCallFilterErrorAbortsInStrictMode(t *testing.T) {
	prog := buildDividedByZeroProgram()
	machine := New(filters.NewDefaultTable(), nil, Options{RenderErrorsInline: false})

	out, err := machine.Run(prog, NewScope(nil))
	require.Error(t, err)
	assert.Empty(t, out)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "division by zero")
}

func TestUnknownFilterFaultsOnceAndLeavesStackBalanced(t *testing.T) {
	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.CONST_INT, Int: 1})
	b.Emit(il.Instruction{Op: il.CALL_FILTER, FilterName: "nope", PosArgs: 0})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.WRITE_RAW, Str: " tail"})
	b.Emit(il.Instruction{Op: il.HALT})

	machine := New(nil, nil, Options{RenderErrorsInline: true})
	out, err := machine.Run(b.Program(), NewScope(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "unknown filter"), "output: %q", out)
	assert.True(t, strings.HasSuffix(out, " tail"), "WRITE_RAW after the fault must still run with a balanced stack: %q", out)
}

// stubPartials resolves exactly one named partial's source text, for
// exercising SET_CONTEXT's file/line threading without a full Engine.
type stubPartials struct {
	name, source string
}

func (s stubPartials) Compile(name string) (*il.Program, error) { return nil, errMissingPartialDep }
func (s stubPartials) BaseName(name string) string              { return name }
func (s stubPartials) Source(name string) (string, bool) {
	if name == s.name {
		return s.source, true
	}
	return "", false
}

func TestFaultReportsFileAndLineInsideInlinedPartial(t *testing.T) {
	partialSrc := "line one\nline two {{ 1 | divided_by: 0 }}\n"
	// offset of the CALL_FILTER's span: anywhere on "line two" (line 2).
	callOffset := strings.Index(partialSrc, "divided_by")

	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.SET_CONTEXT, Str: "greeting.liquid"})
	b.Emit(il.Instruction{Op: il.CONST_INT, Int: 1})
	b.SetSpan(il.Span{Start: callOffset, End: callOffset + 1, Valid: true})
	b.Emit(il.Instruction{Op: il.CONST_INT, Int: 0})
	b.Emit(il.Instruction{Op: il.CALL_FILTER, FilterName: "divided_by", PosArgs: 1})
	b.SetSpan(il.Span{})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.SET_CONTEXT, Str: ""})
	b.Emit(il.Instruction{Op: il.HALT})

	machine := New(filters.NewDefaultTable(), stubPartials{name: "greeting.liquid", source: partialSrc}, Options{RenderErrorsInline: true})
	out, err := machine.Run(b.Program(), NewScope(nil))
	require.NoError(t, err)
	assert.Contains(t, out, "greeting.liquid line 2")
}

func TestSetContextRestoresFileAfterInlinedBody(t *testing.T) {
	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.SET_CONTEXT, Str: "inner.liquid"})
	b.Emit(il.Instruction{Op: il.SET_CONTEXT, Str: ""})
	// once the inlined body closes, a fault here should carry no file.
	b.Emit(il.Instruction{Op: il.CONST_NIL})
	b.Emit(il.Instruction{Op: il.CALL_FILTER, FilterName: "missing", PosArgs: 0})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.HALT})

	machine := New(filters.NewDefaultTable(), stubPartials{name: "inner.liquid", source: "{{ 1 }}"}, Options{RenderErrorsInline: true})
	out, err := machine.Run(b.Program(), NewScope(nil))
	require.NoError(t, err)
	assert.NotContains(t, out, "inner.liquid")
	assert.Contains(t, out, "unknown filter")
}
