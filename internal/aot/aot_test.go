package aot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/il"
)

func TestGoSourceEmitterProducesCompilableLookingSource(t *testing.T) {
	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.CONST_STRING, Str: "hello "})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.FIND_VAR, Str: "name"})
	b.Emit(il.Instruction{Op: il.WRITE_VALUE})
	b.Emit(il.Instruction{Op: il.HALT})
	prog := b.Program()

	src, err := GoSourceEmitter{}.Emit(prog, Options{Package: "tmpl", FuncName: "RenderGreeting"})
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "package tmpl")
	assert.Contains(t, out, "func RenderGreeting(")
	assert.Contains(t, out, "FIND_VAR name")
	assert.Contains(t, out, "encodedProgram")
}

func TestGoSourceEmitterDefaultsOptions(t *testing.T) {
	b := il.NewBuilder()
	b.Emit(il.Instruction{Op: il.HALT})
	prog := b.Program()

	src, err := GoSourceEmitter{}.Emit(prog, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(src), "package generated")
	assert.Contains(t, string(src), "func Render(")
}
