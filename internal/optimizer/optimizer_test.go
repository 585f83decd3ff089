package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/il"
)

func TestParsePassSpecDSL(t *testing.T) {
	all, err := ParsePassSpec("*")
	require.NoError(t, err)
	assert.True(t, all[0])
	assert.True(t, all[22])

	empty, err := ParsePassSpec("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	cancel, err := ParsePassSpec("2,-2")
	require.NoError(t, err)
	assert.False(t, cancel[2])

	allExcept, err := ParsePassSpec("*,-2,-3")
	require.NoError(t, err)
	assert.False(t, allExcept[2])
	assert.False(t, allExcept[3])
	assert.True(t, allExcept[1])

	_, err = ParsePassSpec("99")
	assert.Error(t, err)
}

func TestFoldConstantWrites(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.CONST_INT, Int: 3},
		{Op: il.WRITE_VALUE},
	}}
	selected := map[int]bool{3: true, 7: true}
	out, _ := Run(prog, selected, nil, nil)
	require.Len(t, out.Code, 1)
	assert.Equal(t, il.WRITE_RAW, out.Code[0].Op)
	assert.Equal(t, "3", out.Code[0].Str)
}

func TestMergeWriteRaw(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.WRITE_RAW, Str: "a"},
		{Op: il.WRITE_RAW, Str: "b"},
		{Op: il.WRITE_RAW, Str: "c"},
	}}
	out, _ := Run(prog, map[int]bool{9: true, 7: true}, nil, nil)
	require.Len(t, out.Code, 1)
	assert.Equal(t, "abc", out.Code[0].Str)
}

func TestStripLabelResolvesJumps(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.JUMP, Label: 0},
		{Op: il.WRITE_RAW, Str: "skipped"},
		{Op: il.LABEL, Label: 0},
		{Op: il.WRITE_RAW, Str: "kept"},
	}}
	out, linked := Run(prog, map[int]bool{21: true}, nil, nil)
	assert.True(t, linked)
	for _, inst := range out.Code {
		assert.NotEqual(t, il.LABEL, inst.Op)
	}
	require.Len(t, out.Code, 3)
	assert.Equal(t, il.JUMP, out.Code[0].Op)
	assert.Equal(t, 2, out.Code[0].Label)
}

func TestRemoveInterruptChecksWhenNoBreakOrInclude(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.JUMP_IF_INTERRUPT, Label: 5},
		{Op: il.POP_INTERRUPT},
	}}
	out, _ := Run(prog, map[int]bool{22: true}, nil, nil)
	assert.Empty(t, out.Code)
}

func TestRemoveInterruptChecksKeptWhenBreakPresent(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.PUSH_INTERRUPT, Interrupt: il.InterruptBreak},
		{Op: il.JUMP_IF_INTERRUPT, Label: 5},
		{Op: il.POP_INTERRUPT},
	}}
	out, _ := Run(prog, map[int]bool{22: true}, nil, nil)
	require.Len(t, out.Code, 3)
}

// TestOptimizerFixedPointIsIdempotent feeds an already-optimized program
// back through Run with every pass enabled: a true fixed point has
// nothing left to fold/merge/strip a second time. The first run's output
// here has no jumps left; Run's passes read jump operands as label IDs,
// so a linked Program that still has jumps is not valid input to Run.
func TestOptimizerFixedPointIsIdempotent(t *testing.T) {
	prog := &il.Program{Code: []il.Instruction{
		{Op: il.WRITE_RAW, Str: "a"},
		{Op: il.WRITE_RAW, Str: "b"},
		{Op: il.CONST_INT, Int: 2},
		{Op: il.WRITE_VALUE},
		{Op: il.JUMP, Label: 0},
		{Op: il.WRITE_RAW, Str: "dead"},
		{Op: il.LABEL, Label: 0},
		{Op: il.HALT},
	}}
	selected := AllPassesEnabled()

	once, linkedOnce := Run(prog, selected, nil, nil)
	twice, linkedTwice := Run(once, selected, nil, nil)

	assert.Equal(t, once.Code, twice.Code)
	assert.Equal(t, once.Spans, twice.Spans)
	assert.Equal(t, once.RegisterCount, twice.RegisterCount)
	assert.Equal(t, linkedOnce, linkedTwice)
}

// TestPassesRegistryIsDenseAndOrdered guards the invariant ParsePassSpec
// relies on: every index from 0 through len(Passes)-1 is present and
// holds the pass with that Number.
func TestPassesRegistryIsDenseAndOrdered(t *testing.T) {
	for i, p := range Passes {
		assert.Equal(t, i, p.Number, "Passes[%d] has Number %d", i, p.Number)
		assert.NotNil(t, p.Run)
		assert.NotEmpty(t, p.Name)
	}
}
