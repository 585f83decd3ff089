package linker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/linker"
	"github.com/liquidil/liquidil/internal/parser"
)

func TestLinkResolvesJumpLabelsToAbsoluteIndices(t *testing.T) {
	prog, err := parser.Parse("{% if a %}x{% else %}y{% endif %}")
	require.NoError(t, err)

	linked, err := linker.Link(prog)
	require.NoError(t, err)
	require.Equal(t, len(prog.Code), len(linked.Code))

	for _, inst := range linked.Code {
		switch inst.Op {
		case il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY, il.JUMP_IF_INTERRUPT:
			assert.GreaterOrEqual(t, inst.Label, 0)
			assert.Less(t, inst.Label, len(linked.Code))
		}
	}
}

func TestLinkLeavesLabelMarkersInPlace(t *testing.T) {
	prog, err := parser.Parse("{% if a %}x{% endif %}")
	require.NoError(t, err)

	linked, err := linker.Link(prog)
	require.NoError(t, err)

	found := false
	for _, inst := range linked.Code {
		if inst.Op == il.LABEL {
			found = true
		}
	}
	assert.True(t, found, "Link should not strip LABEL markers; that is the optimizer's job")
}

func TestLinkUnknownLabelIsAnError(t *testing.T) {
	prog := &il.Program{
		Code: []il.Instruction{
			{Op: il.JUMP, Label: 999},
			{Op: il.HALT},
		},
	}
	_, err := linker.Link(prog)
	assert.Error(t, err)
}

func TestLinkDoesNotMutateInput(t *testing.T) {
	prog, err := parser.Parse("{% if a %}x{% endif %}")
	require.NoError(t, err)

	before := make([]il.Instruction, len(prog.Code))
	copy(before, prog.Code)

	_, err = linker.Link(prog)
	require.NoError(t, err)

	assert.Equal(t, before, prog.Code)
}
