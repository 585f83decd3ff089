// Package linker implements C5: resolving IL label IDs to absolute
// instruction indices, leaving the LABEL markers in the stream.
package linker

import (
	"fmt"

	"github.com/liquidil/liquidil/internal/il"
)

// Link performs the two passes described in §4.5: first record
// every LABEL(id) -> index, then rewrite every jump operand from label
// ID to absolute index. LABEL instructions are kept in the output (the
// VM steps over them; the render pipeline calls Link only when the
// optimizer's "strip LABEL" pass, #21, did not run); Link only resolves
// operands.
//
// Link returns a new Program; it does not mutate p in place, matching
// the optimizer passes' own contract of being total functions on the
// instruction list.
func Link(p *il.Program) (*il.Program, error) {
	offsets := make(map[int]int, 16)
	for i, inst := range p.Code {
		if inst.Op == il.LABEL {
			offsets[inst.Label] = i
		}
	}

	out := &il.Program{
		Code:          make([]il.Instruction, len(p.Code)),
		Spans:         append([]il.Span(nil), p.Spans...),
		RegisterCount: p.RegisterCount,
	}
	copy(out.Code, p.Code)

	resolve := func(id int) (int, error) {
		idx, ok := offsets[id]
		if !ok {
			return 0, fmt.Errorf("linker: unknown label L%d", id)
		}
		return idx, nil
	}

	for i := range out.Code {
		inst := &out.Code[i]
		switch inst.Op {
		case il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY, il.JUMP_IF_INTERRUPT:
			idx, err := resolve(inst.Label)
			if err != nil {
				return nil, err
			}
			inst.Label = idx
		case il.FOR_NEXT, il.TABLEROW_NEXT:
			idx1, err := resolve(inst.Label)
			if err != nil {
				return nil, err
			}
			idx2, err := resolve(inst.Label2)
			if err != nil {
				return nil, err
			}
			inst.Label, inst.Label2 = idx1, idx2
		case il.FOR_INIT, il.TABLEROW_INIT:
			if inst.HasRecovery {
				idx, err := resolve(inst.RecoveryLabel)
				if err != nil {
					return nil, err
				}
				inst.RecoveryLabel = idx
			}
		}
	}

	return out, nil
}
