package il

import (
	"fmt"
	"strings"
)

// Print renders a human-readable listing: instruction index, opcode,
// operands, and a source-range comment annotation, mirroring
// funvibe-funxy's Disassemble/disassembleInstruction idiom.
func Print(p *Program) string {
	var sb strings.Builder
	for i, inst := range p.Code {
		fmt.Fprintf(&sb, "%04d %-20s", i, inst.Op.String())
		sb.WriteString(operandString(inst))
		if i < len(p.Spans) && p.Spans[i].Valid {
			fmt.Fprintf(&sb, "  ; [%d,%d)", p.Spans[i].Start, p.Spans[i].End)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func operandString(inst Instruction) string {
	switch inst.Op {
	case WRITE_RAW, CONST_STRING:
		return fmt.Sprintf("%q", inst.Str)
	case WRITE_VAR, FIND_VAR, ASSIGN, ASSIGN_LOCAL, FIND_VAR_DYNAMIC, LOOKUP_CONST_KEY,
		LOOKUP_COMMAND, INCREMENT, DECREMENT:
		return inst.Str
	case WRITE_VAR_PATH, FIND_VAR_PATH:
		return fmt.Sprintf("%s.%s", inst.Str, strings.Join(inst.Keys, "."))
	case LOOKUP_CONST_PATH:
		return strings.Join(inst.Keys, ".")
	case CONST_INT:
		return fmt.Sprintf("%d", inst.Int)
	case CONST_FLOAT:
		return fmt.Sprintf("%g", inst.Float)
	case CONST_RANGE:
		return fmt.Sprintf("(%d..%d)", inst.Int, inst.Int2)
	case LABEL, JUMP, JUMP_IF_FALSE, JUMP_IF_TRUE, JUMP_IF_EMPTY, JUMP_IF_INTERRUPT:
		return fmt.Sprintf("L%d", inst.Label)
	case COMPARE, CASE_COMPARE:
		return inst.Cmp.String()
	case FOR_INIT:
		return fmt.Sprintf("var=%s loop=%s limit=%v offset=%v continue=%v reversed=%v",
			inst.LoopVar, inst.LoopName, inst.HasLimit, inst.HasOffset, inst.OffsetContinue, inst.Reversed)
	case FOR_NEXT, TABLEROW_NEXT:
		return fmt.Sprintf("continue=L%d break=L%d", inst.Label, inst.Label2)
	case TABLEROW_INIT:
		return fmt.Sprintf("var=%s loop=%s cols=%d mode=%d", inst.LoopVar, inst.LoopName, inst.Cols, inst.ColMode)
	case CALL_FILTER:
		return fmt.Sprintf("%s/%d kwargs=%v", inst.FilterName, inst.PosArgs, inst.HasKwargs)
	case STORE_TEMP, LOAD_TEMP:
		return fmt.Sprintf("r%d", inst.Int)
	case BUILD_HASH:
		return fmt.Sprintf("%d", inst.HashCount)
	case RENDER_PARTIAL, INCLUDE_PARTIAL, CONST_RENDER, CONST_INCLUDE:
		return fmt.Sprintf("%q isolated=%v args=%d", inst.PartialName, inst.Isolated, len(inst.Args))
	case PUSH_INTERRUPT:
		if inst.Interrupt == InterruptBreak {
			return "break"
		}
		return "continue"
	case IFCHANGED_CHECK:
		return inst.TagID
	case SET_CONTEXT:
		return fmt.Sprintf("%s", inst.Str)
	default:
		return ""
	}
}
