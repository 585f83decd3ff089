package vm

import (
	"strconv"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// execForInit implements FOR_INIT (§4.6 "For loop slicing"):
// pop order is limit, then offset (unless offset:continue, which reads
// Scope's remembered next-index instead), then the collection, mirror
// of the parser's collection/offset/limit push order.
func (vm *VM) execForInit(ec *execContext, inst *il.Instruction) (bool, error) {
	var limit int64
	if inst.HasLimit {
		n, ok := value.AsInt(ec.pop())
		if !ok {
			err := vm.fault(ec, "invalid limit: in for loop")
			ec.ip = inst.RecoveryLabel
			return true, err
		}
		limit = n
	}

	var offset int64
	if inst.HasOffset {
		if inst.OffsetContinue {
			offset, _ = ec.scope.ForOffset(inst.LoopName)
		} else {
			n, ok := value.AsInt(ec.pop())
			if !ok {
				err := vm.fault(ec, "invalid offset: in for loop")
				ec.ip = inst.RecoveryLabel
				return true, err
			}
			offset = n
		}
	}

	collection := ec.pop()
	it, ok := newIterator(collection, offset, limit, inst.HasLimit, inst.Reversed)
	if !ok {
		it = &iterator{}
	}
	ec.loops = append(ec.loops, &activeLoop{
		kind: "forloop", iter: it,
		loopVarName: inst.LoopVar, startOffset: offset,
	})
	return false, nil
}

func (vm *VM) execForNext(ec *execContext, inst *il.Instruction) bool {
	top := ec.loops[len(ec.loops)-1]
	v, ok := top.iter.next()
	if !ok {
		ec.ip = inst.Label2
		return true
	}
	ec.push(v)
	return false
}

func (vm *VM) execForEnd(ec *execContext, inst *il.Instruction) {
	n := len(ec.loops) - 1
	top := ec.loops[n]
	ec.loops = ec.loops[:n]
	ec.scope.SetForOffset(inst.LoopName, top.startOffset+int64(top.iter.pos))
}

// execPushLoopVar implements PUSH_FORLOOP, building whichever loop-info
// drop matches the innermost active construct and binding it under the
// conventional name (`forloop`/`tablerowloop`).
func (vm *VM) execPushLoopVar(ec *execContext) {
	top := ec.loops[len(ec.loops)-1]
	switch top.kind {
	case "forloop":
		parent, ok := ec.scope.Lookup("forloop")
		if !ok {
			parent = value.Nil{}
		}
		ec.scope.Assign("forloop", ForLoopDrop{
			Length: top.iter.length(), Index0: top.iter.index0(),
			Name: top.loopVarName, Parent: parent,
		})
	case "tablerowloop":
		ec.scope.Assign("tablerowloop", TablerowLoopDrop{
			Length: top.iter.length(), Index0: top.iter.index0(), Cols: top.cols,
		})
	}
}

// execTablerowInit implements TABLEROW_INIT. Pop order is cols (when
// dynamic), then limit, then offset, then the collection (reversed
// tablerow is not a thing Liquid supports, unlike for).
func (vm *VM) execTablerowInit(ec *execContext, inst *il.Instruction) (bool, error) {
	dynamicCols := 0
	if inst.ColMode == il.ColDynamic {
		n, ok := value.AsInt(ec.pop())
		if !ok {
			err := vm.fault(ec, "invalid cols: in tablerow")
			ec.ip = inst.RecoveryLabel
			return true, err
		}
		dynamicCols = int(n)
	}

	var limit int64
	if inst.HasLimit {
		n, ok := value.AsInt(ec.pop())
		if !ok {
			err := vm.fault(ec, "invalid limit: in tablerow")
			ec.ip = inst.RecoveryLabel
			return true, err
		}
		limit = n
	}

	var offset int64
	if inst.HasOffset {
		n, ok := value.AsInt(ec.pop())
		if !ok {
			err := vm.fault(ec, "invalid offset: in tablerow")
			ec.ip = inst.RecoveryLabel
			return true, err
		}
		offset = n
	}

	collection := ec.pop()
	it, ok := newIterator(collection, offset, limit, inst.HasLimit, false)
	if !ok {
		it = &iterator{}
	}

	cols := it.length()
	switch inst.ColMode {
	case il.ColFixed:
		cols = inst.Cols
	case il.ColDynamic:
		cols = dynamicCols
	}
	if cols <= 0 {
		cols = 1
	}

	ec.loops = append(ec.loops, &activeLoop{kind: "tablerowloop", iter: it, cols: cols, loopVarName: inst.LoopVar})
	return false, nil
}

// execTablerowNext implements TABLEROW_NEXT's row/cell HTML bookkeeping
// (§4.6 "Tablerow row/cell emission").
func (vm *VM) execTablerowNext(ec *execContext, inst *il.Instruction) bool {
	top := ec.loops[len(ec.loops)-1]
	v, ok := top.iter.next()
	if !ok {
		ec.ip = inst.Label2
		return true
	}
	idx0 := top.iter.index0()
	cols := top.cols

	if idx0 == 0 {
		ec.scope.Write("<tr class=\"row1\">\n")
	} else {
		ec.scope.Write("</td>")
		if idx0%cols == 0 {
			row := idx0/cols + 1
			ec.scope.Write("</tr>\n<tr class=\"row" + strconv.Itoa(row) + "\">")
		}
	}
	col := idx0%cols + 1
	ec.scope.Write("<td class=\"col" + strconv.Itoa(col) + "\">")
	top.rowRendered = true

	ec.push(v)
	return false
}

func (vm *VM) execTablerowEnd(ec *execContext) {
	n := len(ec.loops) - 1
	top := ec.loops[n]
	ec.loops = ec.loops[:n]
	if top.rowRendered {
		ec.scope.Write("</td></tr>\n")
	} else {
		ec.scope.Write("<tr class=\"row1\">\n</tr>\n")
	}
}
