package vm

import (
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// step executes one instruction, returning jumped=true if it set ec.ip
// itself (so dispatch must not also advance it).
func (vm *VM) step(ec *execContext, inst *il.Instruction) (jumped bool, err error) {
	switch inst.Op {
	case il.WRITE_RAW:
		ec.scope.Write(inst.Str)

	case il.WRITE_VALUE:
		v := ec.pop()
		if !ec.scope.HasInterrupt() {
			ec.scope.Write(value.Stringify(v))
		}

	case il.WRITE_VAR:
		if !ec.scope.HasInterrupt() {
			v, _ := ec.scope.Lookup(inst.Str)
			ec.scope.Write(value.Stringify(v))
		}

	case il.WRITE_VAR_PATH:
		if !ec.scope.HasInterrupt() {
			v, _ := ec.scope.Lookup(inst.Str)
			for _, k := range inst.Keys {
				v = lookupConstKey(v, k)
			}
			ec.scope.Write(value.Stringify(v))
		}

	case il.CONST_NIL:
		ec.push(value.Nil{})
	case il.CONST_TRUE:
		ec.push(value.Bool(true))
	case il.CONST_FALSE:
		ec.push(value.Bool(false))
	case il.CONST_INT:
		ec.push(value.Int(inst.Int))
	case il.CONST_FLOAT:
		ec.push(value.Float(inst.Float))
	case il.CONST_STRING:
		ec.push(value.String(inst.Str))
	case il.CONST_RANGE:
		ec.push(value.Range{Start: inst.Int, End: inst.Int2})
	case il.CONST_EMPTY:
		ec.push(value.EmptyLiteral{})
	case il.CONST_BLANK:
		ec.push(value.BlankLiteral{})

	case il.MAKE_RANGE:
		hi := ec.pop()
		lo := ec.pop()
		loi, ok1 := value.AsInt(lo)
		hii, ok2 := value.AsInt(hi)
		if !ok1 || !ok2 {
			ec.push(value.ErrorMarker{Message: "range bounds must be numeric"})
			break
		}
		ec.push(value.Range{Start: loi, End: hii})

	case il.FIND_VAR:
		v, _ := ec.scope.Lookup(inst.Str)
		ec.push(v)

	case il.FIND_VAR_PATH:
		v, _ := ec.scope.Lookup(inst.Str)
		for _, k := range inst.Keys {
			v = lookupConstKey(v, k)
		}
		ec.push(v)

	case il.FIND_VAR_DYNAMIC:
		name := value.Stringify(ec.pop())
		v, _ := ec.scope.Lookup(name)
		ec.push(v)

	case il.LOOKUP_KEY:
		key := ec.pop()
		container := ec.pop()
		ec.push(lookupBracketKey(container, key))

	case il.LOOKUP_CONST_KEY:
		container := ec.pop()
		ec.push(lookupConstKey(container, inst.Str))

	case il.LOOKUP_CONST_PATH:
		container := ec.pop()
		for _, k := range inst.Keys {
			container = lookupConstKey(container, k)
		}
		ec.push(container)

	case il.LOOKUP_COMMAND:
		container := ec.pop()
		ec.push(lookupCommand(container, inst.Str))

	case il.PUSH_CAPTURE:
		ec.scope.PushCapture()
	case il.POP_CAPTURE:
		ec.push(value.String(ec.scope.PopCapture()))

	case il.LABEL:
		// marker only; stripped by optimizer pass 21 when it runs.

	case il.JUMP:
		ec.ip = inst.Label
		jumped = true
	case il.JUMP_IF_FALSE:
		if !value.Truthy(ec.pop()) {
			ec.ip = inst.Label
			jumped = true
		}
	case il.JUMP_IF_TRUE:
		if value.Truthy(ec.pop()) {
			ec.ip = inst.Label
			jumped = true
		}
	case il.JUMP_IF_EMPTY:
		if value.EqualsEmpty(ec.peek()) {
			ec.pop()
			ec.ip = inst.Label
			jumped = true
		}
	case il.JUMP_IF_INTERRUPT:
		if kind, pending := ec.scope.PendingInterrupt(); pending {
			if kind == il.InterruptBreak {
				ec.ip = inst.Label
				jumped = true
			} else {
				ec.scope.ClearInterrupt()
			}
		}
	case il.HALT:
		ec.ip = len(ec.prog.Code)
		jumped = true

	case il.COMPARE:
		err = vm.execCompare(ec, inst.Cmp)
	case il.CASE_COMPARE:
		pattern := ec.pop()
		subject := ec.pop()
		ec.push(value.Bool(value.CaseEqual(subject, pattern)))
	case il.CONTAINS_OP:
		needle := ec.pop()
		haystack := ec.pop()
		ec.push(value.Bool(value.Contains(haystack, needle)))
	case il.BOOL_NOT:
		ec.push(value.Bool(!value.Truthy(ec.pop())))
	case il.IS_TRUTHY:
		ec.push(value.Bool(value.Truthy(ec.pop())))

	case il.PUSH_SCOPE:
		ec.scope.PushFrame()
	case il.POP_SCOPE:
		ec.scope.PopFrame()
	case il.ASSIGN:
		v := ec.pop()
		if !ec.scope.HasInterrupt() {
			if _, isErr := v.(value.ErrorMarker); !isErr {
				ec.scope.Assign(inst.Str, v)
			}
		}
	case il.ASSIGN_LOCAL:
		v := ec.pop()
		ec.scope.Assign(inst.Str, v)

	case il.FOR_INIT:
		jumped, err = vm.execForInit(ec, inst)
	case il.FOR_NEXT:
		jumped = vm.execForNext(ec, inst)
	case il.FOR_END:
		vm.execForEnd(ec, inst)
	case il.PUSH_FORLOOP:
		vm.execPushLoopVar(ec)
	case il.POP_FORLOOP:
		// the frame opened by FOR_INIT's PUSH_SCOPE discards the binding.

	case il.TABLEROW_INIT:
		jumped, err = vm.execTablerowInit(ec, inst)
	case il.TABLEROW_NEXT:
		jumped = vm.execTablerowNext(ec, inst)
	case il.TABLEROW_END:
		vm.execTablerowEnd(ec)

	case il.PUSH_INTERRUPT:
		ec.scope.SetInterrupt(inst.Interrupt)
	case il.POP_INTERRUPT:
		ec.scope.ClearInterrupt()

	case il.INCREMENT:
		ec.push(value.Int(ec.scope.Increment(inst.Str)))
	case il.DECREMENT:
		ec.push(value.Int(ec.scope.Decrement(inst.Str)))
	case il.CYCLE_STEP:
		ec.push(vm.execCycleStep(ec, inst.Str, inst.CycleValues))
	case il.CYCLE_STEP_VAR:
		name := value.Stringify(ec.pop())
		ec.push(vm.execCycleStep(ec, name, inst.CycleValues))

	case il.RENDER_PARTIAL, il.INCLUDE_PARTIAL, il.CONST_RENDER, il.CONST_INCLUDE:
		err = vm.execPartial(ec, inst)

	case il.DUP:
		ec.push(ec.peek())
	case il.POP:
		ec.pop()
	case il.BUILD_HASH:
		ec.push(vm.execBuildHash(ec, inst.HashCount))
	case il.STORE_TEMP:
		ec.scope.StoreTemp(int(inst.Int), ec.pop())
	case il.LOAD_TEMP:
		ec.push(ec.scope.LoadTemp(int(inst.Int)))

	case il.CALL_FILTER:
		err = vm.execCallFilter(ec, inst)

	case il.IFCHANGED_CHECK:
		text := value.Stringify(ec.pop())
		if ec.scope.IfchangedCheck(inst.TagID, text) && !ec.scope.HasInterrupt() {
			ec.scope.Write(text)
		}
	case il.SET_CONTEXT:
		vm.execSetContext(ec, inst)
	case il.NOOP:

	default:
		err = errUnknownOpcode
	}
	return jumped, err
}

func (vm *VM) execCompare(ec *execContext, cmp il.CompareOp) error {
	b := ec.pop()
	a := ec.pop()
	switch cmp {
	case il.CmpEQ:
		ec.push(value.Bool(value.Equal(a, b)))
		return nil
	case il.CmpNE:
		ec.push(value.Bool(!value.Equal(a, b)))
		return nil
	}
	var op int
	switch cmp {
	case il.CmpLT:
		op = 0
	case il.CmpLE:
		op = 1
	case il.CmpGT:
		op = 2
	case il.CmpGE:
		op = 3
	}
	result, kind := value.Compare(op, a, b)
	if kind == value.CmpResultError {
		ec.push(value.Bool(false))
		return vm.fault(ec, "comparison of "+a.Kind().String()+" and "+b.Kind().String()+" failed")
	}
	ec.push(value.Bool(result))
	return nil
}

func (vm *VM) execBuildHash(ec *execContext, n int) value.Value {
	buf := make([]value.Value, 2*n)
	for i := 2*n - 1; i >= 0; i-- {
		buf[i] = ec.pop()
	}
	m := value.NewMap()
	for i := 0; i < n; i++ {
		k := value.Stringify(buf[2*i])
		m.Set(k, buf[2*i+1])
	}
	return m
}

// execSetContext implements SET_CONTEXT: a non-empty Str enters an
// inlined partial body (pass 0), recording file/source so fault() can
// report a line inside that body's own text; an empty Str restores
// whatever was in effect before that body was entered.
func (vm *VM) execSetContext(ec *execContext, inst *il.Instruction) {
	if inst.Str != "" {
		ec.fileStack = append(ec.fileStack, fileFrame{file: ec.file, source: ec.source})
		ec.file = inst.Str
		ec.source = ""
		if vm.Partials != nil {
			if src, ok := vm.Partials.Source(inst.Str); ok {
				ec.source = src
			}
		}
		return
	}
	if n := len(ec.fileStack); n > 0 {
		prev := ec.fileStack[n-1]
		ec.fileStack = ec.fileStack[:n-1]
		ec.file = prev.file
		ec.source = prev.source
	}
}

// execCallFilter implements CALL_FILTER. On error it pushes the lone
// value a subsequent WRITE_VALUE always expects and reports the fault
// exactly once: inline mode leaves the marker for WRITE_VALUE to
// serialize (fault's own inline write is skipped so the message isn't
// duplicated); strict mode aborts before anything is serialized, so it
// pushes nothing render-visible and just propagates fault's error.
func (vm *VM) execCallFilter(ec *execContext, inst *il.Instruction) error {
	n := inst.PosArgs
	items := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		items[i] = ec.pop()
	}
	args := items
	var kwargs *value.Map
	if inst.HasKwargs && n > 0 {
		if hm, ok := items[n-1].(*value.Map); ok {
			kwargs = hm
		}
		args = items[:n-1]
	}
	input := ec.pop()

	if vm.Filters == nil {
		return vm.faultFilter(ec, "unknown filter '"+inst.FilterName+"'")
	}
	fn, ok := vm.Filters.Lookup(inst.FilterName)
	if !ok {
		return vm.faultFilter(ec, "unknown filter '"+inst.FilterName+"'")
	}
	result, ferr := fn(input, args, kwargs)
	if ferr != nil {
		return vm.faultFilter(ec, ferr.Error())
	}
	ec.push(result)
	return nil
}

// faultFilter is execCallFilter's shared error path: in inline mode it
// pushes an ErrorMarker for the following WRITE_VALUE to serialize and
// returns nil so dispatch continues; in strict mode it leaves the
// stack alone and returns the aborting *RuntimeError.
func (vm *VM) faultFilter(ec *execContext, msg string) error {
	if vm.Options.RenderErrorsInline {
		file, line := ec.location()
		ec.push(value.ErrorMarker{Message: formatFault(file, line, msg), Location: locationString(file, line)})
		return nil
	}
	return vm.fault(ec, msg)
}

func (vm *VM) execCycleStep(ec *execContext, identity string, values []il.CycleValue) value.Value {
	idx := ec.scope.CycleIndex(identity, len(values))
	if idx < 0 || idx >= len(values) {
		return value.Nil{}
	}
	cv := values[idx]
	if cv.IsVar {
		v, _ := ec.scope.Lookup(cv.Var)
		return v
	}
	return value.FromGo(cv.Lit)
}
