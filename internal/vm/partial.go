package vm

import (
	"strings"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
)

// execPartial implements RENDER_PARTIAL/INCLUDE_PARTIAL/CONST_RENDER/
// CONST_INCLUDE (§6 "Partial IL arg map"). Stack order mirrors
// CALL_FILTER: the BUILD_HASH result is always on top, with the dynamic
// name (when the partial name wasn't a compile-time string literal)
// beneath it.
func (vm *VM) execPartial(ec *execContext, inst *il.Instruction) error {
	hashVal := ec.pop()
	kwargs, _ := hashVal.(*value.Map)
	if kwargs == nil {
		kwargs = value.NewMap()
	}

	name := inst.PartialName
	if inst.Op == il.RENDER_PARTIAL || inst.Op == il.INCLUDE_PARTIAL {
		name = value.Stringify(ec.pop())
	}

	if ec.scope.HasInterrupt() {
		return nil
	}

	if vm.Partials == nil {
		return vm.fault(ec, "no partial named '"+name+"' could be resolved")
	}

	limit := vm.Options.MaxRenderDepth
	if !inst.Isolated {
		limit = vm.Options.MaxIncludeDepth
	}
	if !ec.scope.EnterRenderDepth(limit) {
		return vm.fault(ec, "render depth exceeded while rendering '"+name+"'")
	}
	defer ec.scope.ExitRenderDepth()

	prog, err := vm.Partials.Compile(name)
	if err != nil {
		return vm.fault(ec, "could not compile partial '"+name+"': "+err.Error())
	}

	alias := vm.Partials.BaseName(name)
	if aliasVal, ok := kwargs.Get("__as__"); ok {
		alias = value.Stringify(aliasVal)
	}

	extra := map[string]value.Value{}
	for _, k := range kwargs.Keys() {
		if strings.HasPrefix(k, "__") {
			continue
		}
		if v, ok := kwargs.Get(k); ok {
			extra[k] = v
		}
	}

	withVal, hasWith := kwargs.Get("__with__")
	forVal, hasFor := kwargs.Get("__for__")

	switch {
	case hasFor:
		items, ok := materialize(forVal)
		if !ok {
			items = []value.Value{forVal}
		}
		n := len(items)
		for i, item := range items {
			bindings := map[string]value.Value{}
			for k, v := range extra {
				bindings[k] = v
			}
			bindings[alias] = item
			bindings["forloop"] = ForLoopDrop{Length: n, Index0: i, Name: alias}
			if err := vm.runPartialOnce(ec, prog, inst.Isolated, bindings); err != nil {
				return err
			}
		}
	case hasWith:
		bindings := map[string]value.Value{}
		for k, v := range extra {
			bindings[k] = v
		}
		// For `render`, a same-named keyword argument wins over a nil
		// `with` value; `include` always binds the `with` value.
		_, withNil := withVal.(value.Nil)
		if _, kw := extra[alias]; !(inst.Isolated && withNil && kw) {
			bindings[alias] = withVal
		}
		return vm.runPartialOnce(ec, prog, inst.Isolated, bindings)
	default:
		return vm.runPartialOnce(ec, prog, inst.Isolated, extra)
	}
	return nil
}

// runPartialOnce renders prog a single time with bindings in effect,
// either in a brand-new Scope (`render`, isolated) or as a temporary
// frame pushed onto the caller's Scope (`include`, shared — so
// interrupts and captures still flow through to the enclosing loop).
func (vm *VM) runPartialOnce(ec *execContext, prog *il.Program, isolated bool, bindings map[string]value.Value) error {
	if isolated {
		child := NewScope(bindings)
		child.renderDepth = ec.scope.renderDepth
		out, err := vm.Run(prog, child)
		if err != nil {
			return err
		}
		ec.scope.Write(out)
		return nil
	}

	ec.scope.PushFrame()
	for k, v := range bindings {
		ec.scope.Assign(k, v)
	}
	_, err := vm.Run(prog, ec.scope)
	ec.scope.PopFrame()
	return err
}
