// Package filters implements the builtin Liquid filter library invoked
// by CALL_FILTER. Filters are pure functions over the Value domain;
// errors are recoverable runtime faults (§4.6 "Error surface"),
// never Go panics.
package filters

import (
	"errors"
	"fmt"

	"github.com/liquidil/liquidil/internal/value"
)

// Func is one filter's implementation: input is the piped value, args
// are the positional arguments already evaluated, kwargs is the
// trailing keyword hash (nil if none were given).
type Func func(input value.Value, args []value.Value, kwargs *value.Map) (value.Value, error)

// Table resolves a filter name to its implementation, the dependency
// the VM's CALL_FILTER opcode consumes (internal/vm takes a Table so it
// never imports this package's registry directly, keeping the builtin
// set swappable by a host application).
type Table interface {
	Lookup(name string) (Func, bool)
}

// Registry is a plain map-backed Table.
type Registry map[string]Func

func (r Registry) Lookup(name string) (Func, bool) {
	f, ok := r[name]
	return f, ok
}

// Register adds or overrides a filter, for host applications extending
// the default table.
func (r Registry) Register(name string, fn Func) { r[name] = fn }

var errWrongArgCount = errors.New("filters: wrong number of arguments")

func arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Nil{}
	}
	return args[i]
}

func argErr(name string, detail string) error {
	return fmt.Errorf("filters: %s: %s", name, detail)
}
