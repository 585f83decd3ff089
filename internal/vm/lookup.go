package vm

import "github.com/liquidil/liquidil/internal/value"

// lookupConstKey implements dot-property semantics (§4.1
// "Lookup"): it resolves the `size`/`length`/`first`/`last` commands
// against lists/strings/maps/ranges, and otherwise does an ordinary
// map/drop key lookup; a list is not indexed by a numeric-looking key
// here (that is lookupBracketKey's job).
func lookupConstKey(container value.Value, key string) value.Value {
	if v, ok := commandValue(container, key); ok {
		return v
	}
	return genericLookup(container, key)
}

// lookupCommand is LOOKUP_COMMAND's fast path: the same command
// resolution lookupConstKey falls back to, called directly when the
// optimizer already knows the key names a command.
func lookupCommand(container value.Value, name string) value.Value {
	if v, ok := commandValue(container, name); ok {
		return v
	}
	return value.Nil{}
}

// lookupBracketKey implements bracket semantics: integer index or
// string key lookup only, no size/first/last command resolution
// (§4.1 "LOOKUP_KEY (bracket semantics: integer/string keys
// only, no reserved-name commands)").
func lookupBracketKey(container, key value.Value) value.Value {
	switch c := container.(type) {
	case *value.List:
		if i, ok := value.AsInt(key); ok {
			return listAt(c, i)
		}
		return value.Nil{}
	default:
		return genericLookup(container, value.Stringify(key))
	}
}

func commandValue(container value.Value, key string) (value.Value, bool) {
	switch key {
	case "size", "length":
		switch c := container.(type) {
		case value.String:
			return value.Int(len([]rune(string(c)))), true
		case *value.List:
			return value.Int(len(c.Items)), true
		case *value.Map:
			return value.Int(c.Len()), true
		case value.Range:
			return value.Int(c.Len()), true
		}
	case "first":
		switch c := container.(type) {
		case *value.List:
			if len(c.Items) == 0 {
				return value.Nil{}, true
			}
			return c.Items[0], true
		case value.Range:
			if c.Len() == 0 {
				return value.Nil{}, true
			}
			return c.At(0), true
		}
	case "last":
		switch c := container.(type) {
		case *value.List:
			if len(c.Items) == 0 {
				return value.Nil{}, true
			}
			return c.Items[len(c.Items)-1], true
		case value.Range:
			n := c.Len()
			if n == 0 {
				return value.Nil{}, true
			}
			return c.At(n - 1), true
		}
	}
	return nil, false
}

func listAt(l *value.List, i int64) value.Value {
	if i < 0 {
		i += int64(len(l.Items))
	}
	if i < 0 || i >= int64(len(l.Items)) {
		return value.Nil{}
	}
	return l.Items[i]
}

// genericLookup is the ordinary map/drop key lookup every non-command
// key (and every bracket key) falls back to.
func genericLookup(container value.Value, key string) value.Value {
	switch c := container.(type) {
	case *value.Map:
		if v, ok := c.Get(key); ok {
			return v
		}
		return value.Nil{}
	case value.Drop:
		if v, ok := c.Lookup(key); ok {
			return v
		}
		return value.Nil{}
	}
	return value.Nil{}
}
