package value

// MapDrop is a convenience Drop backed by a plain Go map, useful for
// host applications that want drop-style lazy lookup semantics without
// defining a dedicated type per host object.
type MapDrop struct {
	Data map[string]Value
}

func (MapDrop) Kind() Kind { return KindDrop }

func (d MapDrop) Lookup(key string) (Value, bool) {
	v, ok := d.Data[key]
	return v, ok
}

// FromGo converts a limited set of native Go values into the Value
// domain: nil, a Value (returned as is), bool, int, int64, float64,
// string, and, converted recursively, []interface{} and
// map[string]interface{}. Anything else is wrapped as a MapDrop with no
// entries (an opaque drop that resolves every lookup to nil), matching
// the "unknown keys return nil" design note (§9).
func FromGo(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Nil{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromGo(e)
		}
		return &List{Items: items}
	case map[string]interface{}:
		m := NewMap()
		for k, e := range t {
			m.Set(k, FromGo(e))
		}
		return m
	default:
		return MapDrop{}
	}
}
