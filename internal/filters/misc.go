package filters

import "github.com/liquidil/liquidil/internal/value"

func registerMisc(r Registry) {
	r["default"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		useFalsy := false
		if kw != nil {
			if av, ok := kw.Get("allow_false"); ok {
				useFalsy = bool(value.Truthy(av))
			}
		}
		if _, isFalse := in.(value.Bool); isFalse && useFalsy {
			return in, nil
		}
		if value.Truthy(in) && !value.EqualsBlank(in) {
			return in, nil
		}
		if len(args) == 0 {
			return value.Nil{}, nil
		}
		return args[0], nil
	}
	r["json"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(toJSON(in)), nil
	}
}

func toJSON(v value.Value) string {
	switch t := v.(type) {
	case value.Nil, nil:
		return "null"
	case value.Bool:
		if t {
			return "true"
		}
		return "false"
	case value.Int, value.Float, value.String:
		return jsonScalar(v)
	case *value.List:
		s := "["
		for i, it := range t.Items {
			if i > 0 {
				s += ","
			}
			s += toJSON(it)
		}
		return s + "]"
	case *value.Map:
		s := "{"
		for i, k := range t.Keys() {
			if i > 0 {
				s += ","
			}
			val, _ := t.Get(k)
			s += jsonString(k) + ":" + toJSON(val)
		}
		return s + "}"
	default:
		return jsonString(value.Stringify(v))
	}
}

func jsonScalar(v value.Value) string {
	switch t := v.(type) {
	case value.String:
		return jsonString(string(t))
	default:
		return value.Stringify(v)
	}
}

func jsonString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return string(out)
}
