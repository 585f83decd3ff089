package filters

import (
	"sort"
	"strings"

	"github.com/liquidil/liquidil/internal/value"
)

func asItems(v value.Value) ([]value.Value, bool) {
	switch t := v.(type) {
	case *value.List:
		return t.Items, true
	case value.Range:
		n := t.Len()
		items := make([]value.Value, n)
		for i := int64(0); i < n; i++ {
			items[i] = t.At(i)
		}
		return items, true
	}
	return nil, false
}

func registerArrays(r Registry) {
	r["size"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		switch t := in.(type) {
		case value.String:
			return value.Int(len([]rune(string(t)))), nil
		case *value.List:
			return value.Int(len(t.Items)), nil
		case *value.Map:
			return value.Int(t.Len()), nil
		case value.Range:
			return value.Int(t.Len()), nil
		}
		return value.Int(0), nil
	}
	r["first"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, ok := asItems(in)
		if !ok || len(items) == 0 {
			return value.Nil{}, nil
		}
		return items[0], nil
	}
	r["last"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, ok := asItems(in)
		if !ok || len(items) == 0 {
			return value.Nil{}, nil
		}
		return items[len(items)-1], nil
	}
	r["reverse"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, ok := asItems(in)
		if !ok {
			return &value.List{}, nil
		}
		out := make([]value.Value, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		return &value.List{Items: out}, nil
	}
	r["join"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		sep := " "
		if len(args) > 0 {
			sep = value.Stringify(args[0])
		}
		parts := make([]string, len(items))
		for i, v := range items {
			parts[i] = value.Stringify(v)
		}
		return value.String(strings.Join(parts, sep)), nil
	}
	r["sort"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		out := append([]value.Value(nil), items...)
		var key string
		if len(args) > 0 {
			key = value.Stringify(args[0])
		}
		sort.SliceStable(out, func(i, j int) bool {
			return sortKey(out[i], key) < sortKey(out[j], key)
		})
		return &value.List{Items: out}, nil
	}
	r["sort_natural"] = r["sort"]
	r["uniq"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		seen := map[string]bool{}
		var out []value.Value
		for _, v := range items {
			k := value.Stringify(v)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
		return &value.List{Items: out}, nil
	}
	r["compact"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		var out []value.Value
		for _, v := range items {
			if _, isNil := v.(value.Nil); isNil {
				continue
			}
			out = append(out, v)
		}
		return &value.List{Items: out}, nil
	}
	r["concat"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		other, _ := asItems(args[0])
		out := append(append([]value.Value(nil), items...), other...)
		return &value.List{Items: out}, nil
	}
	r["map"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		key := value.Stringify(args[0])
		out := make([]value.Value, len(items))
		for i, v := range items {
			out[i] = lookupProperty(v, key)
		}
		return &value.List{Items: out}, nil
	}
	r["where"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		items, _ := asItems(in)
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		key := value.Stringify(args[0])
		var out []value.Value
		for _, v := range items {
			got := lookupProperty(v, key)
			if len(args) > 1 {
				if value.Equal(got, args[1]) {
					out = append(out, v)
				}
				continue
			}
			if value.Truthy(got) {
				out = append(out, v)
			}
		}
		return &value.List{Items: out}, nil
	}
}

func sortKey(v value.Value, key string) string {
	if key != "" {
		v = lookupProperty(v, key)
	}
	return value.Stringify(v)
}

func lookupProperty(v value.Value, key string) value.Value {
	switch t := v.(type) {
	case *value.Map:
		if got, ok := t.Get(key); ok {
			return got
		}
	case value.Drop:
		if got, ok := t.Lookup(key); ok {
			return got
		}
	}
	return value.Nil{}
}
