package filters

import (
	"html"
	"net/url"
	"strings"

	"github.com/liquidil/liquidil/internal/value"
)

func registerStrings(r Registry) {
	r["upcase"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(strings.ToUpper(value.Stringify(in))), nil
	}
	r["downcase"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(strings.ToLower(value.Stringify(in))), nil
	}
	r["capitalize"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		if s == "" {
			return value.String(""), nil
		}
		r, size := []rune(s), len(s)
		_ = size
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		return value.String(string(r)), nil
	}
	r["strip"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(strings.TrimSpace(value.Stringify(in))), nil
	}
	r["lstrip"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(strings.TrimLeft(value.Stringify(in), " \t\r\n")), nil
	}
	r["rstrip"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(strings.TrimRight(value.Stringify(in), " \t\r\n")), nil
	}
	r["strip_newlines"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		s = strings.ReplaceAll(s, "\r\n", "")
		s = strings.ReplaceAll(s, "\n", "")
		return value.String(s), nil
	}
	r["newline_to_br"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		s = strings.ReplaceAll(s, "\r\n", "<br />\n")
		s = strings.ReplaceAll(s, "\n", "<br />\n")
		return value.String(s), nil
	}
	r["escape"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(html.EscapeString(value.Stringify(in))), nil
	}
	r["escape_once"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		return value.String(html.EscapeString(html.UnescapeString(s))), nil
	}
	r["url_encode"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		return value.String(url.QueryEscape(value.Stringify(in))), nil
	}
	r["url_decode"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s, err := url.QueryUnescape(value.Stringify(in))
		if err != nil {
			return nil, argErr("url_decode", err.Error())
		}
		return value.String(s), nil
	}
	r["replace"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 2 {
			return nil, errWrongArgCount
		}
		return value.String(strings.ReplaceAll(value.Stringify(in), value.Stringify(args[0]), value.Stringify(args[1]))), nil
	}
	r["replace_first"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 2 {
			return nil, errWrongArgCount
		}
		return value.String(strings.Replace(value.Stringify(in), value.Stringify(args[0]), value.Stringify(args[1]), 1)), nil
	}
	r["remove"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		return value.String(strings.ReplaceAll(value.Stringify(in), value.Stringify(args[0]), "")), nil
	}
	r["remove_first"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		return value.String(strings.Replace(value.Stringify(in), value.Stringify(args[0]), "", 1)), nil
	}
	r["append"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		return value.String(value.Stringify(in) + value.Stringify(args[0])), nil
	}
	r["prepend"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		return value.String(value.Stringify(args[0]) + value.Stringify(in)), nil
	}
	r["truncate"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		n := 50
		if len(args) > 0 {
			if i, ok := value.AsInt(args[0]); ok {
				n = int(i)
			}
		}
		ellipsis := "..."
		if len(args) > 1 {
			ellipsis = value.Stringify(args[1])
		}
		r := []rune(s)
		if len(r) <= n {
			return value.String(s), nil
		}
		cut := n - len([]rune(ellipsis))
		if cut < 0 {
			cut = 0
		}
		return value.String(string(r[:cut]) + ellipsis), nil
	}
	r["truncatewords"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		s := value.Stringify(in)
		n := 15
		if len(args) > 0 {
			if i, ok := value.AsInt(args[0]); ok {
				n = int(i)
			}
		}
		ellipsis := "..."
		if len(args) > 1 {
			ellipsis = value.Stringify(args[1])
		}
		words := strings.Fields(s)
		if len(words) <= n {
			return value.String(s), nil
		}
		return value.String(strings.Join(words[:n], " ") + ellipsis), nil
	}
	r["split"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		sep := ""
		if len(args) > 0 {
			sep = value.Stringify(args[0])
		}
		s := value.Stringify(in)
		var parts []string
		if sep == "" {
			for _, c := range s {
				parts = append(parts, string(c))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String(p)
		}
		return &value.List{Items: items}, nil
	}
	r["slice"] = func(in value.Value, args []value.Value, kw *value.Map) (value.Value, error) {
		if len(args) < 1 {
			return nil, errWrongArgCount
		}
		s := []rune(value.Stringify(in))
		start, _ := value.AsInt(args[0])
		if start < 0 {
			start += int64(len(s))
		}
		length := int64(1)
		if len(args) > 1 {
			length, _ = value.AsInt(args[1])
		}
		if start < 0 {
			start = 0
		}
		if start > int64(len(s)) {
			start = int64(len(s))
		}
		end := start + length
		if end > int64(len(s)) {
			end = int64(len(s))
		}
		if end < start {
			end = start
		}
		return value.String(string(s[start:end])), nil
	}
}
