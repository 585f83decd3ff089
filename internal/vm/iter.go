package vm

import "github.com/liquidil/liquidil/internal/value"

// iterator is the runtime cursor FOR_NEXT/TABLEROW_NEXT advance. It is
// materialized once by FOR_INIT/TABLEROW_INIT (offset/limit/reversed
// already applied) rather than lazily walking the source collection,
// since Liquid collections are small enough in practice that eager
// materialization keeps FOR_NEXT a simple index bump (§4.6 "For
// loop semantics").
type iterator struct {
	items []value.Value
	pos   int
}

func (it *iterator) next() (value.Value, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

func (it *iterator) length() int { return len(it.items) }
func (it *iterator) index0() int { return it.pos - 1 }

// materialize expands v into a slice of values for iteration, or
// reports ok=false if v is not an iterable collection.
func materialize(v value.Value) ([]value.Value, bool) {
	switch t := v.(type) {
	case value.Range:
		n := t.Len()
		items := make([]value.Value, n)
		for i := int64(0); i < n; i++ {
			items[i] = t.At(i)
		}
		return items, true
	case *value.List:
		return t.Items, true
	case *value.Map:
		items := make([]value.Value, 0, t.Len())
		for _, k := range t.Keys() {
			vv, _ := t.Get(k)
			items = append(items, &value.List{Items: []value.Value{value.String(k), vv}})
		}
		return items, true
	case value.Drop:
		if tlv, ok := v.(value.ToLiquidValue); ok {
			return materialize(tlv.ToLiquidValue())
		}
		return nil, false
	default:
		return nil, false
	}
}

// newIterator builds an iterator from collection with offset/limit/
// reversed already applied, in that order (§4.6: offset slices
// first, limit bounds what remains, reversed flips the final window).
func newIterator(collection value.Value, offset, limit int64, hasLimit, reversed bool) (*iterator, bool) {
	items, ok := materialize(collection)
	if !ok {
		return nil, false
	}
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(items)) {
		offset = int64(len(items))
	}
	items = items[offset:]
	if hasLimit {
		if limit < 0 {
			limit = 0
		}
		if limit < int64(len(items)) {
			items = items[:limit]
		}
	}
	if reversed {
		rev := make([]value.Value, len(items))
		for i, v := range items {
			rev[len(items)-1-i] = v
		}
		items = rev
	}
	return &iterator{items: items}, true
}

// ForLoopDrop backs the `forloop` object exposed inside a `for` body:
// index/index0/rindex/rindex0/first/last/length/name/parentloop.
type ForLoopDrop struct {
	Length int
	Index0 int
	Name   string
	Parent value.Value // Nil{} when there is no enclosing loop
}

func (ForLoopDrop) Kind() value.Kind { return value.KindDrop }

func (d ForLoopDrop) Lookup(key string) (value.Value, bool) {
	switch key {
	case "length":
		return value.Int(d.Length), true
	case "index":
		return value.Int(d.Index0 + 1), true
	case "index0":
		return value.Int(d.Index0), true
	case "rindex":
		return value.Int(d.Length - d.Index0), true
	case "rindex0":
		return value.Int(d.Length - d.Index0 - 1), true
	case "first":
		return value.Bool(d.Index0 == 0), true
	case "last":
		return value.Bool(d.Index0 == d.Length-1), true
	case "name":
		return value.String(d.Name), true
	case "parentloop":
		if d.Parent != nil {
			return d.Parent, true
		}
		return value.Nil{}, true
	}
	return value.Nil{}, false
}

// TablerowLoopDrop backs `tablerowloop` inside a `tablerow` body, adding
// the column-position fields on top of the forloop fields.
type TablerowLoopDrop struct {
	Length int
	Index0 int
	Cols   int
}

func (TablerowLoopDrop) Kind() value.Kind { return value.KindDrop }

func (d TablerowLoopDrop) Lookup(key string) (value.Value, bool) {
	switch key {
	case "length":
		return value.Int(d.Length), true
	case "index":
		return value.Int(d.Index0 + 1), true
	case "index0":
		return value.Int(d.Index0), true
	case "rindex":
		return value.Int(d.Length - d.Index0), true
	case "rindex0":
		return value.Int(d.Length - d.Index0 - 1), true
	case "first":
		return value.Bool(d.Index0 == 0), true
	case "last":
		return value.Bool(d.Index0 == d.Length-1), true
	case "col":
		if d.Cols <= 0 {
			return value.Int(d.Index0 + 1), true
		}
		return value.Int(d.Index0%d.Cols + 1), true
	case "col0":
		if d.Cols <= 0 {
			return value.Int(d.Index0), true
		}
		return value.Int(d.Index0 % d.Cols), true
	case "col_first":
		if d.Cols <= 0 {
			return value.Bool(d.Index0 == 0), true
		}
		return value.Bool(d.Index0%d.Cols == 0), true
	case "col_last":
		if d.Cols <= 0 {
			return value.Bool(d.Index0 == d.Length-1), true
		}
		return value.Bool(d.Index0%d.Cols == d.Cols-1), true
	}
	return value.Nil{}, false
}
