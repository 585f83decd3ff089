package optimizer

import "github.com/liquidil/liquidil/internal/il"

// passCollapseConstantPaths is pass 4: merge a run of adjacent
// LOOKUP_CONST_KEY instructions into a single LOOKUP_CONST_PATH.
func passCollapseConstantPaths(c *Context) bool {
	changed := false
	i := 0
	for i < len(c.Code) {
		if c.Code[i].Op != il.LOOKUP_CONST_KEY {
			i++
			continue
		}
		j := i
		keys := []string{}
		for j < len(c.Code) && c.Code[j].Op == il.LOOKUP_CONST_KEY {
			keys = append(keys, c.Code[j].Str)
			j++
		}
		if len(keys) < 2 {
			i = j
			continue
		}
		c.Code[i] = il.Instruction{Op: il.LOOKUP_CONST_PATH, Keys: keys}
		for k := i + 1; k < j; k++ {
			c.Code[k] = il.Instruction{Op: il.NOOP}
		}
		changed = true
		i = j
	}
	return changed
}

// passCollapseFindPath is pass 5: merge FIND_VAR immediately followed by
// LOOKUP_CONST_KEY/LOOKUP_CONST_PATH into a single FIND_VAR_PATH.
func passCollapseFindPath(c *Context) bool {
	changed := false
	for i := 0; i+1 < len(c.Code); i++ {
		if c.Code[i].Op != il.FIND_VAR {
			continue
		}
		switch c.Code[i+1].Op {
		case il.LOOKUP_CONST_KEY:
			c.Code[i] = il.Instruction{Op: il.FIND_VAR_PATH, Str: c.Code[i].Str, Keys: []string{c.Code[i+1].Str}}
			c.Code[i+1] = il.Instruction{Op: il.NOOP}
			changed = true
		case il.LOOKUP_CONST_PATH:
			c.Code[i] = il.Instruction{Op: il.FIND_VAR_PATH, Str: c.Code[i].Str, Keys: append([]string(nil), c.Code[i+1].Keys...)}
			c.Code[i+1] = il.Instruction{Op: il.NOOP}
			changed = true
		}
	}
	return changed
}

// passFuseFindWrite is pass 20: fuse FIND_VAR+WRITE_VALUE into
// WRITE_VAR, and FIND_VAR_PATH+WRITE_VALUE into WRITE_VAR_PATH.
func passFuseFindWrite(c *Context) bool {
	changed := false
	for i := 0; i+1 < len(c.Code); i++ {
		if c.Code[i+1].Op != il.WRITE_VALUE {
			continue
		}
		switch c.Code[i].Op {
		case il.FIND_VAR:
			name := c.Code[i].Str
			c.Code[i] = il.Instruction{Op: il.NOOP}
			c.Code[i+1] = il.Instruction{Op: il.WRITE_VAR, Str: name}
			changed = true
		case il.FIND_VAR_PATH:
			name, keys := c.Code[i].Str, c.Code[i].Keys
			c.Code[i] = il.Instruction{Op: il.NOOP}
			c.Code[i+1] = il.Instruction{Op: il.WRITE_VAR_PATH, Str: name, Keys: keys}
			changed = true
		}
	}
	return changed
}
