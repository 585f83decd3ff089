package il

// Builder appends instructions with parallel source-span metadata and
// mints fresh label IDs, the way funvibe-funxy's Chunk.Write/WriteOp
// appends bytes with a parallel Lines/Columns table. Unlike the
// teacher's byte-encoded Chunk, instructions here are values (no manual
// operand byte-packing) since this IL is interpreted by a Go-native VM
// rather than disassembled from a flat byte array.
type Builder struct {
	prog     Program
	nextLbl  int
	curSpan  Span
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewLabel mints a fresh label ID. Label IDs are resolved to absolute
// instruction indices by the linker (C5); they are never valid
// instruction indices themselves until after linking.
func (b *Builder) NewLabel() int {
	id := b.nextLbl
	b.nextLbl++
	return id
}

// SetSpan sets the span attached to subsequently emitted instructions
// until changed again, mirroring how a recursive-descent parser tracks
// "current source position" while emitting.
func (b *Builder) SetSpan(s Span) { b.curSpan = s }

// Emit appends inst with the current span and returns its index.
func (b *Builder) Emit(inst Instruction) int {
	idx := len(b.prog.Code)
	b.prog.Code = append(b.prog.Code, inst)
	b.prog.Spans = append(b.prog.Spans, b.curSpan)
	return idx
}

// EmitLabel appends a LABEL marker instruction for id.
func (b *Builder) EmitLabel(id int) int {
	return b.Emit(Instruction{Op: LABEL, Label: id})
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.prog.Code) }

// At returns a pointer to the instruction at idx, for in-place rewrites
// (e.g. the parser's whitespace-trim rewriting of the most recent
// WRITE_RAW, §4.4).
func (b *Builder) At(idx int) *Instruction { return &b.prog.Code[idx] }

// Truncate drops every instruction (and span) from idx onward.
func (b *Builder) Truncate(idx int) {
	b.prog.Code = b.prog.Code[:idx]
	b.prog.Spans = b.prog.Spans[:idx]
}

// SetRegisterCount records how many STORE_TEMP/LOAD_TEMP register slots
// the parser allocated, so the VM can size a Scope's register file
// without growing it on demand.
func (b *Builder) SetRegisterCount(n int) { b.prog.RegisterCount = n }

// Program returns the built (unlinked) instruction sequence. The
// Builder remains usable afterward; Program returns a view over the
// same backing slices, not a defensive copy, matching the teacher's
// Chunk (read directly by Disassemble while still being written to
// during compilation).
func (b *Builder) Program() *Program { return &b.prog }
