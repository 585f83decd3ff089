package il

// Span is a byte range in the source template, used for diagnostic line
// mapping (§3). A zero-value Span (Start==End==0 with Valid
// false) means "no span recorded".
type Span struct {
	Start, End int
	Valid      bool
}

// CycleValue is one element of a CYCLE_STEP values list: either a
// literal constant or a lazily-resolved variable reference.
type CycleValue struct {
	IsVar bool
	Lit   interface{} // nil, bool, int64, float64, or string
	Var   string
}

// ArgDescriptor describes one argument in a partial's arg map operand.
// Reserved control keys are documented in §6; Key is the raw map
// key including any "__"-prefix.
type ArgDescriptor struct {
	Key   string
	Const bool        // true if Value is a compile-time constant
	Value interface{} // constant payload when Const; otherwise unused (the value is computed on the stack at the operand's declared arity position)
}

// Instruction is one IL opcode plus its operands. Only the operand
// fields relevant to Op are populated; the rest are zero.
type Instruction struct {
	Op Opcode

	// Scalar operands
	Int    int64
	Int2   int64 // second integer operand (e.g. CONST_RANGE end, columns)
	Float  float64
	Str    string
	Str2   string
	Bool   bool
	Bool2  bool
	Bool3  bool

	// Label / jump operands. Before linking these hold label IDs; after
	// linking, Label holds the absolute instruction index.
	Label  int
	Label2 int

	// LOOKUP_CONST_PATH / FIND_VAR_PATH
	Keys []string

	// CALL_FILTER
	FilterName string
	PosArgs    int
	HasKwargs  bool

	// COMPARE / CASE_COMPARE
	Cmp CompareOp

	// PUSH_INTERRUPT
	Interrupt InterruptKind

	// CYCLE_STEP / CYCLE_STEP_VAR
	CycleValues []CycleValue

	// FOR_INIT / TABLEROW_INIT
	LoopVar        string
	LoopName       string
	HasLimit       bool
	HasOffset      bool
	OffsetContinue bool
	Reversed       bool
	HasRecovery    bool
	RecoveryLabel  int // label ID / index for recoverable runtime errors

	// TABLEROW_INIT column mode
	ColMode ColumnMode
	Cols    int // used when ColMode == ColFixed

	// RENDER_PARTIAL / INCLUDE_PARTIAL / CONST_RENDER / CONST_INCLUDE
	PartialName string
	Args        map[string]ArgDescriptor
	Isolated    bool
	CompiledAt  int // index of the first instruction of an inlined body; no pass sets it, so it stays 0

	// IFCHANGED_CHECK tag identity
	TagID string

	// BUILD_HASH
	HashCount int
}

// ColumnMode is the TABLEROW_INIT `cols:` operand discriminant.
type ColumnMode int

const (
	ColDefault ColumnMode = iota // one row (cols == len(collection))
	ColFixed                     // Cols holds a compile-time constant
	ColDynamic                   // popped from the stack at runtime
	ColExplicitNil
)

// Program is a finalized or in-progress instruction sequence with its
// parallel span table (§3).
type Program struct {
	Code  []Instruction
	Spans []Span

	// RegisterCount is the number of STORE_TEMP/LOAD_TEMP slots the
	// parser allocated (§3 "fixed-size numbered register file").
	RegisterCount int

	// SourceName and Source identify the template text Spans' byte
	// offsets index into, so a runtime fault can report a source line
	// instead of a bare instruction index. SourceName is "" for an
	// anonymous top-level render; Source is "" when the Program was
	// decoded from a gob cache entry that didn't carry it.
	SourceName string
	Source     string
}

func (p *Program) Len() int { return len(p.Code) }
