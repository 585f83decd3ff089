// Package il defines the IL opcode set, instruction encoding, and the
// builder (C3) that the parser uses to emit instructions directly
// (§4.1).
package il

// Opcode is the closed enumeration of IL instruction tags (§4.1).
type Opcode byte

const (
	// Output
	WRITE_RAW Opcode = iota
	WRITE_VALUE
	WRITE_VAR
	WRITE_VAR_PATH

	// Constants
	CONST_NIL
	CONST_TRUE
	CONST_FALSE
	CONST_INT
	CONST_FLOAT
	CONST_STRING
	CONST_RANGE
	CONST_EMPTY
	CONST_BLANK
	MAKE_RANGE // pops (low, high); pushes a Range, or an error_marker if either is non-integer (§9 "Range construction")

	// Lookup
	FIND_VAR
	FIND_VAR_PATH
	FIND_VAR_DYNAMIC
	LOOKUP_KEY
	LOOKUP_CONST_KEY
	LOOKUP_CONST_PATH
	LOOKUP_COMMAND

	// Capture
	PUSH_CAPTURE
	POP_CAPTURE

	// Control flow
	LABEL
	JUMP
	JUMP_IF_FALSE
	JUMP_IF_TRUE
	JUMP_IF_EMPTY
	JUMP_IF_INTERRUPT
	HALT

	// Comparison / logic
	COMPARE
	CASE_COMPARE
	CONTAINS_OP
	BOOL_NOT
	IS_TRUTHY

	// Scope / assignment
	PUSH_SCOPE
	POP_SCOPE
	ASSIGN
	ASSIGN_LOCAL

	// Loops
	FOR_INIT
	FOR_NEXT
	FOR_END
	PUSH_FORLOOP
	POP_FORLOOP

	// Tablerow
	TABLEROW_INIT
	TABLEROW_NEXT
	TABLEROW_END

	// Interrupts
	PUSH_INTERRUPT
	POP_INTERRUPT

	// Counters / cycle
	INCREMENT
	DECREMENT
	CYCLE_STEP
	CYCLE_STEP_VAR

	// Partials
	RENDER_PARTIAL
	INCLUDE_PARTIAL
	CONST_RENDER
	CONST_INCLUDE

	// Stack / temporaries
	DUP
	POP
	BUILD_HASH
	STORE_TEMP
	LOAD_TEMP

	// Filters
	CALL_FILTER

	// Misc
	IFCHANGED_CHECK
	SET_CONTEXT
	NOOP
)

// CompareOp is the operand of COMPARE / CASE_COMPARE.
type CompareOp int

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

func (c CompareOp) String() string {
	return [...]string{"eq", "ne", "lt", "le", "gt", "ge"}[c]
}

// InterruptKind is the operand of PUSH_INTERRUPT.
type InterruptKind int

const (
	InterruptBreak InterruptKind = iota
	InterruptContinue
)

// opcodeNames mirrors funvibe-funxy's OpcodeNames debugging map.
var opcodeNames = map[Opcode]string{
	WRITE_RAW:      "WRITE_RAW",
	WRITE_VALUE:    "WRITE_VALUE",
	WRITE_VAR:      "WRITE_VAR",
	WRITE_VAR_PATH: "WRITE_VAR_PATH",

	CONST_NIL:    "CONST_NIL",
	CONST_TRUE:   "CONST_TRUE",
	CONST_FALSE:  "CONST_FALSE",
	CONST_INT:    "CONST_INT",
	CONST_FLOAT:  "CONST_FLOAT",
	CONST_STRING: "CONST_STRING",
	CONST_RANGE:  "CONST_RANGE",
	CONST_EMPTY:  "CONST_EMPTY",
	CONST_BLANK:  "CONST_BLANK",
	MAKE_RANGE:   "MAKE_RANGE",

	FIND_VAR:          "FIND_VAR",
	FIND_VAR_PATH:     "FIND_VAR_PATH",
	FIND_VAR_DYNAMIC:  "FIND_VAR_DYNAMIC",
	LOOKUP_KEY:        "LOOKUP_KEY",
	LOOKUP_CONST_KEY:  "LOOKUP_CONST_KEY",
	LOOKUP_CONST_PATH: "LOOKUP_CONST_PATH",
	LOOKUP_COMMAND:    "LOOKUP_COMMAND",

	PUSH_CAPTURE: "PUSH_CAPTURE",
	POP_CAPTURE:  "POP_CAPTURE",

	LABEL:              "LABEL",
	JUMP:               "JUMP",
	JUMP_IF_FALSE:      "JUMP_IF_FALSE",
	JUMP_IF_TRUE:       "JUMP_IF_TRUE",
	JUMP_IF_EMPTY:      "JUMP_IF_EMPTY",
	JUMP_IF_INTERRUPT:  "JUMP_IF_INTERRUPT",
	HALT:               "HALT",

	COMPARE:       "COMPARE",
	CASE_COMPARE:  "CASE_COMPARE",
	CONTAINS_OP:   "CONTAINS",
	BOOL_NOT:      "BOOL_NOT",
	IS_TRUTHY:     "IS_TRUTHY",

	PUSH_SCOPE:   "PUSH_SCOPE",
	POP_SCOPE:    "POP_SCOPE",
	ASSIGN:       "ASSIGN",
	ASSIGN_LOCAL: "ASSIGN_LOCAL",

	FOR_INIT:     "FOR_INIT",
	FOR_NEXT:     "FOR_NEXT",
	FOR_END:      "FOR_END",
	PUSH_FORLOOP: "PUSH_FORLOOP",
	POP_FORLOOP:  "POP_FORLOOP",

	TABLEROW_INIT: "TABLEROW_INIT",
	TABLEROW_NEXT: "TABLEROW_NEXT",
	TABLEROW_END:  "TABLEROW_END",

	PUSH_INTERRUPT: "PUSH_INTERRUPT",
	POP_INTERRUPT:  "POP_INTERRUPT",

	INCREMENT:      "INCREMENT",
	DECREMENT:      "DECREMENT",
	CYCLE_STEP:     "CYCLE_STEP",
	CYCLE_STEP_VAR: "CYCLE_STEP_VAR",

	RENDER_PARTIAL:  "RENDER_PARTIAL",
	INCLUDE_PARTIAL: "INCLUDE_PARTIAL",
	CONST_RENDER:    "CONST_RENDER",
	CONST_INCLUDE:   "CONST_INCLUDE",

	DUP:        "DUP",
	POP:        "POP",
	BUILD_HASH: "BUILD_HASH",
	STORE_TEMP: "STORE_TEMP",
	LOAD_TEMP:  "LOAD_TEMP",

	CALL_FILTER: "CALL_FILTER",

	IFCHANGED_CHECK: "IFCHANGED_CHECK",
	SET_CONTEXT:     "SET_CONTEXT",
	NOOP:            "NOOP",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "UNKNOWN_OP"
}
