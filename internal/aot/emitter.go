package aot

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/liquidil/liquidil/internal/il"
)

func init() {
	// Concrete payload types that ride inside Instruction's interface{}
	// operands (CycleValue.Lit, ArgDescriptor.Value), so gob can encode
	// them without the caller registering anything.
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register("")
}

// GoSourceEmitter is the one walk-the-IL AOT backend this package ships.
// It documents the program as a sequence of opcode comments (the
// straightforward walk over the IL its doc comment describes) and
// embeds the program itself, gob-encoded, so the generated file can
// replay it through the
// same VM a normal render uses. A from-scratch native lowering of every
// opcode to hand-written Go control flow is explicitly out of scope
// (§1 Non-goals).
type GoSourceEmitter struct{}

var _ Emitter = GoSourceEmitter{}

func (GoSourceEmitter) Emit(prog *il.Program, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(prog); err != nil {
		return nil, fmt.Errorf("aot: encoding program: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(payload.Bytes())

	var listing bytes.Buffer
	for i, inst := range prog.Code {
		fmt.Fprintf(&listing, "// %4d  %s\n", i, describeInstruction(inst))
	}

	src, err := renderTemplate(goSourceTemplate, map[string]interface{}{
		"Package":  opts.Package,
		"FuncName": opts.FuncName,
		"Listing":  listing.String(),
		"Encoded":  encoded,
	})
	if err != nil {
		return nil, err
	}

	formatted, err := imports.Process("generated.go", src, nil)
	if err != nil {
		return nil, fmt.Errorf("aot: formatting generated source: %w", err)
	}
	return formatted, nil
}

func describeInstruction(inst il.Instruction) string {
	switch inst.Op {
	case il.CONST_STRING:
		return fmt.Sprintf("CONST_STRING %q", inst.Str)
	case il.CONST_INT:
		return fmt.Sprintf("CONST_INT %d", inst.Int)
	case il.CONST_FLOAT:
		return fmt.Sprintf("CONST_FLOAT %v", inst.Float)
	case il.FIND_VAR:
		return fmt.Sprintf("FIND_VAR %s", inst.Str)
	case il.FIND_VAR_PATH:
		return fmt.Sprintf("FIND_VAR_PATH %s.%v", inst.Str, inst.Keys)
	case il.CALL_FILTER:
		return fmt.Sprintf("CALL_FILTER %s/%d", inst.FilterName, inst.PosArgs)
	case il.JUMP, il.JUMP_IF_FALSE, il.JUMP_IF_TRUE, il.JUMP_IF_EMPTY, il.JUMP_IF_INTERRUPT:
		return fmt.Sprintf("%s -> L%d", inst.Op, inst.Label)
	case il.LABEL:
		return fmt.Sprintf("LABEL L%d", inst.Label)
	default:
		return inst.Op.String()
	}
}

func renderTemplate(tmpl string, data map[string]interface{}) ([]byte, error) {
	t, err := template.New("aot").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("aot: parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("aot: executing template: %w", err)
	}
	return buf.Bytes(), nil
}

const goSourceTemplate = `// Code generated by liquidil's AOT emitter. DO NOT EDIT.
package {{.Package}}

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"

	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/value"
	"github.com/liquidil/liquidil/internal/vm"
)

// Disassembly, for inspection only; not consulted at runtime.
{{.Listing}}
const encodedProgram = "{{.Encoded}}"

func decodeProgram() (*il.Program, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedProgram)
	if err != nil {
		return nil, err
	}
	var prog il.Program
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&prog); err != nil {
		return nil, err
	}
	return &prog, nil
}

// {{.FuncName}} renders the program this file was generated from
// against assigns, using filterTable for CALL_FILTER and partials (may
// be nil) for render/include.
func {{.FuncName}}(assigns map[string]value.Value, filterTable filters.Table, partials vm.PartialCompiler) (string, error) {
	prog, err := decodeProgram()
	if err != nil {
		return "", err
	}
	machine := vm.New(filterTable, partials, vm.DefaultOptions())
	scope := vm.NewScope(assigns)
	return machine.Run(prog, scope)
}
`
