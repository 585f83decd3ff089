// Command liquidil is the CLI surface named in §6: compile,
// render, list optimizer passes, and parse a literal expression/template
// string. It dispatches on a bare subcommand the way funvibe-funxy's own
// cmd/funxy/main.go does (a hand-rolled os.Args switch, no CLI
// framework such as cobra/urfave), with per-subcommand flag.FlagSet
// instances for the handful of options each one takes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/liquidil/liquidil/internal/aot"
	"github.com/liquidil/liquidil/internal/fs"
	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/linker"
	"github.com/liquidil/liquidil/internal/optimizer"
	"github.com/liquidil/liquidil/internal/parser"
	"github.com/liquidil/liquidil/internal/render"
	"github.com/liquidil/liquidil/internal/value"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// flag parsing stops at the first non-flag argument, so a leading
	// positional argument (`compile <path> --aot`) is moved behind the flags.
	args := os.Args[2:]
	if len(args) > 1 && args[0] != "" && args[0][0] != '-' {
		args = append(append([]string(nil), args[1:]...), args[0])
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(args)
	case "render":
		err = runRender(args)
	case "passes":
		err = runPasses(args)
	case "parse":
		err = runParse(args)
	case "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "liquidil: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "liquidil: %s\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  liquidil compile <path> [--aot] [--passes <spec>]
  liquidil render <path> [--data <assigns.json|.yaml>] [--passes <spec>] [--partials <dir>] [--strict]
  liquidil passes [--profile <profile.yaml>]
  liquidil parse <src> [-p <spec>]`)
}

// isColorTerminal gates the verbose timing/size banner runCompile and
// runRender print to stderr on whether stdout looks like an interactive
// terminal, the same go-isatty check funvibe-funxy's CLI uses to decide
// whether to bother with extra diagnostic chatter.
func isColorTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func runCompile(args []string) error {
	fset := flag.NewFlagSet("compile", flag.ExitOnError)
	passSpec := fset.String("passes", "", "optimizer pass-selection DSL (unset = all passes)")
	emitAOT := fset.Bool("aot", false, "emit generated Go source instead of an IL listing")
	pkgName := fset.String("aot-package", "generated", "package clause for --aot output")
	funcName := fset.String("aot-func", "Render", "entrypoint function name for --aot output")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("compile: expected exactly one <path> argument")
	}

	src, err := os.ReadFile(fset.Arg(0))
	if err != nil {
		return fmt.Errorf("reading %s: %w", fset.Arg(0), err)
	}

	start := time.Now()
	opts := render.NewOptions()
	if flagWasSet(fset, "passes") {
		opts.PassSpec = passSpec
	}
	engine := render.New(opts)
	tmpl, err := engine.Compile(string(src))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if isColorTerminal() {
		fmt.Fprintf(os.Stderr, "compiled %s (%d instructions) in %s\n",
			humanize.Bytes(uint64(len(src))), tmpl.Program.Len(), elapsed)
	}

	if *emitAOT {
		out, err := aot.GoSourceEmitter{}.Emit(tmpl.Program, aot.Options{Package: *pkgName, FuncName: *funcName})
		if err != nil {
			return fmt.Errorf("emitting AOT source: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	fmt.Print(il.Print(tmpl.Program))
	return nil
}

// flagWasSet reports whether name was explicitly passed on the command
// line, since flag.FlagSet (unlike pflag's Changed) has no such query
// and a *string flag's zero value "" is otherwise indistinguishable
// from "the user asked to disable every optimizer pass".
func flagWasSet(fset *flag.FlagSet, name string) bool {
	found := false
	fset.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func runRender(args []string) error {
	fset := flag.NewFlagSet("render", flag.ExitOnError)
	dataPath := fset.String("data", "", "path to a JSON or YAML object of render assigns (.json, .yaml, .yml)")
	jsonPath := fset.String("json", "", "deprecated alias for --data")
	passSpec := fset.String("passes", "", "optimizer pass-selection DSL (unset = all passes)")
	partialsDir := fset.String("partials", "", "directory to resolve render/include partial names from")
	strict := fset.Bool("strict", false, "abort on the first recoverable runtime error instead of rendering it inline")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("render: expected exactly one <path> argument")
	}

	src, err := os.ReadFile(fset.Arg(0))
	if err != nil {
		return fmt.Errorf("reading %s: %w", fset.Arg(0), err)
	}

	assignsPath := *dataPath
	if assignsPath == "" {
		assignsPath = *jsonPath
	}
	assigns, err := loadAssigns(assignsPath)
	if err != nil {
		return err
	}

	opts := render.NewOptions()
	if flagWasSet(fset, "passes") {
		opts.PassSpec = passSpec
	}
	if *partialsDir != "" {
		opts.Provider = newDirProviderOrNil(*partialsDir)
	}
	if *strict {
		opts.VM.RenderErrorsInline = false
	}

	start := time.Now()
	engine := render.New(opts)
	out, err := engine.RenderString(string(src), assigns)
	elapsed := time.Since(start)
	if isColorTerminal() {
		fmt.Fprintf(os.Stderr, "rendered %s in %s\n", humanize.Bytes(uint64(len(src))), elapsed)
	}
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func newDirProviderOrNil(dir string) *fs.DirProvider {
	if dir == "" {
		return nil
	}
	return fs.NewDirProvider(dir)
}

// loadAssigns decodes a JSON or YAML object of render assigns, picking
// the decoder by file extension (".yaml"/".yml" vs everything else,
// defaulting to JSON) — YAML is the more forgiving format for a human
// hand-authoring fixture data, JSON the more common one for generated
// tooling, so render accepts either the same way `passes --profile`
// accepts a YAML pass-selection file.
func loadAssigns(path string) (map[string]value.Value, error) {
	if path == "" {
		return map[string]value.Value{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assigns %s: %w", path, err)
	}

	var raw map[string]interface{}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing assigns %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing assigns %s: %w", path, err)
		}
	}

	assigns := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		assigns[k] = value.FromGo(normalizeYAML(v))
	}
	return assigns, nil
}

// normalizeYAML rewrites the map[interface{}]interface{} shape
// gopkg.in/yaml.v3 falls back to for a mapping with non-string keys
// (e.g. `1: foo`) into map[string]interface{}, the only mapping shape
// value.FromGo understands; FromGo already recurses into ordinary
// map[string]interface{}/[]interface{} values on its own.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalizeYAML(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, vv := range t {
			out[i] = normalizeYAML(vv)
		}
		return out
	default:
		return v
	}
}

// passProfile is a named, YAML-authored pass selection — a reusable
// alternative to spelling the DSL out on a command line every time, for
// a team that wants to check a handful of selections ("debug", "ci")
// into version control.
type passProfile struct {
	Passes string `yaml:"passes"`
}

func loadPassProfile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass profile %s: %w", path, err)
	}
	var p passProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("parsing pass profile %s: %w", path, err)
	}
	return p.Passes, nil
}

func runPasses(args []string) error {
	fset := flag.NewFlagSet("passes", flag.ExitOnError)
	profile := fset.String("profile", "", "path to a YAML file with a top-level `passes:` DSL string; prints only the selected passes")
	if err := fset.Parse(args); err != nil {
		return err
	}

	if *profile == "" {
		for _, p := range optimizer.Passes {
			fmt.Printf("%2d  %s\n", p.Number, p.Name)
		}
		return nil
	}

	spec, err := loadPassProfile(*profile)
	if err != nil {
		return err
	}
	selected, err := optimizer.ParsePassSpec(spec)
	if err != nil {
		return fmt.Errorf("pass profile %s: %w", *profile, err)
	}
	for _, p := range optimizer.Passes {
		if selected[p.Number] {
			fmt.Printf("%2d  %s\n", p.Number, p.Name)
		}
	}
	return nil
}

func runParse(args []string) error {
	fset := flag.NewFlagSet("parse", flag.ExitOnError)
	passSpec := fset.String("p", "", "optimizer pass-selection DSL to apply before printing")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("parse: expected exactly one <src> argument")
	}

	prog, err := parser.Parse(fset.Arg(0))
	if err != nil {
		return err
	}
	// The optimizer reads jump operands as label IDs, so it runs before
	// linking; Link is skipped when pass 21 already resolved every jump.
	linked := false
	if flagWasSet(fset, "p") {
		selected, err := optimizer.ParsePassSpec(*passSpec)
		if err != nil {
			return err
		}
		prog, linked = optimizer.Run(prog, selected, nil, nil)
	}
	if !linked {
		if prog, err = linker.Link(prog); err != nil {
			return err
		}
	}

	fmt.Print(il.Print(prog))
	return nil
}
