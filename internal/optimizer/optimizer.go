// Package optimizer implements C6: a fixed, numbered sequence of IL→IL
// passes plus an environment-variable DSL for selecting a subset of
// them, mirroring funvibe-funxy's internal/analyzer multi-pass design
// (Analyzer.AnalyzeNaming/AnalyzeHeaders/AnalyzeInstances/AnalyzeBodies
// run in a fixed order, each a total function over the same AST).
// Here every pass is a total function over an (Code, Spans) pair rather
// than an AST, since IL has already discarded tree structure.
package optimizer

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/liquidil/liquidil/internal/filters"
	"github.com/liquidil/liquidil/internal/il"
)

// Pass is one numbered optimizer transformation. Run reports whether it
// changed anything, the way a single fixed-point iteration step would.
type Pass struct {
	Number int
	Name   string
	Run    func(c *Context) bool
}

// Context is the mutable state threaded through a pass pipeline. Passes
// mutate Code/Spans/RegisterCount in place; Inliner is only consulted
// by pass 0 and may be nil.
type Context struct {
	Code          []il.Instruction
	Spans         []il.Span
	RegisterCount int

	// Inliner resolves CONST_RENDER/CONST_INCLUDE partial names to
	// already-compiled bodies for pass 0. Nil disables that pass even
	// when selected.
	Inliner Inliner

	// FilterTable backs passes 2/15's constant filter folding; nil
	// disables those passes' folding (they then leave CALL_FILTER alone).
	FilterTable filters.Table

	// Linked reports whether pass 21 (Strip LABEL) ran, which resolves
	// every label reference to an absolute instruction index and
	// deletes the LABEL markers — at that point the program no longer
	// needs internal/linker's own label resolution.
	Linked bool
}

// Inliner resolves a constant partial name to its compiled, linked,
// optimized body for pass 0's inlining.
type Inliner interface {
	Resolve(name string) (*il.Program, bool)
}

// Passes is the fixed, ordered registry (§4.7). Index i holds
// pass number i; all 23 entries are always present so ParsePassSpec's
// numeric range checks have a single source of truth.
var Passes = []Pass{
	{0, "inline-simple-partials", passInlineSimplePartials},
	{1, "fold-constant-unary-comparison", passFoldConstantUnaryComparison},
	{2, "fold-constant-filters", passFoldConstantFilters},
	{3, "fold-constant-writes", passFoldConstantWrites},
	{4, "collapse-constant-paths", passCollapseConstantPaths},
	{5, "collapse-find-path", passCollapseFindPath},
	{6, "remove-redundant-is-truthy", passRemoveRedundantIsTruthy},
	{7, "remove-noop", passRemoveNoop},
	{8, "remove-jump-to-next-label", passRemoveJumpToNextLabel},
	{9, "merge-write-raw", passMergeWriteRaw},
	{10, "remove-unreachable", passRemoveUnreachable},
	{11, "merge-write-raw-again", passMergeWriteRaw},
	{12, "fold-constant-captures", passFoldConstantCaptures},
	{13, "remove-empty-write-raw", passRemoveEmptyWriteRaw},
	{14, "propagate-constants", passPropagateConstants},
	{15, "fold-constant-filters-again", passFoldConstantFilters},
	{16, "hoist-loop-invariants", passHoistLoopInvariants},
	{17, "cache-repeated-lookups", passCacheRepeatedLookups},
	{18, "value-numbering", passValueNumbering},
	{19, "register-allocation", passRegisterAllocation},
	{20, "fuse-find-write", passFuseFindWrite},
	{21, "strip-label", passStripLabel},
	{22, "remove-interrupt-checks", passRemoveInterruptChecks},
}

// ParsePassSpec implements the selection DSL (§6):
//
//	spec := (ε | '*' | part (',' part)*)
//	part := int | '-' int | '*'
//
// Empty string disables all passes; unset (handled by the caller
// before calling ParsePassSpec) enables all; '*' enables all; '-n'
// removes pass n; plain 'n' adds pass n. Parts are evaluated strictly
// left to right over an initially-empty set, so "2,-2" nets to empty
// and "*,-2,-3" means "all except 2 and 3".
func ParsePassSpec(spec string) (map[int]bool, error) {
	selected := map[int]bool{}
	if spec == "" {
		return selected, nil
	}
	for _, raw := range strings.Split(spec, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		if part == "*" {
			for _, p := range Passes {
				selected[p.Number] = true
			}
			continue
		}
		remove := false
		if strings.HasPrefix(part, "-") {
			remove = true
			part = part[1:]
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &SpecError{Spec: spec, Part: raw}
		}
		if n < 0 || n >= len(Passes) {
			return nil, &SpecError{Spec: spec, Part: raw}
		}
		selected[n] = !remove
	}
	return selected, nil
}

// SpecError reports a malformed pass-selection DSL string.
type SpecError struct {
	Spec, Part string
}

func (e *SpecError) Error() string {
	return "optimizer: invalid pass spec " + strconv.Quote(e.Spec) + " at " + strconv.Quote(e.Part)
}

// AllPassesEnabled returns the selection corresponding to an unset
// environment variable: every pass on.
func AllPassesEnabled() map[int]bool {
	selected := make(map[int]bool, len(Passes))
	for _, p := range Passes {
		selected[p.Number] = true
	}
	return selected
}

// Run applies every pass present and true in selected other than 21, in
// pass-number order, repeating that subset until a full sweep makes
// no further changes (a simple fixed-point driver, since later passes
// such as 14/17/18 routinely re-expose folding opportunities pass 1-3
// already ran over). Those passes read jump operands as label IDs, so
// prog must be unlinked; pass 21, which turns label IDs into positions,
// runs once after the last sweep when it is selected. A Program with
// fewer spans than instructions is padded with zero spans. It returns
// the rewritten Program pieces and whether pass 21 ran (see
// Context.Linked).
func Run(prog *il.Program, selected map[int]bool, inliner Inliner, filterTable filters.Table) (*il.Program, bool) {
	ctx := &Context{
		Code:          append([]il.Instruction(nil), prog.Code...),
		Spans:         append([]il.Span(nil), prog.Spans...),
		RegisterCount: prog.RegisterCount,
		Inliner:       inliner,
		FilterTable:   filterTable,
	}
	for len(ctx.Spans) < len(ctx.Code) {
		ctx.Spans = append(ctx.Spans, il.Span{})
	}

	ordered := make([]Pass, 0, len(Passes))
	for _, p := range Passes {
		if selected[p.Number] {
			ordered = append(ordered, p)
		}
	}
	slices.SortFunc(ordered, func(a, b Pass) int { return a.Number - b.Number })

	const maxSweeps = 8
	for sweep := 0; sweep < maxSweeps; sweep++ {
		changed := false
		for _, p := range ordered {
			if p.Number == 21 {
				continue
			}
			if p.Run(ctx) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	if selected[21] {
		passStripLabel(ctx)
	}

	return &il.Program{Code: ctx.Code, Spans: ctx.Spans, RegisterCount: ctx.RegisterCount}, ctx.Linked
}
