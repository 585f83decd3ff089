// Package parser implements C4: a recursive-descent parser that
// consumes the template and expression lexers' tokens and emits IL
// directly via internal/il.Builder, with no intermediate AST
// (§1, §4.4).
package parser

import (
	"fmt"
	"strings"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/lexer"
	"github.com/liquidil/liquidil/internal/token"
)

// SyntaxError is raised during parsing (§7 kind 1). It carries
// the source position of the offending construct.
type SyntaxError struct {
	Message string
	Pos     token.Pos
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Liquid syntax error (line %d): %s", e.Pos.Line, e.Message)
}

// Parser is the C4 recursive-descent front end.
type Parser struct {
	b   *il.Builder
	lex *lexer.TemplateLexer
	src string

	cur token.Token

	pendingTrimLeft bool // set by a tag's trim_right; applies to the next RAW

	tempNext int // next free register index for case-subject / matched-flag slots

	caseStack []caseCtx
	loopStack []loopCtx
}

type caseCtx struct {
	subjectReg int
	matchedReg int
}

type loopCtx struct {
	breakLabel    int
	continueLabel int
}

// New creates a Parser over src.
func New(src string) *Parser {
	return &Parser{
		b:   il.NewBuilder(),
		lex: lexer.New(src),
		src: src,
	}
}

// Parse compiles src into an unlinked IL Program.
func Parse(src string) (prog *il.Program, err error) {
	p := New(src)
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()
	p.advance()
	_, _, _, _, err = p.parseBlockBody(nil)
	if err != nil {
		return nil, err
	}
	p.emit(il.Instruction{Op: il.HALT})
	p.b.SetRegisterCount(p.tempNext)
	return p.b.Program(), nil
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

func (p *Parser) fail(format string, args ...interface{}) {
	panic(&SyntaxError{Message: fmt.Sprintf(format, args...), Pos: p.cur.Start})
}

func (p *Parser) emit(inst il.Instruction) int {
	return p.b.Emit(inst)
}

func (p *Parser) spanOf(tok token.Token) il.Span {
	return il.Span{Start: tok.Start.Offset, End: tok.End.Offset, Valid: true}
}

// allocTemp reserves a fresh register index in the scope's fixed-size
// register file (§3 invariant: registers are indexed only with
// compile-time-known indices).
func (p *Parser) allocTemp() int {
	idx := p.tempNext
	p.tempNext++
	return idx
}

// parseBlockBody consumes RAW/VAR/TAG tokens until an end-tag in
// endTags matches or EOF, returning which end-tag matched (""  at EOF),
// whether every child rendered only whitespace, and the indices of
// WRITE_RAW instructions that were whitespace-only (so a containing tag
// can erase them when the whole block collapses to blank).
func (p *Parser) parseBlockBody(endTags []string) (matched, matchedRest string, blank bool, blankRawIdx []int, err error) {
	blank = true
	lastPos := -1

	for {
		if p.cur.Kind == token.EOF {
			return "", "", blank, blankRawIdx, nil
		}
		guardStart := p.cur.Start.Offset

		switch p.cur.Kind {
		case token.RAW:
			content := p.cur.Lexeme
			if p.pendingTrimLeft {
				content = strings.TrimLeft(content, " \t\r\n")
				p.pendingTrimLeft = false
			}
			// trim_left on this token strips the *end* of this RAW run,
			// which is only meaningful when the run is immediately
			// followed by a trimming VAR/TAG; that trimming is applied
			// retroactively by rewriteTrimLeft once we see that token,
			// so here we just emit as-is (minus any pending left-trim).
			if content == "" {
				p.advance()
				continue
			}
			idx := p.emit(il.Instruction{Op: il.WRITE_RAW, Str: content})
			if strings.TrimSpace(content) != "" {
				blank = false
			} else {
				blankRawIdx = append(blankRawIdx, idx)
			}
			if p.cur.TrimRight {
				// handled by whoever consumes this token kind (RAW never
				// carries TrimRight from the lexer; no-op).
			}
			lastPos = idx
			p.advance()

		case token.VAR:
			if p.cur.TrimLeft {
				p.rewriteTrimLeft(lastPos)
			}
			trimRight := p.cur.TrimRight
			p.parseVarTag(p.cur)
			blank = false
			p.advance()
			if trimRight {
				p.pendingTrimLeft = true
			}

		case token.TAG:
			name, rest := splitTagHead(p.cur.Lexeme)
			if isEndTag(name) {
				if containsStr(endTags, name) {
					if p.cur.TrimLeft {
						p.rewriteTrimLeft(lastPos)
					}
					trimRight := p.cur.TrimRight
					p.advance()
					if trimRight {
						p.pendingTrimLeft = true
					}
					return name, rest, blank, blankRawIdx, nil
				}
				p.fail("unexpected tag %q", name)
			}

			if p.cur.TrimLeft {
				p.rewriteTrimLeft(lastPos)
			}
			trimRight := p.cur.TrimRight
			tok := p.cur
			childBlank, err := p.parseTag(name, rest, tok)
			if err != nil {
				return "", "", false, nil, err
			}
			if !childBlank {
				blank = false
			}
			p.advance()
			if trimRight {
				p.pendingTrimLeft = true
			}

		default:
			p.fail("unexpected token")
		}

		if p.cur.Start.Offset <= guardStart && p.cur.Kind != token.EOF {
			p.fail("parser made no progress (infinite loop guard)")
		}
	}
}

// rewriteTrimLeft right-strips the most recently emitted WRITE_RAW,
// turning it into NOOP if it becomes empty (§4.4).
func (p *Parser) rewriteTrimLeft(idx int) {
	if idx < 0 || idx >= p.b.Len() {
		return
	}
	inst := p.b.At(idx)
	if inst.Op != il.WRITE_RAW {
		return
	}
	stripped := strings.TrimRight(inst.Str, " \t\r\n")
	if stripped == "" {
		*inst = il.Instruction{Op: il.NOOP}
		return
	}
	inst.Str = stripped
}

func splitTagHead(body string) (name, rest string) {
	body = strings.TrimSpace(body)
	i := strings.IndexAny(body, " \t\r\n")
	if i == -1 {
		return body, ""
	}
	return body[:i], strings.TrimSpace(body[i+1:])
}

var endTagNames = map[string]bool{
	"endif": true, "endunless": true, "endcase": true, "endfor": true,
	"endtablerow": true, "endcapture": true, "endcomment": true,
	"enddoc": true, "endifchanged": true, "endraw": true,
	"elsif": true, "else": true, "when": true,
}

func isEndTag(name string) bool { return endTagNames[name] }

func containsStr(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// parseVarTag parses a `{{ expr | filters }}` token and emits IL that
// leaves the value written to output.
func (p *Parser) parseVarTag(tok token.Token) {
	p.b.SetSpan(p.spanOf(tok))
	ep := newExprParser(p, tok.Lexeme, tok.Start)
	ep.parseExpressionWithFilters()
	p.emit(il.Instruction{Op: il.WRITE_VALUE})
}
