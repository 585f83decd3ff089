package parser

import (
	"strconv"

	"github.com/liquidil/liquidil/internal/il"
	"github.com/liquidil/liquidil/internal/lexer"
	"github.com/liquidil/liquidil/internal/token"
)

// exprParser implements the expression grammar of §4.4:
//
//	logical    = comparison ((and|or) logical)?
//	comparison = primary ((eq|ne|lt|le|gt|ge|contains) primary)*
//	primary    = literal | identifier chain
//	           | '(' expr ('..' expr)? ')'
//	           | '[' expr ']' chain
//
// It holds its own token cursor over an ExprLexer but shares the
// instruction stream (via p) with the enclosing tag parser, so property
// chains, filters, and tag-specific argument lists can all emit
// directly into the same IL sequence with no intermediate tree.
type exprParser struct {
	p   *Parser
	lex *lexer.ExprLexer
	cur token.Token
}

func newExprParser(p *Parser, src string, base token.Pos) *exprParser {
	ep := &exprParser{p: p, lex: lexer.NewExpr(src, base)}
	ep.advance()
	return ep
}

func (ep *exprParser) advance() { ep.cur = ep.lex.Next() }

func (ep *exprParser) fail(format string, args ...interface{}) {
	ep.p.fail(format, args...)
}

func (ep *exprParser) expect(k token.Kind) token.Token {
	if ep.cur.Kind != k {
		ep.fail("expected %s, got %q", k, ep.cur.Lexeme)
	}
	t := ep.cur
	ep.advance()
	return t
}

// parseExpressionWithFilters parses `logical ('|' filter)*` and leaves
// the final value on the VM stack.
func (ep *exprParser) parseExpressionWithFilters() {
	ep.parseLogical()
	for ep.cur.Kind == token.PIPE {
		ep.advance()
		ep.parseFilter()
	}
}

func (ep *exprParser) parseFilter() {
	name := ep.expect(token.IDENTIFIER).Lexeme

	pos := 0
	kwCount := 0
	if ep.cur.Kind == token.COLON {
		ep.advance()
		for {
			if ep.atKeywordArg() {
				key := ep.expect(token.IDENTIFIER).Lexeme
				ep.advance() // consume ':'
				ep.p.emit(il.Instruction{Op: il.CONST_STRING, Str: key})
				ep.parseLogical()
				kwCount++
			} else {
				ep.parseLogical()
				pos++
			}
			if ep.cur.Kind == token.COMMA {
				ep.advance()
				continue
			}
			break
		}
	}

	hasKwargs := kwCount > 0
	if hasKwargs {
		ep.p.emit(il.Instruction{Op: il.BUILD_HASH, HashCount: kwCount})
	}
	reportedPos := pos
	if hasKwargs {
		reportedPos++
	}
	ep.p.emit(il.Instruction{Op: il.CALL_FILTER, FilterName: name, PosArgs: reportedPos, HasKwargs: hasKwargs})
}

// atKeywordArg reports whether the cursor is at `IDENTIFIER ':'`,
// checkpointing the lexer since a bare identifier is also a valid
// positional expression (§4.3 "checkpoint/restore").
func (ep *exprParser) atKeywordArg() bool {
	if ep.cur.Kind != token.IDENTIFIER {
		return false
	}
	cp := ep.lex.Checkpoint()
	savedCur := ep.cur
	ep.advance()
	isKw := ep.cur.Kind == token.COLON
	ep.lex.Restore(cp)
	ep.cur = savedCur
	return isKw
}

func (ep *exprParser) parseLogical() {
	ep.parseComparison()
	switch ep.cur.Kind {
	case token.AND:
		ep.advance()
		falseLbl := ep.p.b.NewLabel()
		endLbl := ep.p.b.NewLabel()
		ep.p.emit(il.Instruction{Op: il.JUMP_IF_FALSE, Label: falseLbl})
		ep.parseLogical()
		ep.p.emit(il.Instruction{Op: il.IS_TRUTHY})
		ep.p.emit(il.Instruction{Op: il.JUMP, Label: endLbl})
		ep.p.b.EmitLabel(falseLbl)
		ep.p.emit(il.Instruction{Op: il.CONST_FALSE})
		ep.p.b.EmitLabel(endLbl)
	case token.OR:
		ep.advance()
		trueLbl := ep.p.b.NewLabel()
		endLbl := ep.p.b.NewLabel()
		ep.p.emit(il.Instruction{Op: il.JUMP_IF_TRUE, Label: trueLbl})
		ep.parseLogical()
		ep.p.emit(il.Instruction{Op: il.IS_TRUTHY})
		ep.p.emit(il.Instruction{Op: il.JUMP, Label: endLbl})
		ep.p.b.EmitLabel(trueLbl)
		ep.p.emit(il.Instruction{Op: il.CONST_TRUE})
		ep.p.b.EmitLabel(endLbl)
	}
}

func (ep *exprParser) parseComparison() {
	ep.parsePrimary()
	for {
		var cmp il.CompareOp
		isContains := false
		switch ep.cur.Kind {
		case token.EQ:
			cmp = il.CmpEQ
		case token.NE:
			cmp = il.CmpNE
		case token.LT:
			cmp = il.CmpLT
		case token.LE:
			cmp = il.CmpLE
		case token.GT:
			cmp = il.CmpGT
		case token.GE:
			cmp = il.CmpGE
		case token.CONTAINS:
			isContains = true
		default:
			return
		}
		ep.advance()
		ep.parsePrimary()
		if isContains {
			ep.p.emit(il.Instruction{Op: il.CONTAINS_OP})
		} else {
			ep.p.emit(il.Instruction{Op: il.COMPARE, Cmp: cmp})
		}
	}
}

func (ep *exprParser) parsePrimary() {
	switch ep.cur.Kind {
	case token.NUMBER:
		lexeme := ep.cur.Lexeme
		ep.advance()
		i, f, isFloat, err := lexer.ParseNumber(lexeme)
		if err != nil {
			ep.fail("invalid number %q", lexeme)
		}
		if isFloat {
			ep.p.emit(il.Instruction{Op: il.CONST_FLOAT, Float: f})
		} else {
			ep.p.emit(il.Instruction{Op: il.CONST_INT, Int: i})
		}
	case token.STRING:
		lit := ep.cur.Literal
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_STRING, Str: lit})
	case token.NIL:
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_NIL})
	case token.TRUE:
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_TRUE})
	case token.FALSE:
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_FALSE})
	case token.EMPTY:
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_EMPTY})
	case token.BLANK:
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_BLANK})
	case token.LPAREN:
		ep.advance()
		ep.parseLogical()
		if ep.cur.Kind == token.DOTDOT {
			ep.advance()
			ep.parseLogical()
			ep.p.emit(il.Instruction{Op: il.MAKE_RANGE})
		}
		ep.expect(token.RPAREN)
	case token.IDENTIFIER:
		name := ep.identifierPath()
		ep.p.emit(il.Instruction{Op: il.FIND_VAR, Str: name})
		ep.parsePropertyChain()
	case token.LBRACKET:
		ep.advance()
		ep.parseLogical()
		ep.expect(token.RBRACKET)
		ep.p.emit(il.Instruction{Op: il.FIND_VAR_DYNAMIC})
		ep.parsePropertyChain()
	default:
		ep.fail("unexpected token %q in expression", ep.cur.Lexeme)
	}
}

// identifierPath reads a single identifier spelling. Liquid identifiers
// such as `product-title` or `page.name` at the lexer level are a plain
// IDENTIFIER; the `.` chain is handled by parsePropertyChain, not here.
func (ep *exprParser) identifierPath() string {
	name := ep.expect(token.IDENTIFIER).Lexeme
	return name
}

func (ep *exprParser) parsePropertyChain() {
	for {
		switch ep.cur.Kind {
		case token.DOT, token.FAT_ARROW:
			ep.advance()
			key := ep.expect(token.IDENTIFIER).Lexeme
			ep.p.emit(il.Instruction{Op: il.LOOKUP_CONST_KEY, Str: key})
		case token.LBRACKET:
			ep.advance()
			ep.parseLogical()
			ep.expect(token.RBRACKET)
			ep.p.emit(il.Instruction{Op: il.LOOKUP_KEY})
		default:
			return
		}
	}
}

// parseArgList parses a tag's trailing `name, name, key: value, ...`
// argument list (no tag parser calls it; parseRenderOrInclude reads its
// own arguments) into positional Values (each
// left on the stack) plus a keyword map (emitted via BUILD_HASH) —
// callers combine these into an Args map at the IL level. Returns the
// number of positional args pushed and whether a kwarg hash was built.
func (ep *exprParser) parseArgList() (pos int, hasKwargs bool) {
	for ep.cur.Kind != token.EOF {
		if ep.atKeywordArg() {
			break
		}
		ep.parseLogical()
		pos++
		if ep.cur.Kind == token.COMMA {
			ep.advance()
			continue
		}
		break
	}
	kw := 0
	for ep.atKeywordArg() {
		key := ep.expect(token.IDENTIFIER).Lexeme
		ep.advance()
		ep.p.emit(il.Instruction{Op: il.CONST_STRING, Str: key})
		ep.parseLogical()
		kw++
		if ep.cur.Kind == token.COMMA {
			ep.advance()
			continue
		}
		break
	}
	if kw > 0 {
		ep.p.emit(il.Instruction{Op: il.BUILD_HASH, HashCount: kw})
		hasKwargs = true
	}
	return pos, hasKwargs
}

// parseIntLiteral is a small helper for tag arguments that must be
// compile-time integer constants (e.g. `limit: 5`), returning ok=false
// when the next tokens aren't a bare integer.
func (ep *exprParser) parseIntLiteral() (int64, bool) {
	if ep.cur.Kind != token.NUMBER {
		return 0, false
	}
	i, err := strconv.ParseInt(ep.cur.Lexeme, 10, 64)
	if err != nil {
		return 0, false
	}
	ep.advance()
	return i, true
}
