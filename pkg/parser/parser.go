// Package parser builds a pkg/ast tree from token stream produced by
// pkg/lexer. The teacher (davidkellis/able) drives a tree-sitter grammar
// for its much larger language and hand-rolls only its literal and
// pattern sub-grammars; Ember's grammar is small enough, and the pack's
// grammar-generation tooling unavailable to this build, that the whole
// parser is written in that same hand-rolled, precedence-table style
// (see SPEC_FULL.md §2 for why tree-sitter itself was not retargeted).
package parser

import (
	"fmt"

	"github.com/emberlang/ember/pkg/arena"
	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/lexer"
)

// precedence levels, lowest to highest.
const (
	lowest      = 1
	orPrec      = 2
	andPrec     = 3
	equalsPrec  = 4
	compareprec = 5
	sumPrec     = 6
	productPrec = 7
	prefixPrec  = 8
	callIdxPrec = 9
)

var binaryPrecedence = map[lexer.Kind]int{
	lexer.OR:     orPrec,
	lexer.AND:    andPrec,
	lexer.EQEQ:   equalsPrec,
	lexer.NOTEQ:  equalsPrec,
	lexer.LT:     compareprec,
	lexer.GT:     compareprec,
	lexer.PLUS:   sumPrec,
	lexer.MINUS:  sumPrec,
	lexer.STAR:   productPrec,
	lexer.SLASH:  productPrec,
	lexer.LPAREN: callIdxPrec,
	lexer.LBRACKET: callIdxPrec,
}

var binaryOps = map[lexer.Kind]ast.BinaryOperator{
	lexer.PLUS:  ast.OpAdd,
	lexer.MINUS: ast.OpSub,
	lexer.STAR:  ast.OpMul,
	lexer.SLASH: ast.OpDiv,
	lexer.EQEQ:  ast.OpEq,
	lexer.NOTEQ: ast.OpNotEq,
	lexer.LT:    ast.OpLt,
	lexer.GT:    ast.OpGt,
	lexer.AND:   ast.OpAnd,
	lexer.OR:    ast.OpOr,
}

// SyntaxError is returned for any malformed program; it carries a source
// range so callers can format it the same way the evaluator formats
// runtime failures (spec.md §6: "Parser/lexer errors (external):
// propagated unchanged").
type SyntaxError struct {
	Range   ast.Range
	Origin  string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d in %s: %s", e.Range.Start.Line, e.Range.Start.Column, e.Origin, e.Message)
}

// Parser consumes a token stream and builds an *ast.Program.
type Parser struct {
	lex    *lexer.Lexer
	origin string
	arena  *arena.Arena
	cur    lexer.Token
	next   lexer.Token
}

// Parse lexes and parses src (with the given display origin) into a
// Program owned by a fresh Arena, or returns the first SyntaxError
// encountered. The caller is responsible for calling Arena.Release once
// evaluation of the returned Program has finished (spec.md §5).
func Parse(src, origin string) (*ast.Program, *arena.Arena, error) {
	a := arena.New()
	prog, err := ParseWithArena(src, origin, a)
	if err != nil {
		return nil, nil, err
	}
	return prog, a, nil
}

// ParseWithArena is Parse against a caller-supplied Arena, letting a
// caller intern strings across several parses (e.g. REPL input) into one
// Arena.
func ParseWithArena(src, origin string, a *arena.Arena) (*ast.Program, error) {
	p := &Parser{lex: lexer.New(src, origin), origin: origin, arena: a}
	if err := p.primeTokens(); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements(lexer.EOF)
	if err != nil {
		return nil, err
	}
	prog := ast.NewProgram(stmts)
	a.Own(prog)
	return prog, nil
}

func (p *Parser) intern(s string) string { return p.arena.Intern(s) }

func (p *Parser) primeTokens() error {
	var err error
	p.cur, err = p.lex.Next()
	if err != nil {
		return p.wrapLexErr(err)
	}
	p.next, err = p.lex.Next()
	if err != nil {
		return p.wrapLexErr(err)
	}
	return nil
}

func (p *Parser) wrapLexErr(err error) error {
	// pkg/lexer already formats "line:col in origin: message"; surface it
	// verbatim as the syntax error's message, keeping the range best-effort.
	return &SyntaxError{Range: ast.Range{Start: toPos(p.cur.Start), End: toPos(p.cur.Start)}, Origin: p.origin, Message: err.Error()}
}

func (p *Parser) advance() error {
	p.cur = p.next
	var err error
	p.next, err = p.lex.Next()
	if err != nil {
		return p.wrapLexErr(err)
	}
	return nil
}

func toPos(p lexer.Position) ast.Position { return ast.Position{Line: p.Line, Column: p.Column} }

func (p *Parser) rangeFrom(start lexer.Position) ast.Range {
	return ast.Range{Start: toPos(start), End: toPos(p.cur.Start)}
}

func (p *Parser) errf(format string, args ...any) error {
	return &SyntaxError{
		Range:   ast.Range{Start: toPos(p.cur.Start), End: toPos(p.cur.End)},
		Origin:  p.origin,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errf("expected %s, got %s", k, p.cur.Kind)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatements(end lexer.Kind) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for p.cur.Kind != end && p.cur.Kind != lexer.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Kind {
	case lexer.LET:
		return p.parseLet()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.IF:
		return p.parseIf()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IDENT:
		if p.next.Kind == lexer.EQ {
			return p.parseReassign()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLet() (ast.Statement, error) {
	start := p.cur.Start
	if err := p.advance(); err != nil { // consume 'let'
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if err := p.consumeOptionalSemi(); err != nil {
		return nil, err
	}
	stmt := ast.Let(p.intern(nameTok.Literal), value)
	stmt.Range = p.rangeFrom(start)
	return stmt, nil
}

func (p *Parser) parseReassign() (ast.Statement, error) {
	start := p.cur.Start
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if err := p.consumeOptionalSemi(); err != nil {
		return nil, err
	}
	stmt := ast.Reassign(p.intern(nameTok.Literal), value)
	stmt.Range = p.rangeFrom(start)
	return stmt, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	start := p.cur.Start
	if err := p.advance(); err != nil { // consume 'return'
		return nil, err
	}
	var value ast.Expression
	if p.cur.Kind != lexer.SEMI && p.cur.Kind != lexer.RBRACE {
		var err error
		value, err = p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
	}
	if err := p.consumeOptionalSemi(); err != nil {
		return nil, err
	}
	stmt := ast.Return(value)
	stmt.Range = p.rangeFrom(start)
	return stmt, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	start := p.cur.Start
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBranch()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.cur.Kind == lexer.ELSE {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == lexer.IF {
			// `else if` desugars to a single-statement else-block holding
			// the nested if, so IfStatement stays binary per spec.md §4.6.
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			elseBlock = ast.BlockOf(nested)
			elseBlock.Range = nested.SourceRange()
		} else {
			elseBlock, err = p.parseBranch()
			if err != nil {
				return nil, err
			}
		}
	}
	stmt := ast.If(cond, thenBlock, elseBlock)
	stmt.Range = p.rangeFrom(start)
	return stmt, nil
}

func (p *Parser) parseBlock() (ast.Statement, error) {
	return p.parseBlockNode()
}

// parseBranch parses an If branch, which may be written as a brace-delimited
// block or as a single bare statement (spec.md §8 scenario 2 uses the
// latter: `if(b) b = false; else b = true;`). A bare statement is wrapped
// in a synthetic Block so evaluation always goes through evaluateBlock.
func (p *Parser) parseBranch() (*ast.Block, error) {
	if p.cur.Kind == lexer.LBRACE {
		return p.parseBlockNode()
	}
	start := p.cur.Start
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	b := ast.BlockOf(stmt)
	b.Range = p.rangeFrom(start)
	return b, nil
}

func (p *Parser) parseBlockNode() (*ast.Block, error) {
	start := p.cur.Start
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	b := ast.BlockOf(stmts...)
	b.Range = p.rangeFrom(start)
	return b, nil
}

// parseExpressionStatement parses an expression in statement position,
// e.g. `puts(x);` or `a[5];`. Any expression is valid here, followed by an
// optional `;` (grounded on the original Monkey grammar's ExpressionStatement,
// which likewise admits any expression). The one exception is the last
// statement of a block: an expression followed directly by `}`, with no
// `;`, is instead a TailExpression (see its doc comment) — the parser
// recognizes that by checking what follows, not by what kind of
// expression it parsed.
func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.cur.Start
	expr, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.RBRACE {
		stmt := ast.Tail(expr)
		stmt.Range = p.rangeFrom(start)
		return stmt, nil
	}
	if err := p.consumeOptionalSemi(); err != nil {
		return nil, err
	}
	stmt := ast.ExprStmt(expr)
	stmt.Range = p.rangeFrom(start)
	return stmt, nil
}

func (p *Parser) consumeOptionalSemi() error {
	if p.cur.Kind == lexer.SEMI {
		return p.advance()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions (precedence climbing)
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression(minPrec int) (ast.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrecedence[p.cur.Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		switch p.cur.Kind {
		case lexer.LPAREN:
			left, err = p.parseCall(left)
		case lexer.LBRACKET:
			left, err = p.parseIndex(left)
		default:
			left, err = p.parseInfix(left, prec)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parsePrefix() (ast.Expression, error) {
	start := p.cur.Start
	switch p.cur.Kind {
	case lexer.INT:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		lit := ast.Int(tok.IntValue)
		lit.Range = p.rangeFrom(start)
		return lit, nil
	case lexer.STRING:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		lit := ast.Str(tok.Literal)
		lit.Range = p.rangeFrom(start)
		return lit, nil
	case lexer.TRUE, lexer.FALSE:
		v := p.cur.Kind == lexer.TRUE
		if err := p.advance(); err != nil {
			return nil, err
		}
		lit := ast.Bool(v)
		lit.Range = p.rangeFrom(start)
		return lit, nil
	case lexer.IDENT:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		id := ast.Ident(p.intern(tok.Literal))
		id.Range = p.rangeFrom(start)
		return id, nil
	case lexer.BANG:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseExpression(prefixPrec)
		if err != nil {
			return nil, err
		}
		n := ast.Neg(operand)
		n.Range = p.rangeFrom(start)
		return n, nil
	case lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		n := ast.Paren(inner)
		n.Range = p.rangeFrom(start)
		return n, nil
	case lexer.LBRACKET:
		return p.parseArrayLiteral(start)
	case lexer.LBRACE:
		return p.parseDictLiteral(start)
	case lexer.FN:
		return p.parseFunctionLiteral(start)
	default:
		return nil, p.errf("unexpected token %s", p.cur.Kind)
	}
}

func (p *Parser) parseInfix(left ast.Expression, prec int) (ast.Expression, error) {
	opTok := p.cur
	op, ok := binaryOps[opTok.Kind]
	if !ok {
		return nil, p.errf("unexpected operator %s", opTok.Kind)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	// All of Ember's binary operators are left-associative, so the
	// right-hand parse uses prec+1 (not prec): an operator of the same
	// level then ends the right operand and becomes the parent node.
	right, err := p.parseExpression(prec + 1)
	if err != nil {
		return nil, err
	}
	start := left.SourceRange().Start
	n := ast.Bin(op, left, right)
	n.Range = ast.Range{Start: start, End: toPos(p.cur.Start)}
	return n, nil
}

func (p *Parser) parseCall(callee ast.Expression) (ast.Expression, error) {
	start := callee.SourceRange().Start
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for p.cur.Kind != lexer.RPAREN {
		arg, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	n := ast.Call(callee, args...)
	n.Range = ast.Range{Start: start, End: toPos(p.cur.Start)}
	return n, nil
}

func (p *Parser) parseIndex(collection ast.Expression) (ast.Expression, error) {
	start := collection.SourceRange().Start
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	idx, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	n := ast.Index(collection, idx)
	n.Range = ast.Range{Start: start, End: toPos(p.cur.Start)}
	return n, nil
}

func (p *Parser) parseArrayLiteral(start lexer.Position) (ast.Expression, error) {
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	var elems []ast.Expression
	for p.cur.Kind != lexer.RBRACKET {
		el, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	n := ast.Arr(elems...)
	n.Range = p.rangeFrom(start)
	return n, nil
}

func (p *Parser) parseDictLiteral(start lexer.Position) (ast.Expression, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var entries []ast.DictEntry
	for p.cur.Kind != lexer.RBRACE {
		key, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	n := ast.Dict(entries...)
	n.Range = p.rangeFrom(start)
	return n, nil
}

func (p *Parser) parseFunctionLiteral(start lexer.Position) (ast.Expression, error) {
	if err := p.advance(); err != nil { // consume 'fn'
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.cur.Kind != lexer.RPAREN {
		tok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, p.intern(tok.Literal))
		if p.cur.Kind == lexer.COMMA {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlockNode()
	if err != nil {
		return nil, err
	}
	captures := ast.FreeVariables(params, body)
	n := ast.Fn(params, body, captures)
	n.Range = p.rangeFrom(start)
	return n, nil
}
