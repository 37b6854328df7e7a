package lexer_test

import (
	"testing"

	"github.com/emberlang/ember/pkg/lexer"
)

func lexAll(t *testing.T, src string) []lexer.Token {
	t.Helper()
	l := lexer.New(src, "test")
	var toks []lexer.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == lexer.EOF {
			return toks
		}
	}
}

func TestLexPunctuationAndOperators(t *testing.T) {
	toks := lexAll(t, `+ - * / == != < > && || ! = ( ) { } [ ] , : ;`)
	want := []lexer.Kind{
		lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH,
		lexer.EQEQ, lexer.NOTEQ, lexer.LT, lexer.GT,
		lexer.AND, lexer.OR, lexer.BANG, lexer.EQ,
		lexer.LPAREN, lexer.RPAREN, lexer.LBRACE, lexer.RBRACE,
		lexer.LBRACKET, lexer.RBRACKET, lexer.COMMA, lexer.COLON, lexer.SEMI,
		lexer.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d = %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexKeywordsVsIdentifiers(t *testing.T) {
	toks := lexAll(t, "let fn if else return true false letx")
	want := []lexer.Kind{
		lexer.LET, lexer.FN, lexer.IF, lexer.ELSE, lexer.RETURN,
		lexer.TRUE, lexer.FALSE, lexer.IDENT, lexer.EOF,
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d = %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[7].Literal != "letx" {
		t.Fatalf("identifier literal = %q, want letx", toks[7].Literal)
	}
}

func TestLexIntegerLiteral(t *testing.T) {
	toks := lexAll(t, "12345")
	if toks[0].Kind != lexer.INT || toks[0].IntValue != 12345 {
		t.Fatalf("got %+v, want INT 12345", toks[0])
	}
}

func TestLexDoubleAndSingleQuotedStrings(t *testing.T) {
	toks := lexAll(t, `"hello\nworld" '!'`)
	if toks[0].Kind != lexer.STRING || toks[0].Literal != "hello\nworld" {
		t.Fatalf("double-quoted string = %+v", toks[0])
	}
	if toks[1].Kind != lexer.STRING || toks[1].Literal != "!" {
		t.Fatalf("single-quoted string = %+v", toks[1])
	}
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	l := lexer.New(`"unterminated`, "test")
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestLexSkipsLineComments(t *testing.T) {
	toks := lexAll(t, "1 # a comment\n2")
	if toks[0].Kind != lexer.INT || toks[0].IntValue != 1 {
		t.Fatalf("first token = %+v", toks[0])
	}
	if toks[1].Kind != lexer.INT || toks[1].IntValue != 2 {
		t.Fatalf("second token = %+v", toks[1])
	}
}

func TestLexTracksLineAndColumn(t *testing.T) {
	toks := lexAll(t, "1\n  22")
	if toks[0].Start.Line != 1 || toks[0].Start.Column != 1 {
		t.Fatalf("first token position = %+v", toks[0].Start)
	}
	if toks[1].Start.Line != 2 || toks[1].Start.Column != 3 {
		t.Fatalf("second token position = %+v", toks[1].Start)
	}
}
