package parser_test

import (
	"testing"

	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, _, err := parser.Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return prog
}

func TestParseLetAndReassign(t *testing.T) {
	prog := mustParse(t, "let a = 0; a = (a+1)*3; a = a+2;")
	if len(prog.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Statements))
	}
	let, ok := prog.Statements[0].(*ast.LetStatement)
	if !ok || let.Name != "a" {
		t.Fatalf("statement 0 = %#v, want LetStatement a", prog.Statements[0])
	}
	if _, ok := prog.Statements[1].(*ast.ReassignStatement); !ok {
		t.Fatalf("statement 1 = %#v, want ReassignStatement", prog.Statements[1])
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := mustParse(t, "a = 1 + 2 * 3;")
	reassign := prog.Statements[0].(*ast.ReassignStatement)
	bin, ok := reassign.Value.(*ast.BinaryExpression)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("top operator = %#v, want +", reassign.Value)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpression)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("rhs = %#v, want * nested under +", bin.Right)
	}
}

func TestParseIfWithoutBraces(t *testing.T) {
	prog := mustParse(t, "if(b) b = false; else b = true;")
	ifStmt, ok := prog.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %#v, want IfStatement", prog.Statements[0])
	}
	if len(ifStmt.Then.Statements) != 1 || len(ifStmt.Else.Statements) != 1 {
		t.Fatalf("branches = %#v / %#v, want one statement each", ifStmt.Then, ifStmt.Else)
	}
}

func TestParseFunctionLiteralComputesCaptures(t *testing.T) {
	prog := mustParse(t, "let f = fn(i){ r = r + i; };")
	let := prog.Statements[0].(*ast.LetStatement)
	fn, ok := let.Value.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("got %#v, want FunctionLiteral", let.Value)
	}
	if len(fn.CaptureNames) != 1 || fn.CaptureNames[0] != "r" {
		t.Fatalf("CaptureNames = %v, want [r]", fn.CaptureNames)
	}
}

func TestParseTailExpressionAtBlockEnd(t *testing.T) {
	prog := mustParse(t, `let mk = fn(who){ return fn(){ "Hello, " + who }; };`)
	let := prog.Statements[0].(*ast.LetStatement)
	outer := let.Value.(*ast.FunctionLiteral)
	ret := outer.Body.Statements[0].(*ast.ReturnStatement)
	inner := ret.Value.(*ast.FunctionLiteral)
	if _, ok := inner.Body.Statements[0].(*ast.TailExpression); !ok {
		t.Fatalf("inner body statement = %#v, want TailExpression", inner.Body.Statements[0])
	}
}

func TestParseNonCallNonFinalExpressionStatementIsAllowed(t *testing.T) {
	prog := mustParse(t, "let x = 1; x; let y = 2;")
	if len(prog.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Statements))
	}
	stmt, ok := prog.Statements[1].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement 1 = %#v, want ExpressionStatement", prog.Statements[1])
	}
	if _, ok := stmt.Expr.(*ast.Identifier); !ok {
		t.Fatalf("statement 1 expr = %#v, want Identifier", stmt.Expr)
	}
}

func TestParseIndexExpressionStatement(t *testing.T) {
	prog := mustParse(t, "let a = [1,2]; a[5];")
	if len(prog.Statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Statements))
	}
	stmt, ok := prog.Statements[1].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement 1 = %#v, want ExpressionStatement", prog.Statements[1])
	}
	if _, ok := stmt.Expr.(*ast.IndexExpression); !ok {
		t.Fatalf("statement 1 expr = %#v, want IndexExpression", stmt.Expr)
	}
}

func TestParseChainedCalls(t *testing.T) {
	prog := mustParse(t, `mk("World")();`)
	stmt := prog.Statements[0].(*ast.ExpressionStatement)
	outer, ok := stmt.Expr.(*ast.CallExpression)
	if !ok || len(outer.Arguments) != 0 {
		t.Fatalf("outer call = %#v, want zero-arg call", stmt.Expr)
	}
	inner, ok := outer.Callee.(*ast.CallExpression)
	if !ok || len(inner.Arguments) != 1 {
		t.Fatalf("inner call = %#v, want one-arg call", outer.Callee)
	}
}

func TestParseArrayAndIndex(t *testing.T) {
	prog := mustParse(t, `let arr = [6,9,[],'!'];`)
	let := prog.Statements[0].(*ast.LetStatement)
	arr, ok := let.Value.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 4 {
		t.Fatalf("got %#v, want 4-element array", let.Value)
	}
	if _, ok := arr.Elements[2].(*ast.ArrayLiteral); !ok {
		t.Fatalf("element 2 = %#v, want nested ArrayLiteral", arr.Elements[2])
	}
	str, ok := arr.Elements[3].(*ast.StringLiteral)
	if !ok || str.Value != "!" {
		t.Fatalf("element 3 = %#v, want string literal \"!\"", arr.Elements[3])
	}
}

func TestParseDictLiteral(t *testing.T) {
	prog := mustParse(t, `let d = {"a":1, "b":2};`)
	let := prog.Statements[0].(*ast.LetStatement)
	dict, ok := let.Value.(*ast.DictLiteral)
	if !ok || len(dict.Entries) != 2 {
		t.Fatalf("got %#v, want 2-entry dict", let.Value)
	}
}

func TestParseUnterminatedSyntaxError(t *testing.T) {
	_, _, err := parser.Parse("let a = ", "test")
	if err == nil {
		t.Fatal("expected a syntax error for incomplete let")
	}
}
