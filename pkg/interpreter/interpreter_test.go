package interpreter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emberlang/ember/pkg/interpreter"
	"github.com/emberlang/ember/pkg/parser"
)

// run evaluates src and returns whatever `puts` wrote plus the error, if
// any, the evaluator failed with.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	program, a, err := parser.Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	var errBuf bytes.Buffer
	sink := &interpreter.ConsoleSink{Out: &errBuf, Origin: "test"}
	interp := interpreter.New(sink)
	defer interp.Release()
	var outBuf bytes.Buffer
	interp.Stdout = &outBuf
	runErr := interp.Run(program, a)
	if runErr != nil {
		return outBuf.String(), &errBufError{errBuf.String()}
	}
	return outBuf.String(), nil
}

type errBufError struct{ msg string }

func (e *errBufError) Error() string { return e.msg }

func TestScenarioArithmeticAssertSucceeds(t *testing.T) {
	if _, err := run(t, "let a = 0; a = (a+1)*3; a = a+2; assert(a == 5);"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScenarioClosureOverMutableBoolean(t *testing.T) {
	src := "let b = true; let toggle = fn(){ if(b) b = false; else b = true; !b }; toggle(); b = toggle(); assert(!b);"
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScenarioMapOverArrayWithStringConcat(t *testing.T) {
	src := `let arr = [6,9,[],'!']; let r = ""; map(arr, fn(i){ r = r + i; }); assert(r == "69[]!");`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScenarioCaptureSnapshotAtScopeExit(t *testing.T) {
	src := `let mk = fn(who){ return fn(){ "Hello, " + who }; }; assert(mk("World")() == "Hello, World");`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScenarioDuplicateDictKeyFails(t *testing.T) {
	_, err := run(t, `let d = {"a":1, "a":2};`)
	if err == nil || !strings.Contains(err.Error(), "Duplicate key") {
		t.Fatalf("err = %v, want Duplicate key", err)
	}
}

func TestIdentifierNotFoundFails(t *testing.T) {
	_, err := run(t, "let a = b;")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want 'not found'", err)
	}
}

func TestReassignUndeclaredFails(t *testing.T) {
	_, err := run(t, "x = 1;")
	if err == nil || !strings.Contains(err.Error(), "immutable") {
		t.Fatalf("err = %v, want immutable/doesn't exist", err)
	}
}

func TestDuplicateDeclarationFails(t *testing.T) {
	_, err := run(t, "let a = 1; let a = 2;")
	if err == nil || !strings.Contains(err.Error(), "Duplicate declaration") {
		t.Fatalf("err = %v, want Duplicate declaration", err)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	_, err := run(t, "let a = 1 / 0;")
	if err == nil || !strings.Contains(err.Error(), "Division by zero") {
		t.Fatalf("err = %v, want Division by zero", err)
	}
}

func TestArrayIndexOutOfRangeFails(t *testing.T) {
	_, err := run(t, "let a = [1,2]; a[5];")
	if err == nil || !strings.Contains(err.Error(), "Index out of range") {
		t.Fatalf("err = %v, want Index out of range", err)
	}
}

func TestDictKeyNotFoundFails(t *testing.T) {
	_, err := run(t, `let d = {"a":1}; let v = d["b"];`)
	if err == nil || !strings.Contains(err.Error(), "Key not found") {
		t.Fatalf("err = %v, want Key not found", err)
	}
}

func TestArityMismatchFails(t *testing.T) {
	_, err := run(t, "let f = fn(a,b){ a+b }; f(1);")
	if err == nil || !strings.Contains(err.Error(), "Expected 2 arguments, got 1") {
		t.Fatalf("err = %v, want arity error", err)
	}
}

func TestInvokeNonFunctionFails(t *testing.T) {
	_, err := run(t, "let a = 1; a();")
	if err == nil || !strings.Contains(err.Error(), "Unable to invoke") {
		t.Fatalf("err = %v, want Unable to invoke", err)
	}
}

func TestIfConditionMustBeBool(t *testing.T) {
	_, err := run(t, "if (1) { 1; }")
	if err == nil || !strings.Contains(err.Error(), "Condition must be bool") {
		t.Fatalf("err = %v, want Condition must be bool", err)
	}
}

func TestNegationRequiresBool(t *testing.T) {
	_, err := run(t, "let a = !1;")
	if err == nil || !strings.Contains(err.Error(), "Cannot negate") {
		t.Fatalf("err = %v, want Cannot negate", err)
	}
}

func TestTopLevelReturnIsRejected(t *testing.T) {
	_, err := run(t, "return 1;")
	if err == nil || !strings.Contains(err.Error(), "not allowed at top level") {
		t.Fatalf("err = %v, want top-level return rejection", err)
	}
}

func TestMutualRecursionAtSameScopeLevel(t *testing.T) {
	src := `
let isEven = fn(n){ if (n == 0) { true } else { isOdd(n-1) } };
let isOdd = fn(n){ if (n == 0) { false } else { isEven(n-1) } };
assert(isEven(4));
assert(isOdd(3));
`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCaptureIsFrozenNotLive(t *testing.T) {
	// g captures x at the scope exit of mk's call, as the value x had then;
	// a later top-level `x` binding must not affect it.
	src := `
let mk = fn(){ let x = 1; return fn(){ x }; };
let g = mk();
let x = 99;
assert(g() == 1);
`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPutsWritesRenderedValue(t *testing.T) {
	out, err := run(t, `puts("hi"); puts(5); puts(true);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "hi\n5\ntrue\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestMapOverDictPassesKeyAndValue(t *testing.T) {
	src := `
let d = {"a":1, "b":2};
let total = 0;
map(d, fn(k, v){ total = total + v; });
assert(total == 3);
`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestArrayPlusArrayConcatenates(t *testing.T) {
	src := `
let a = [1,2];
let b = [3,4];
let c = a + b;
assert(c[0] == 1);
assert(c[3] == 4);
`
	if _, err := run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDictPlusDictMergesAndRejectsCollision(t *testing.T) {
	src := `let a = {"x":1}; let b = {"x":2}; let c = a + b;`
	_, err := run(t, src)
	if err == nil || !strings.Contains(err.Error(), "Duplicate key") {
		t.Fatalf("err = %v, want Duplicate key", err)
	}
}

func TestVoidCallUsedAsOperandFails(t *testing.T) {
	src := `let f = fn(){ puts("x"); }; let a = f() + 1;`
	_, err := run(t, src)
	if err == nil || !strings.Contains(err.Error(), "didn't return a value") {
		t.Fatalf("err = %v, want didn't-return-a-value error", err)
	}
}
