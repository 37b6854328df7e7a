// Package interpreter implements the evaluator spec.md describes: it
// walks a pkg/ast tree, threading a ScopeStack that enforces closure
// -capture and compound-value lifetime rules, and producing pkg/runtime
// Values.
package interpreter

import (
	"io"
	"os"

	"github.com/emberlang/ember/pkg/arena"
	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/runtime"
)

// ReturnKind is the three-way status spec.md's glossary calls
// ReturnAction: DidntReturn, ReturnedVoid, ReturnedValue(v).
type ReturnKind int

const (
	DidntReturn ReturnKind = iota
	ReturnedVoid
	ReturnedValue
)

// ReturnAction is what statement execution propagates up to distinguish
// fallthrough from an explicit return (spec.md glossary).
type ReturnAction struct {
	Kind  ReturnKind
	Value runtime.Value
}

var didntReturn = ReturnAction{Kind: DidntReturn}

// Interpreter evaluates a Program against a ScopeStack, with builtins
// installed at the bottom of the stack once (spec.md §4.3).
type Interpreter struct {
	scopes   *ScopeStack
	sink     ErrorSink
	builtins map[int]*builtinHandler
	nextID   int
	arena    *arena.Arena

	// Stdout is where `puts` writes; exported so tests and cmd/ember can
	// redirect it without adding a constructor parameter.
	Stdout io.Writer
}

// New returns an Interpreter with the builtin registry (spec.md §6)
// installed in a Block scope at the bottom of the stack.
func New(sink ErrorSink) *Interpreter {
	i := &Interpreter{
		scopes:   newScopeStack(sink),
		sink:     sink,
		builtins: map[int]*builtinHandler{},
		Stdout:   os.Stdout,
	}
	i.scopes.ScopeInBlock() // permanent builtin scope, spec.md §4.3
	i.installBuiltins()
	return i
}

// Run evaluates program's top-level statements in a fresh module scope
// nested directly under the builtin scope. A bare `return` at the top
// level — legal syntax, since the grammar doesn't distinguish top-level
// from function-body statement lists — is rejected: there is no caller
// for it to return a value to (an Open Question spec.md leaves
// unresolved; see DESIGN.md).
func (i *Interpreter) Run(program *ast.Program, a *arena.Arena) error {
	i.arena = a
	i.scopes.ScopeInBlock()
	ra, err := i.executeStatements(program.Statements)
	i.scopes.ScopeOut()
	if err != nil {
		return err
	}
	if ra.Kind != DidntReturn {
		return i.sink.Fail("return statement not allowed at top level")
	}
	return nil
}

// Release tears down the arena backing the last-run Program, per
// spec.md §5's "the arena is alive for the full evaluator lifetime; its
// bulk free occurs after evaluation completes."
func (i *Interpreter) Release() {
	if i.arena != nil {
		i.arena.Release()
	}
}

// Quiescent reports whether only the permanent builtin scope remains on
// the stack — the baseline spec.md §8 measures "scope stack is empty"
// against once the evaluator's own installation scope is excluded.
func (i *Interpreter) Quiescent() bool {
	return len(i.scopes.scopes) == 1
}
