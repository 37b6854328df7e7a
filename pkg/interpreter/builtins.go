package interpreter

import (
	"fmt"

	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/runtime"
)

// builtinHandler is the host-side implementation backing one entry of the
// builtin registry (spec.md §6): a display name, the parameter names its
// synthesized Function was declared with, and the Go function that does
// the actual work by looking those names up in the current call scope.
type builtinHandler struct {
	name       string
	paramNames []string
	run        func(i *Interpreter) (ReturnAction, error)
}

func (h *builtinHandler) Run(i *Interpreter) (ReturnAction, error) {
	return h.run(i)
}

// installBuiltins declares one Function value per builtinHandler in the
// scope at the bottom of the stack (spec.md §4.3, §6). Each Function's
// body is a single ExternalInvocation statement naming the handler's
// registry id; invoke() declares the call's arguments under paramNames
// before running that body, exactly like any other call.
func (i *Interpreter) installBuiltins() {
	i.register(&builtinHandler{name: "puts", paramNames: []string{"value"}, run: builtinPuts})
	i.register(&builtinHandler{name: "assert", paramNames: []string{"condition"}, run: builtinAssert})
	i.register(&builtinHandler{name: "map", paramNames: []string{"target", "func"}, run: builtinMap})
}

func (i *Interpreter) register(h *builtinHandler) {
	id := i.nextID
	i.nextID++
	i.builtins[id] = h

	node := &ast.FunctionLiteral{
		Parameters: h.paramNames,
		Body:       ast.BlockOf(ast.External(id)),
	}
	fn := runtime.NewFunction(node)
	fn.CalleeName = h.name
	// Locked stays false: a builtin frame must be transparent to outward
	// name resolution, the same way an unlocked user function's is, since
	// a callback passed into map() (spec.md §6) needs to resolve its own
	// lexical variables straight through the builtin's call frame rather
	// than stopping at it. Builtins have no CaptureNames and are never
	// registered pending, so they're never visited by finalizeCaptures —
	// Locked simply never flips true for them.

	// Declare can't fail here: the builtin scope is fresh and names are
	// chosen by us, not user input.
	_ = i.scopes.Declare(h.name, fn)
}

func builtinPuts(i *Interpreter) (ReturnAction, error) {
	v, _ := i.scopes.Lookup("value")
	fmt.Fprintln(i.Stdout, runtime.Render(v, false))
	return ReturnAction{Kind: ReturnedVoid}, nil
}

func builtinAssert(i *Interpreter) (ReturnAction, error) {
	v, _ := i.scopes.Lookup("condition")
	b, ok := v.(runtime.Bool)
	if !ok {
		return didntReturn, i.sink.Fail("assert() requires a bool, got %s", runtime.TypeName(v))
	}
	if !bool(b) {
		return didntReturn, i.sink.Fail("Assert failed")
	}
	return ReturnAction{Kind: ReturnedVoid}, nil
}

func builtinMap(i *Interpreter) (ReturnAction, error) {
	target, _ := i.scopes.Lookup("target")
	fnVal, _ := i.scopes.Lookup("func")
	fn, ok := fnVal.(*runtime.Function)
	if !ok {
		return didntReturn, i.sink.Fail("map() requires a function, got %s", runtime.TypeName(fnVal))
	}

	switch t := target.(type) {
	case *runtime.Array:
		for _, el := range t.Elements {
			if _, err := i.invoke(fn, []runtime.Value{el}, ast.Range{}); err != nil {
				return didntReturn, err
			}
		}
	case *runtime.Dict:
		for _, e := range t.Entries() {
			if _, err := i.invoke(fn, []runtime.Value{e.Key, e.Value}, ast.Range{}); err != nil {
				return didntReturn, err
			}
		}
	default:
		return didntReturn, i.sink.Fail("map() requires an array or dict, got %s", runtime.TypeName(target))
	}
	return ReturnAction{Kind: ReturnedVoid}, nil
}
