package interpreter

import (
	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/runtime"
)

// evaluateExpression implements spec.md §4.7. allowVoid controls whether
// a call that returned void may yield runtime.Void{} instead of failing:
// callers that are themselves about to consume the result as an operand
// (arithmetic, indexing, another call's argument, a let initializer)
// always pass false, since Void is not one of the language's six Value
// variants (spec.md §3.1) and can't legally flow into any of them.
func (i *Interpreter) evaluateExpression(expr ast.Expression, allowVoid bool) (runtime.Value, error) {
	switch n := expr.(type) {
	case *ast.IntegerLiteral:
		return runtime.Int(n.Value), nil
	case *ast.BoolLiteral:
		return runtime.Bool(n.Value), nil
	case *ast.StringLiteral:
		return runtime.NewString(n.Value), nil
	case *ast.Identifier:
		return i.evaluateIdentifier(n)
	case *ast.Parenthesized:
		return i.evaluateExpression(n.Inner, allowVoid)
	case *ast.Negation:
		return i.evaluateNegation(n)
	case *ast.FunctionLiteral:
		return i.evaluateFunctionLiteral(n)
	case *ast.CallExpression:
		return i.evaluateCall(n, allowVoid)
	case *ast.IndexExpression:
		return i.evaluateIndex(n)
	case *ast.BinaryExpression:
		return i.evaluateBinary(n)
	case *ast.ArrayLiteral:
		return i.evaluateArrayLiteral(n)
	case *ast.DictLiteral:
		return i.evaluateDictLiteral(n)
	default:
		return nil, i.sink.Fail("unhandled expression type %T", n)
	}
}

func (i *Interpreter) evaluateIdentifier(n *ast.Identifier) (runtime.Value, error) {
	v, ok := i.scopes.Lookup(n.Name)
	if !ok {
		return nil, i.sink.FailRanged(n.Range, "Identifier '%s' not found", n.Name)
	}
	return runtime.DeepCopy(v), nil
}

func (i *Interpreter) evaluateNegation(n *ast.Negation) (runtime.Value, error) {
	v, err := i.evaluateExpression(n.Operand, false)
	if err != nil {
		return nil, err
	}
	b, ok := v.(runtime.Bool)
	if !ok {
		return nil, i.sink.FailRanged(n.Range, "Cannot negate %s", runtime.TypeName(v))
	}
	return runtime.Bool(!bool(b)), nil
}

func (i *Interpreter) evaluateFunctionLiteral(n *ast.FunctionLiteral) (runtime.Value, error) {
	fn := runtime.NewFunction(n)
	i.scopes.RegisterPendingFunction(fn)
	return fn, nil
}

func (i *Interpreter) evaluateArrayLiteral(n *ast.ArrayLiteral) (runtime.Value, error) {
	elements := make([]runtime.Value, len(n.Elements))
	for idx, elExpr := range n.Elements {
		v, err := i.evaluateExpression(elExpr, false)
		if err != nil {
			return nil, err
		}
		runtime.AddRef(v)
		elements[idx] = v
	}
	return runtime.NewArray(elements), nil
}

func (i *Interpreter) evaluateDictLiteral(n *ast.DictLiteral) (runtime.Value, error) {
	d := runtime.NewDict()
	for _, entry := range n.Entries {
		key, err := i.evaluateExpression(entry.Key, false)
		if err != nil {
			return nil, err
		}
		val, err := i.evaluateExpression(entry.Value, false)
		if err != nil {
			return nil, err
		}
		runtime.AddRef(key)
		runtime.AddRef(val)
		if !d.Insert(key, val) {
			return nil, i.sink.FailRanged(entry.Key.SourceRange(), "Duplicate key")
		}
	}
	return d, nil
}

func (i *Interpreter) evaluateIndex(n *ast.IndexExpression) (runtime.Value, error) {
	collection, err := i.evaluateExpression(n.Collection, false)
	if err != nil {
		return nil, err
	}
	index, err := i.evaluateExpression(n.Index, false)
	if err != nil {
		return nil, err
	}
	switch coll := collection.(type) {
	case *runtime.Array:
		idx, ok := index.(runtime.Int)
		if !ok {
			return nil, i.sink.FailRanged(n.Index.SourceRange(), "Array index must be int, got %s", runtime.TypeName(index))
		}
		if int64(idx) < 0 || int64(idx) >= int64(len(coll.Elements)) {
			return nil, i.sink.FailRanged(n.Range, "Index out of range")
		}
		return runtime.DeepCopy(coll.Elements[idx]), nil
	case *runtime.Dict:
		v, ok := coll.Get(index)
		if !ok {
			return nil, i.sink.FailRanged(n.Range, "Key not found")
		}
		return runtime.DeepCopy(v), nil
	default:
		return nil, i.sink.FailRanged(n.Range, "Cannot use index operator on %s", runtime.TypeName(collection))
	}
}

func (i *Interpreter) evaluateCall(n *ast.CallExpression, allowVoid bool) (runtime.Value, error) {
	calleeVal, err := i.evaluateExpression(n.Callee, false)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeVal.(*runtime.Function)
	if !ok {
		return nil, i.sink.FailRanged(n.Range, "Unable to invoke %s", runtime.TypeName(calleeVal))
	}

	args := make([]runtime.Value, len(n.Arguments))
	for idx, argExpr := range n.Arguments {
		v, err := i.evaluateExpression(argExpr, false)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}

	ra, err := i.invoke(fn, args, n.Range)
	if err != nil {
		return nil, err
	}
	switch ra.Kind {
	case ReturnedValue:
		return ra.Value, nil
	default: // ReturnedVoid or DidntReturn: the call produced no value.
		if allowVoid {
			return runtime.Void{}, nil
		}
		return nil, i.sink.FailRanged(n.Range, "Function didn't return a value")
	}
}

// invoke implements spec.md §4.5's Invocation.
func (i *Interpreter) invoke(fn *runtime.Function, args []runtime.Value, callSite ast.Range) (ReturnAction, error) {
	if len(args) != len(fn.Node.Parameters) {
		return didntReturn, i.sink.FailRanged(callSite, "Expected %d arguments, got %d", len(fn.Node.Parameters), len(args))
	}

	i.scopes.ScopeInFunction(fn, callSite)

	// Builtins are ordinary Function values whose body dispatches to a
	// host handler (spec.md §6); the handler looks up its parameters by
	// name in this same call scope, so they're declared here like any
	// other invocation's parameters.
	for idx, param := range fn.Node.Parameters {
		if err := i.scopes.Declare(param, runtime.DeepCopy(args[idx])); err != nil {
			i.scopes.ScopeOut()
			return didntReturn, err
		}
	}

	ra, err := i.evaluateBlock(fn.Node.Body)
	i.scopes.ScopeOut()
	return ra, err
}

func (i *Interpreter) evaluateBinary(n *ast.BinaryExpression) (runtime.Value, error) {
	left, err := i.evaluateExpression(n.Left, false)
	if err != nil {
		return nil, err
	}
	right, err := i.evaluateExpression(n.Right, false)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpAdd:
		return i.evaluateAdd(n, left, right)
	case ast.OpSub:
		return i.intOp(n, left, right, func(a, b int64) int64 { return a - b })
	case ast.OpMul:
		return i.intOp(n, left, right, func(a, b int64) int64 { return a * b })
	case ast.OpDiv:
		return i.evaluateDiv(n, left, right)
	case ast.OpEq:
		return runtime.Bool(runtime.Equal(left, right)), nil
	case ast.OpNotEq:
		return runtime.Bool(!runtime.Equal(left, right)), nil
	case ast.OpLt:
		return i.compareOp(n, left, right, func(a, b int64) bool { return a < b })
	case ast.OpGt:
		return i.compareOp(n, left, right, func(a, b int64) bool { return a > b })
	case ast.OpAnd:
		return i.boolOp(n, left, right, func(a, b bool) bool { return a && b })
	case ast.OpOr:
		return i.boolOp(n, left, right, func(a, b bool) bool { return a || b })
	default:
		return nil, i.sink.FailRanged(n.Range, "unknown operator %s", n.Op)
	}
}

func (i *Interpreter) evaluateAdd(n *ast.BinaryExpression, left, right runtime.Value) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.Int:
		r, ok := right.(runtime.Int)
		if !ok {
			return nil, i.sink.FailRanged(n.Range, "Cannot apply '+' to int and %s", runtime.TypeName(right))
		}
		return runtime.Int(int64(l) + int64(r)), nil
	case *runtime.String:
		return runtime.NewString(l.Bytes + runtime.Render(right, false)), nil
	case *runtime.Array:
		r, ok := right.(*runtime.Array)
		if !ok {
			return nil, i.sink.FailRanged(n.Range, "Cannot apply '+' to array and %s", runtime.TypeName(right))
		}
		elements := make([]runtime.Value, 0, len(l.Elements)+len(r.Elements))
		for _, el := range l.Elements {
			elements = append(elements, runtime.DeepCopy(el))
		}
		for _, el := range r.Elements {
			elements = append(elements, runtime.DeepCopy(el))
		}
		for _, el := range elements {
			runtime.AddRef(el)
		}
		return runtime.NewArray(elements), nil
	case *runtime.Dict:
		r, ok := right.(*runtime.Dict)
		if !ok {
			return nil, i.sink.FailRanged(n.Range, "Cannot apply '+' to dict and %s", runtime.TypeName(right))
		}
		merged := runtime.NewDict()
		for _, e := range l.Entries() {
			k, v := runtime.DeepCopy(e.Key), runtime.DeepCopy(e.Value)
			runtime.AddRef(k)
			runtime.AddRef(v)
			merged.Insert(k, v)
		}
		for _, e := range r.Entries() {
			k, v := runtime.DeepCopy(e.Key), runtime.DeepCopy(e.Value)
			if !merged.Insert(k, v) {
				return nil, i.sink.FailRanged(n.Range, "Duplicate key")
			}
			runtime.AddRef(k)
			runtime.AddRef(v)
		}
		return merged, nil
	default:
		return nil, i.sink.FailRanged(n.Range, "Cannot apply '+' to %s", runtime.TypeName(left))
	}
}

func (i *Interpreter) evaluateDiv(n *ast.BinaryExpression, left, right runtime.Value) (runtime.Value, error) {
	l, lok := left.(runtime.Int)
	r, rok := right.(runtime.Int)
	if !lok || !rok {
		return nil, i.sink.FailRanged(n.Range, "Cannot apply '/' to %s and %s", runtime.TypeName(left), runtime.TypeName(right))
	}
	if r == 0 {
		return nil, i.sink.FailRanged(n.Range, "Division by zero")
	}
	return runtime.Int(int64(l) / int64(r)), nil
}

func (i *Interpreter) intOp(n *ast.BinaryExpression, left, right runtime.Value, f func(int64, int64) int64) (runtime.Value, error) {
	l, lok := left.(runtime.Int)
	r, rok := right.(runtime.Int)
	if !lok || !rok {
		return nil, i.sink.FailRanged(n.Range, "Cannot apply '%s' to %s and %s", n.Op, runtime.TypeName(left), runtime.TypeName(right))
	}
	return runtime.Int(f(int64(l), int64(r))), nil
}

func (i *Interpreter) compareOp(n *ast.BinaryExpression, left, right runtime.Value, f func(int64, int64) bool) (runtime.Value, error) {
	l, lok := left.(runtime.Int)
	r, rok := right.(runtime.Int)
	if !lok || !rok {
		return nil, i.sink.FailRanged(n.Range, "Cannot apply '%s' to %s and %s", n.Op, runtime.TypeName(left), runtime.TypeName(right))
	}
	return runtime.Bool(f(int64(l), int64(r))), nil
}

func (i *Interpreter) boolOp(n *ast.BinaryExpression, left, right runtime.Value, f func(bool, bool) bool) (runtime.Value, error) {
	l, lok := left.(runtime.Bool)
	r, rok := right.(runtime.Bool)
	if !lok || !rok {
		return nil, i.sink.FailRanged(n.Range, "Cannot apply '%s' to %s and %s", n.Op, runtime.TypeName(left), runtime.TypeName(right))
	}
	return runtime.Bool(f(bool(l), bool(r))), nil
}
