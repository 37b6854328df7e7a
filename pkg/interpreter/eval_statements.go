package interpreter

import (
	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/runtime"
)

// executeStatements runs stmts in order, stopping at the first
// non-DidntReturn result, without pushing its own scope — the caller
// (evaluateBlock, or Run for the module's top level) owns the scope_in /
// scope_out pair spec.md §4.6 assigns to "Block".
func (i *Interpreter) executeStatements(stmts []ast.Statement) (ReturnAction, error) {
	for _, stmt := range stmts {
		ra, err := i.evaluateStatement(stmt)
		if err != nil {
			return didntReturn, err
		}
		if ra.Kind != DidntReturn {
			return ra, nil
		}
	}
	return didntReturn, nil
}

// evaluateBlock is spec.md §4.6's "Block" statement: scope_in(Block),
// run its statements, scope_out, propagating whatever the last-executed
// statement produced.
func (i *Interpreter) evaluateBlock(block *ast.Block) (ReturnAction, error) {
	i.scopes.ScopeInBlock()
	ra, err := i.executeStatements(block.Statements)
	i.scopes.ScopeOut()
	return ra, err
}

func (i *Interpreter) evaluateStatement(stmt ast.Statement) (ReturnAction, error) {
	switch n := stmt.(type) {
	case *ast.Block:
		return i.evaluateBlock(n)
	case *ast.LetStatement:
		return i.evaluateLet(n)
	case *ast.ReassignStatement:
		return i.evaluateReassign(n)
	case *ast.ReturnStatement:
		return i.evaluateReturn(n)
	case *ast.TailExpression:
		return i.evaluateTailExpression(n)
	case *ast.ExpressionStatement:
		return i.evaluateExpressionStatement(n)
	case *ast.IfStatement:
		return i.evaluateIf(n)
	case *ast.ExternalInvocation:
		return i.evaluateExternalInvocation(n)
	default:
		return didntReturn, i.sink.Fail("unhandled statement type %T", n)
	}
}

func (i *Interpreter) evaluateLet(stmt *ast.LetStatement) (ReturnAction, error) {
	value, err := i.evaluateExpression(stmt.Value, false)
	if err != nil {
		return didntReturn, err
	}
	runtime.AddRef(value)
	if err := i.scopes.Declare(stmt.Name, value); err != nil {
		runtime.Release(value)
		return didntReturn, err
	}
	return didntReturn, nil
}

func (i *Interpreter) evaluateReassign(stmt *ast.ReassignStatement) (ReturnAction, error) {
	scope, ok := i.scopes.LookupMutable(stmt.Name)
	if !ok {
		return didntReturn, i.sink.FailRanged(stmt.Range, "Variable '%s' is immutable or doesn't exist", stmt.Name)
	}
	value, err := i.evaluateExpression(stmt.Value, false)
	if err != nil {
		return didntReturn, err
	}
	runtime.AddRef(value)
	if old, ok := scope.Get(stmt.Name); ok {
		runtime.Release(old)
	}
	scope.Set(stmt.Name, value)
	return didntReturn, nil
}

func (i *Interpreter) evaluateReturn(stmt *ast.ReturnStatement) (ReturnAction, error) {
	if stmt.Value == nil {
		return ReturnAction{Kind: ReturnedVoid}, nil
	}
	value, err := i.evaluateExpression(stmt.Value, false)
	if err != nil {
		return didntReturn, err
	}
	runtime.AddRef(value)
	return ReturnAction{Kind: ReturnedValue, Value: value}, nil
}

// evaluateTailExpression is the implicit-return generalization described
// on ast.TailExpression: a block's final bare expression becomes its
// ReturnedValue.
func (i *Interpreter) evaluateTailExpression(stmt *ast.TailExpression) (ReturnAction, error) {
	value, err := i.evaluateExpression(stmt.Value, true)
	if err != nil {
		return didntReturn, err
	}
	runtime.AddRef(value)
	return ReturnAction{Kind: ReturnedValue, Value: value}, nil
}

// evaluateExpressionStatement runs stmt.Expr for its side effect and
// discards the result (spec.md §4.6's ExpressionStatement, generalized
// per spec.md §8 scenario 6 to admit any expression, not only calls — an
// index expression like `a[5];` must reach its runtime failure here
// rather than being rejected at parse time).
func (i *Interpreter) evaluateExpressionStatement(stmt *ast.ExpressionStatement) (ReturnAction, error) {
	value, err := i.evaluateExpression(stmt.Expr, true)
	if err != nil {
		return didntReturn, err
	}
	runtime.Release(value)
	return didntReturn, nil
}

func (i *Interpreter) evaluateIf(stmt *ast.IfStatement) (ReturnAction, error) {
	cond, err := i.evaluateExpression(stmt.Condition, false)
	if err != nil {
		return didntReturn, err
	}
	b, ok := cond.(runtime.Bool)
	if !ok {
		return didntReturn, i.sink.FailRanged(stmt.Condition.SourceRange(), "Condition must be bool, got %s", runtime.TypeName(cond))
	}
	if bool(b) {
		return i.evaluateBlock(stmt.Then)
	}
	if stmt.Else != nil {
		return i.evaluateBlock(stmt.Else)
	}
	return didntReturn, nil
}

func (i *Interpreter) evaluateExternalInvocation(stmt *ast.ExternalInvocation) (ReturnAction, error) {
	handler, ok := i.builtins[stmt.BuiltinID]
	if !ok {
		return didntReturn, i.sink.Fail("unknown builtin id %d", stmt.BuiltinID)
	}
	return handler.Run(i)
}
