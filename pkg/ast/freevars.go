package ast

// FreeVariables returns the set of names referenced inside body that are
// not bound by params or by a let-statement occurring (in textual order)
// before their use within body itself. This is the parser-computed
// capture-name list spec.md §6 and §4.5 require on every FunctionLiteral:
// it is the set of outer names the function body could resolve to a
// captured snapshot once its defining scope exits.
//
// Nested function literals are walked too (their own parameters and lets
// further narrow what counts as free), but names they themselves capture
// still count as free in the enclosing body, since an inner function may
// forward an outer binding through its own capture list.
func FreeVariables(params []string, body *Block) []string {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p] = true
	}
	free := map[string]bool{}
	order := []string{}
	record := func(name string) {
		if bound[name] || free[name] {
			return
		}
		free[name] = true
		order = append(order, name)
	}
	walkBlock(body, bound, record)
	return order
}

func walkBlock(b *Block, bound map[string]bool, record func(string)) {
	if b == nil {
		return
	}
	// Shadow the incoming bound-set for this block's own let-declarations
	// without letting them leak to sibling blocks.
	local := make(map[string]bool, len(bound))
	for k, v := range bound {
		local[k] = v
	}
	for _, stmt := range b.Statements {
		walkStatement(stmt, local, record)
	}
}

func walkStatement(s Statement, bound map[string]bool, record func(string)) {
	switch n := s.(type) {
	case *LetStatement:
		walkExpr(n.Value, bound, record)
		bound[n.Name] = true
	case *ReassignStatement:
		if !bound[n.Name] {
			record(n.Name)
		}
		walkExpr(n.Value, bound, record)
	case *ReturnStatement:
		walkExpr(n.Value, bound, record)
	case *ExpressionStatement:
		walkExpr(n.Expr, bound, record)
	case *TailExpression:
		walkExpr(n.Value, bound, record)
	case *IfStatement:
		walkExpr(n.Condition, bound, record)
		walkBlock(n.Then, bound, record)
		walkBlock(n.Else, bound, record)
	case *Block:
		walkBlock(n, bound, record)
	case *ExternalInvocation:
		// no names referenced
	}
}

func walkExpr(e Expression, bound map[string]bool, record func(string)) {
	switch n := e.(type) {
	case nil:
		return
	case *IntegerLiteral, *BoolLiteral, *StringLiteral:
		return
	case *Identifier:
		if !bound[n.Name] {
			record(n.Name)
		}
	case *Negation:
		walkExpr(n.Operand, bound, record)
	case *Parenthesized:
		walkExpr(n.Inner, bound, record)
	case *BinaryExpression:
		walkExpr(n.Left, bound, record)
		walkExpr(n.Right, bound, record)
	case *CallExpression:
		walkExpr(n.Callee, bound, record)
		for _, a := range n.Arguments {
			walkExpr(a, bound, record)
		}
	case *IndexExpression:
		walkExpr(n.Collection, bound, record)
		walkExpr(n.Index, bound, record)
	case *ArrayLiteral:
		for _, el := range n.Elements {
			walkExpr(el, bound, record)
		}
	case *DictLiteral:
		for _, entry := range n.Entries {
			walkExpr(entry.Key, bound, record)
			walkExpr(entry.Value, bound, record)
		}
	case *FunctionLiteral:
		// A nested function's own free variables are, from the enclosing
		// body's point of view, references to whatever names it doesn't
		// bind itself — so they propagate outward as potential captures.
		inner := FreeVariables(n.Parameters, n.Body)
		for _, name := range inner {
			if !bound[name] {
				record(name)
			}
		}
	}
}
