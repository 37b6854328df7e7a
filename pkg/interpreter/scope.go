package interpreter

import (
	"github.com/emberlang/ember/pkg/ast"
	"github.com/emberlang/ember/pkg/runtime"
)

// ScopeKind distinguishes a plain lexical Block from a Function call
// frame (spec.md §3.2, glossary "Scope kind").
type ScopeKind int

const (
	BlockScope ScopeKind = iota
	FunctionScope
)

// Scope is one entry of the ScopeStack (spec.md §3.2).
type Scope struct {
	kind ScopeKind

	// callee is set only for FunctionScope: the Function value being
	// invoked to produce this call frame. Its Locked flag and Captures
	// map govern outward name resolution per spec.md §4.4 — a function
	// may be invoked, via same-level mutual recursion, before its own
	// defining scope has exited and therefore before it is locked; the
	// scope still resolves outward names directly in that case.
	callee     *runtime.Function
	calleeName string

	bindings map[string]runtime.Value
	// pending holds Function values defined directly in this scope,
	// awaiting capture-finalization at scope exit (spec.md §3.2
	// "pending-capture list").
	pending []*runtime.Function
}

func newScope(kind ScopeKind) *Scope {
	return &Scope{kind: kind, bindings: map[string]runtime.Value{}}
}

// CallFrame is one entry of the CallStack (spec.md §3.3).
type CallFrame struct {
	DisplayName string
	CallSite    ast.Range
}

// CallStack is used only for error-message rendering (spec.md §3.3).
type CallStack struct {
	frames []CallFrame
}

func (c *CallStack) push(frame CallFrame) { c.frames = append(c.frames, frame) }

func (c *CallStack) pop() {
	if len(c.frames) > 0 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// FramesInnermostFirst returns the call stack's frames in the order
// spec.md §7 requires error rendering to use.
func (c *CallStack) FramesInnermostFirst() []CallFrame {
	out := make([]CallFrame, len(c.frames))
	for i, f := range c.frames {
		out[len(c.frames)-1-i] = f
	}
	return out
}

// ScopeStack is the interpreter's ordered stack of Scopes (spec.md §4.3).
type ScopeStack struct {
	scopes []*Scope
	calls  *CallStack
	sink   ErrorSink
}

func newScopeStack(sink ErrorSink) *ScopeStack {
	calls := &CallStack{}
	sink.SetCallStack(calls)
	return &ScopeStack{calls: calls, sink: sink}
}

// Empty reports whether the stack has no scopes left — the invariant
// spec.md §8 requires at evaluator quiescence.
func (s *ScopeStack) Empty() bool { return len(s.scopes) == 0 }

func (s *ScopeStack) top() *Scope { return s.scopes[len(s.scopes)-1] }

// ScopeInBlock pushes a fresh Block scope (spec.md §4.3).
func (s *ScopeStack) ScopeInBlock() *Scope {
	scope := newScope(BlockScope)
	s.scopes = append(s.scopes, scope)
	return scope
}

// ScopeInFunction pushes a fresh Function scope for an invocation of
// callee, and pushes a matching call-stack frame (spec.md §4.3, §3.3).
// The frame's display name is callee.CalleeName — the name it was bound
// under at `let`-time (spec.md §4.1's "render": empty only for a
// function value that was never bound to a name).
func (s *ScopeStack) ScopeInFunction(callee *runtime.Function, callSite ast.Range) *Scope {
	scope := newScope(FunctionScope)
	scope.callee = callee
	scope.calleeName = callee.CalleeName
	s.scopes = append(s.scopes, scope)
	display := callee.CalleeName
	if display == "" {
		display = "<anonymous>"
	}
	s.calls.push(CallFrame{DisplayName: display, CallSite: callSite})
	return scope
}

// ScopeOut finalizes captures for every function pending in the current
// scope, releases every binding it owns, pops the call-stack frame if
// applicable, and pops the scope (spec.md §4.3, §4.5).
func (s *ScopeStack) ScopeOut() {
	scope := s.top()

	for _, fn := range scope.pending {
		s.finalizeCaptures(fn)
	}

	for _, v := range scope.bindings {
		runtime.Release(v)
	}

	if scope.kind == FunctionScope {
		s.calls.pop()
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// finalizeCaptures snapshots fn's free variables out of the still-live
// scope stack (fn's defining scope is still on top while this runs) and
// locks fn (spec.md §4.5).
func (s *ScopeStack) finalizeCaptures(fn *runtime.Function) {
	for _, name := range fn.Node.CaptureNames {
		if v, ok := s.Lookup(name); ok {
			copied := runtime.DeepCopy(v)
			runtime.AddRef(copied)
			fn.Captures[name] = copied
		}
		// A free name that resolves to nothing (e.g. a forward reference
		// to a sibling definition that never itself got declared) is left
		// out of the snapshot; using it inside the call then fails the
		// ordinary "not found" lookup at that point.
	}
	fn.Locked = true
}

// Declare creates binding (current-scope, name) -> value (spec.md §4.3).
// It fails if name already exists in the current scope, or in any
// enclosing Block scope up to (but not including) the nearest enclosing
// Function scope — a name bound in that Function scope (e.g. one of its
// parameters) may be shadowed.
func (s *ScopeStack) Declare(name string, value runtime.Value) error {
	current := s.top()
	if _, exists := current.bindings[name]; exists {
		return s.sink.Fail("Duplicate declaration of '%s'", name)
	}
	for i := len(s.scopes) - 2; i >= 0; i-- {
		scope := s.scopes[i]
		if scope.kind != BlockScope {
			break
		}
		if _, exists := scope.bindings[name]; exists {
			return s.sink.Fail("Duplicate declaration of '%s'", name)
		}
	}
	if fn, ok := value.(*runtime.Function); ok && fn.CalleeName == "" && current.kind == BlockScope {
		// spec.md §4.1: a function renders with an empty name only at its
		// definition site; once bound it picks up the binding's name, the
		// same way most scripting languages name an anonymous function
		// literal after the `let` it's first assigned to.
		fn.CalleeName = name
	}
	current.bindings[name] = value
	return nil
}

// RegisterPendingFunction appends fn to the current scope's
// pending-capture list (spec.md §4.5 step 2).
func (s *ScopeStack) RegisterPendingFunction(fn *runtime.Function) {
	s.top().pending = append(s.top().pending, fn)
}

// Lookup resolves name for a read (spec.md §4.4).
func (s *ScopeStack) Lookup(name string) (runtime.Value, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		scope := s.scopes[i]
		if v, ok := scope.bindings[name]; ok {
			return v, true
		}
		switch scope.kind {
		case BlockScope:
			continue
		case FunctionScope:
			if scope.callee == nil || !scope.callee.Locked {
				continue
			}
			if v, ok := scope.callee.Captures[name]; ok {
				return v, true
			}
			return nil, false
		}
	}
	return nil, false
}

// LookupMutable resolves name for assignment (spec.md §4.4). A locked
// Function scope blocks all outward traversal, including its captures:
// captures are read-only within the callee.
func (s *ScopeStack) LookupMutable(name string) (*Scope, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		scope := s.scopes[i]
		if _, ok := scope.bindings[name]; ok {
			return scope, true
		}
		switch scope.kind {
		case BlockScope:
			continue
		case FunctionScope:
			if scope.callee == nil || !scope.callee.Locked {
				continue
			}
			return nil, false
		}
	}
	return nil, false
}

// Set overwrites an existing binding in scope. Callers must Release the
// old value themselves (spec.md §4.6 "Reassign": release happens before
// this is called).
func (sc *Scope) Set(name string, value runtime.Value) { sc.bindings[name] = value }

// Get returns scope's own binding for name, without walking outward.
func (sc *Scope) Get(name string) (runtime.Value, bool) {
	v, ok := sc.bindings[name]
	return v, ok
}
