// Package arena implements the bump allocator spec.md §2 and §5 assign
// ownership of AST nodes and parser-lifetime strings to. Go does not give
// user code a way to bump-allocate or bulk-free heap objects the way the
// spec's reference runtime does, so this Arena does the one part of that
// job Go *can* express directly and that the interpreter actually
// benefits from: interning the identifier strings the parser takes from
// the lexer's tokens so that repeated occurrences of the same name
// (overwhelmingly the common case in a program's source) share one Go
// string header instead of allocating afresh per occurrence. The parser
// records the root *ast.Program as arena-owned; Function captures maps
// are not recorded and are left to the garbage collector. Release drops
// the Arena's own references so the garbage collector — standing in for
// the spec's bulk free — can reclaim whatever nothing else still holds.
package arena

// Arena interns strings and tracks roots it owns for the evaluator's
// lifetime. The zero value is ready to use.
type Arena struct {
	strings map[string]string
	roots   []any
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{strings: make(map[string]string)}
}

// Intern returns a shared copy of s: the first call with a given value
// allocates it, every later call with an equal value returns that same
// string.
func (a *Arena) Intern(s string) string {
	if a == nil {
		return s
	}
	if existing, ok := a.strings[s]; ok {
		return existing
	}
	if a.strings == nil {
		a.strings = make(map[string]string)
	}
	a.strings[s] = s
	return s
}

// Own records v (the parser passes the *ast.Program root) as arena-owned
// until Release.
func (a *Arena) Own(v any) {
	if a == nil {
		return
	}
	a.roots = append(a.roots, v)
}

// Release drops the Arena's references, mirroring the spec's bulk free
// of the AST and its parser-lifetime strings once evaluation completes.
func (a *Arena) Release() {
	if a == nil {
		return
	}
	a.strings = nil
	a.roots = nil
}
