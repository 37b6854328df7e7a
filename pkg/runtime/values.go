// Package runtime implements the tagged-union Value model (spec.md §3.1)
// and the operations spec.md §4.1 defines on it: add_ref/release,
// deep_copy, render, and structural equality/hashing.
package runtime

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/pkg/ast"
)

// Kind identifies a Value variant.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindArray
	KindDict
	KindFunction
	KindVoid // the placeholder produced by a void call where void is allowed
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	case KindFunction:
		return "function"
	case KindVoid:
		return "void"
	default:
		return "unknown"
	}
}

// Value is the interface every runtime value implements.
type Value interface {
	Kind() Kind
}

// ---------------------------------------------------------------------------
// Scalars — copied by value, spec.md §3.1.
// ---------------------------------------------------------------------------

type Int int64

func (Int) Kind() Kind { return KindInt }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Void is the placeholder yielded by a call-expression whose callee
// returned ReturnedVoid in a context that allows void (spec.md §4.7).
type Void struct{}

func (Void) Kind() Kind { return KindVoid }

// ---------------------------------------------------------------------------
// Compound values — heap-allocated, refcounted, spec.md §3.1 and §4.1.
// ---------------------------------------------------------------------------

// String is a refcounted immutable byte sequence.
type String struct {
	refs  *int
	Bytes string
}

func NewString(s string) *String {
	return &String{refs: newRef(), Bytes: s}
}

func (*String) Kind() Kind { return KindString }

// Array is a refcounted ordered sequence of Values.
type Array struct {
	refs     *int
	Elements []Value
}

func NewArray(elements []Value) *Array {
	return &Array{refs: newRef(), Elements: elements}
}

func (*Array) Kind() Kind { return KindArray }

// dictEntry preserves insertion order for deterministic render/iteration
// (map() and render() both rely on it; spec.md never mandates an order
// but never permits one that varies run to run either).
type dictEntry struct {
	Key   Value
	Value Value
}

// Dict is a refcounted Value->Value mapping with insertion-time
// uniqueness enforced (spec.md §3.1).
type Dict struct {
	refs    *int
	entries []dictEntry
}

func NewDict() *Dict {
	return &Dict{refs: newRef()}
}

func (*Dict) Kind() Kind { return KindDict }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.entries) }

// Entries returns the dict's entries in insertion order. Callers must not
// mutate the returned slice's Values in place; compound Values reached
// through it are still shared with the Dict's own refcount.
func (d *Dict) Entries() []dictEntry { return d.entries }

// Get looks up key by value-equality (spec.md §3.1).
func (d *Dict) Get(key Value) (Value, bool) {
	for _, e := range d.entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Insert adds a new entry. It returns false if key already exists
// (duplicate-key handling is the caller's responsibility: dict literals
// fail on it, `+` on two dicts fails on collision).
func (d *Dict) Insert(key, value Value) bool {
	if _, exists := d.Get(key); exists {
		return false
	}
	d.entries = append(d.entries, dictEntry{Key: key, Value: value})
	return true
}

// ---------------------------------------------------------------------------
// Functions — shared by AST identity, spec.md §3.1 and §4.5.
// ---------------------------------------------------------------------------

// Function is a closure value: a reference to the defining AST node plus
// the captures map and capture-lock flag allocated when the literal was
// first evaluated. Two Function values are equal only if Node is the
// same pointer (spec.md §3.1, §9 "Function-value equality").
type Function struct {
	Node     *ast.FunctionLiteral
	Captures map[string]Value
	Locked   bool

	// CalleeName is the display name bound at the call site (e.g. the
	// variable the function literal was assigned to), used by render()
	// (spec.md §4.1). It is empty for a function rendered at its
	// definition site, and is set by the evaluator at `let`/declare time,
	// not by the Function constructor itself.
	CalleeName string
}

func (*Function) Kind() Kind { return KindFunction }

// NewFunction constructs an unlocked Function value referencing node.
// Captures/Locked are populated later, at the defining scope's exit
// (spec.md §4.5).
func NewFunction(node *ast.FunctionLiteral) *Function {
	return &Function{Node: node, Captures: map[string]Value{}}
}

// ---------------------------------------------------------------------------
// Refcounting — spec.md §4.1.
// ---------------------------------------------------------------------------

func newRef() *int {
	n := 1
	return &n
}

// AddRef increments v's refcount if v is a shared (compound) variant; a
// no-op for scalars and for Function values (which are shared via arena
// -owned AST identity, not refcounting, per spec.md §4.1).
func AddRef(v Value) {
	switch vv := v.(type) {
	case *String:
		*vv.refs++
	case *Array:
		// Only the container's own buffer is refcounted by this call;
		// elements keep their own counts independent per spec.md §3.1
		// ("child values ... maintain their own refcounts
		// independently"). AddRef is not propagated recursively here
		// because every element was already add-ref'd when it was
		// inserted into the array.
		*vv.refs++
	case *Dict:
		*vv.refs++
	}
}

// Release decrements v's refcount; at zero it releases every
// contained child transitively (spec.md §4.1).
func Release(v Value) {
	switch vv := v.(type) {
	case *String:
		*vv.refs--
	case *Array:
		*vv.refs--
		if *vv.refs <= 0 {
			for _, el := range vv.Elements {
				Release(el)
			}
		}
	case *Dict:
		*vv.refs--
		if *vv.refs <= 0 {
			for _, e := range vv.entries {
				Release(e.Key)
				Release(e.Value)
			}
		}
	}
}

// DeepCopy returns a Value with no shared storage with v for String,
// Array, and Dict; scalars and Functions are returned unchanged (spec.md
// §4.1, §9 "Deep-copy"). The result carries its own fresh refcount.
func DeepCopy(v Value) Value {
	switch vv := v.(type) {
	case *String:
		return NewString(vv.Bytes)
	case *Array:
		out := make([]Value, len(vv.Elements))
		for i, el := range vv.Elements {
			out[i] = DeepCopy(el)
		}
		return NewArray(out)
	case *Dict:
		out := NewDict()
		for _, e := range vv.entries {
			out.Insert(DeepCopy(e.Key), DeepCopy(e.Value))
		}
		return out
	default:
		return v
	}
}

// ---------------------------------------------------------------------------
// Equality and hashing — spec.md §3.1.
// ---------------------------------------------------------------------------

// Equal is structural value-equality, commutative over its variant pairing.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Int:
		return av == b.(Int)
	case Bool:
		return av == b.(Bool)
	case *String:
		return av.Bytes == b.(*String).Bytes
	case *Array:
		bv := b.(*Array)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv := b.(*Dict)
		if av.Len() != bv.Len() {
			return false
		}
		for _, e := range av.entries {
			other, ok := bv.Get(e.Key)
			if !ok || !Equal(e.Value, other) {
				return false
			}
		}
		return true
	case *Function:
		return av.Node == b.(*Function).Node
	case Void:
		return true
	default:
		return false
	}
}

// Hash mirrors Equal: values that are Equal hash identically.
func Hash(v Value) uint64 {
	const prime = 1099511628211
	switch vv := v.(type) {
	case Int:
		return uint64(vv) * prime
	case Bool:
		if vv {
			return 1
		}
		return 0
	case *String:
		return hashBytes(vv.Bytes)
	case *Array:
		h := uint64(len(vv.Elements))
		for _, el := range vv.Elements {
			h = h*prime ^ Hash(el)
		}
		return h
	case *Dict:
		h := uint64(vv.Len()) * prime
		for _, e := range vv.entries {
			h ^= Hash(e.Key) ^ Hash(e.Value)
		}
		return h
	case *Function:
		return hashBytes(fmt.Sprintf("%p", vv.Node))
	default:
		return 0
	}
}

func hashBytes(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// ---------------------------------------------------------------------------
// Rendering — spec.md §4.1.
// ---------------------------------------------------------------------------

// TypeName is the type-name rendering used in error messages.
func TypeName(v Value) string { return v.Kind().String() }

// Render is the value-string rendering used by `puts` and by
// string-concatenation (spec.md §4.1). quoted controls whether a String
// value renders with surrounding quotes, which spec.md requires for
// strings nested inside an aggregate but not at the top level.
func Render(v Value, quoted bool) string {
	switch vv := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(vv))
	case Bool:
		if vv {
			return "true"
		}
		return "false"
	case *String:
		if quoted {
			return fmt.Sprintf("%q", vv.Bytes)
		}
		return vv.Bytes
	case *Array:
		parts := make([]string, len(vv.Elements))
		for i, el := range vv.Elements {
			parts[i] = Render(el, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dict:
		parts := make([]string, 0, vv.Len())
		for _, e := range vv.entries {
			parts = append(parts, Render(e.Key, true)+": "+Render(e.Value, true))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Function:
		params := strings.Join(vv.Node.Parameters, ", ")
		return fmt.Sprintf("function %s(%s)", vv.CalleeName, params)
	case Void:
		return "void"
	default:
		return "?"
	}
}
