package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/emberlang/ember/pkg/ast"
)

// EvalError is the error value every evaluator failure unwinds with
// (spec.md §4.2, §7). Message is the human-readable failure description;
// Range is the source span it occurred at, when known (a context-free
// `fail` leaves it zero-valued).
type EvalError struct {
	Message string
	Range   ast.Range
	HasRange bool
}

func (e *EvalError) Error() string { return e.Message }

// ErrorSink is the abstract failure/warning destination spec.md §4.2
// describes: three severities of fail (ranged, point, context-free) and
// matching warn, with the current call stack installed once so every
// `fail` can render it. Fail* methods both emit the formatted message to
// the sink immediately and return the *EvalError the evaluator unwinds
// with — matching spec.md §7 ("on Err, ancestors must still perform
// their deferred scope_out()... partial outputs are not rolled back":
// the message has already been written by the time anyone starts
// unwinding).
type ErrorSink interface {
	SetCallStack(stack *CallStack)

	FailRanged(rng ast.Range, format string, args ...any) error
	FailAt(pos ast.Position, format string, args ...any) error
	Fail(format string, args ...any) error

	WarnRanged(rng ast.Range, format string, args ...any)
	WarnAt(pos ast.Position, format string, args ...any)
	Warn(format string, args ...any)
}

// ConsoleSink writes ERROR/WARNING diagnostics to an io.Writer in the
// shape spec.md §7 specifies: severity, message, a "line:col in <origin>"
// suffix when a position is known, and (for errors only) the call stack
// rendered innermost-first as "> in <frame>" lines.
type ConsoleSink struct {
	Out       io.Writer
	Origin    string
	callStack *CallStack
}

// NewConsoleSink returns a ConsoleSink writing to os.Stderr.
func NewConsoleSink(origin string) *ConsoleSink {
	return &ConsoleSink{Out: os.Stderr, Origin: origin}
}

func (c *ConsoleSink) SetCallStack(stack *CallStack) { c.callStack = stack }

func (c *ConsoleSink) FailRanged(rng ast.Range, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	c.emit("ERROR", msg, &rng.Start, true)
	return &EvalError{Message: msg, Range: rng, HasRange: true}
}

func (c *ConsoleSink) FailAt(pos ast.Position, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	rng := ast.Range{Start: pos, End: pos}
	c.emit("ERROR", msg, &pos, true)
	return &EvalError{Message: msg, Range: rng, HasRange: true}
}

func (c *ConsoleSink) Fail(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	c.emit("ERROR", msg, nil, true)
	return &EvalError{Message: msg}
}

func (c *ConsoleSink) WarnRanged(rng ast.Range, format string, args ...any) {
	c.emit("WARNING", fmt.Sprintf(format, args...), &rng.Start, false)
}

func (c *ConsoleSink) WarnAt(pos ast.Position, format string, args ...any) {
	c.emit("WARNING", fmt.Sprintf(format, args...), &pos, false)
}

func (c *ConsoleSink) Warn(format string, args ...any) {
	c.emit("WARNING", fmt.Sprintf(format, args...), nil, false)
}

func (c *ConsoleSink) emit(severity, message string, pos *ast.Position, withStack bool) {
	if pos != nil {
		fmt.Fprintf(c.Out, "%s: %s\n%d:%d in %s\n", severity, message, pos.Line, pos.Column, c.Origin)
	} else {
		fmt.Fprintf(c.Out, "%s: %s\n", severity, message)
	}
	if withStack && c.callStack != nil {
		for _, frame := range c.callStack.FramesInnermostFirst() {
			fmt.Fprintf(c.Out, "> in %s\n", frame.DisplayName)
		}
	}
}
