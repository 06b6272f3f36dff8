package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // engine module loading
	PhaseSession Phase = "session" // session lifecycle
	PhaseEval    Phase = "eval"    // script evaluation
	PhaseCall    Phase = "call"    // object handle invocation
	PhaseMarshal Phase = "marshal" // host to JS argument conversion
)

// Kind categorizes the error
type Kind string

const (
	KindJSException   Kind = "js_exception"
	KindUnsupported   Kind = "unsupported"
	KindUnknownTag    Kind = "unknown_tag"
	KindStaleHandle   Kind = "stale_handle"
	KindClosed        Kind = "closed"
	KindAllocation    Kind = "allocation"
	KindInstantiation Kind = "instantiation"
	KindMissingExport Kind = "missing_export"
	KindInvalidInput  Kind = "invalid_input"
)

// Error is the structured error type used throughout the bridge.
// All failures surface through this one type; Phase and Kind carry
// the context that would otherwise multiply error types.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Arg    int // argument position for marshal errors, -1 otherwise
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Arg >= 0 {
		fmt.Fprintf(&b, " at arg %d", e.Arg)
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// JSException wraps a stringified JavaScript exception.
func JSException(phase Phase, message string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindJSException,
		Detail: message,
		Arg:    -1,
	}
}

// UnsupportedArg reports a call argument outside the integer/string whitelist.
func UnsupportedArg(arg int, value any) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindUnsupported,
		GoType: fmt.Sprintf("%T", value),
		Detail: "only integers and strings may cross into a call",
		Value:  value,
		Arg:    arg,
	}
}

// UnknownTag reports a value tag outside the engine's documented set.
// Unreachable with a conformant engine; surfaced instead of crashing.
func UnknownTag(phase Phase, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownTag,
		Detail: fmt.Sprintf("unknown engine value tag %q", typeName),
		Arg:    -1,
	}
}

// StaleHandle reports an invoke on a handle whose session was closed.
func StaleHandle() *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindStaleHandle,
		Detail: "owning session is closed",
		Arg:    -1,
	}
}

// Closed reports an operation on a closed session.
func Closed(op string) *Error {
	return &Error{
		Phase:  PhaseSession,
		Kind:   KindClosed,
		Detail: op + " on closed session",
		Arg:    -1,
	}
}

// AllocationFailed reports an engine-side allocation failure.
func AllocationFailed(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in engine memory", size),
		Arg:    -1,
	}
}

// Instantiation reports an engine module instantiation failure.
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate engine module",
		Cause:  cause,
		Arg:    -1,
	}
}

// MissingExport reports an engine export absent at load time.
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("engine export %q not found", name),
		Arg:    -1,
	}
}

// Load reports a generic engine loading failure. Loading failures are
// instantiation-stage defects, not caller input problems.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
		Arg:    -1,
	}
}

// InvalidInput reports a malformed input to a session operation.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Arg:    -1,
	}
}

// Wrap wraps an existing error with bridge context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Arg:    -1,
	}
}
