// Package errors provides the structured error type for the js-runtime library.
//
// Every bridge failure surfaces through the single Error type, categorized
// by Phase (where the error occurred) and Kind (error category). A caller
// that wants to react to a specific failure matches with errors.Is against
// a prototype:
//
//	_, err := sess.Evaluate(ctx, src)
//	if errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseEval, Kind: bridgeerrors.KindJSException}) {
//		// thrown from JavaScript; err.Detail carries the stringified exception
//	}
//
// Convenience constructors cover the common patterns:
//
//	err := errors.JSException(errors.PhaseEval, "Error: boom")
//	err := errors.UnsupportedArg(2, 3.14)
//	err := errors.StaleHandle()
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
