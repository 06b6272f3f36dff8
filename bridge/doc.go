// Package bridge converts values between the QuickJS engine and the host.
//
// The bridge is stateless: every conversion takes a Ref naming the engine,
// the execution context, and the owning session's liveness token. Tagged
// engine values crossing ToHost are consumed exactly once; they are either
// converted and released, or retained inside exactly one Object handle.
//
// ToHost maps the engine's tagged values to host types:
//
//	integer            -> int64
//	float64            -> float64
//	boolean            -> bool
//	null/undefined     -> nil (three JS absence concepts collapse to one)
//	string             -> string
//	object/function    -> *Object (retained, callable later)
//	exception marker   -> error carrying the stringified JS exception
//
// Call arguments only accept integers and strings; ToJS rejects anything
// else before touching the engine, so argument marshalling is
// all-or-nothing.
package bridge
