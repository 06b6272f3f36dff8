// Package jsruntime embeds the QuickJS-ng JavaScript engine in Go.
//
// The engine is compiled to WebAssembly and executed with wazero, so the
// library needs no cgo. Host code creates isolated evaluation sessions,
// runs JavaScript source, receives results as Go values, and calls back
// into live JS functions through object handles that outlive the
// evaluation that produced them.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	jsruntime/       Root package with the diagnostic probe
//	├── session/     High-level API: stateful evaluation sessions
//	├── bridge/      Tagged JS value <-> host value conversion, object handles
//	├── engine/      Low-level wazero integration with the engine module
//	├── errors/      Structured bridge error type
//	└── cmd/jsrun/   CLI for evaluating files and an interactive REPL
//
// # Quick Start
//
// Evaluate JavaScript and call a returned function:
//
//	sess, err := session.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close(ctx)
//
//	v, err := sess.Evaluate(ctx, "6 * 7")
//	fmt.Println(v) // int64(42)
//
//	fn, _ := sess.Evaluate(ctx, "(function(a){ return a + 1; })")
//	out, _ := fn.(*bridge.Object).Invoke(ctx, 41)
//	fmt.Println(out) // int64(42)
//
// # Value Mapping
//
// Evaluation results map to host types as int64, float64, bool, string,
// nil (for null, undefined, and uninitialized), or *bridge.Object. Call
// arguments are restricted to integers and strings; anything else is
// rejected before the engine is touched.
//
// # Thread Safety
//
// A Session and every handle it produced belong to a single logical
// caller. The engine runtime is not thread-safe; concurrent use of one
// session is not supported and requires external serialization.
//
// # Resource Model
//
// Ownership is hierarchical: engine owns runtime owns context owns every
// live JS value, including values retained by object handles. Handles must
// be released before their session closes, or the session releases them
// during Close. A handle used after its session closed returns a
// stale-handle error.
package jsruntime
