// Package session provides the high-level API: stateful JavaScript
// evaluation sessions over the engine and bridge packages.
//
// A Session owns one engine runtime and one execution context. Globals
// persist across Evaluate calls, so a session behaves like a REPL
// environment rather than a one-shot sandbox:
//
//	sess, err := session.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sess.Close(ctx)
//
//	_, _ = sess.Evaluate(ctx, "x = 41")
//	v, _ := sess.Evaluate(ctx, "x + 1") // int64(42)
//
//	fn, _ := sess.Evaluate(ctx, "(function(a){ return a + 1; })")
//	out, _ := fn.(*bridge.Object).Invoke(ctx, 41) // int64(42)
//
// Ownership is strictly hierarchical: the runtime owns the context, which
// owns every live JS value, including those retained by outstanding object
// handles. Close releases handles first, then the context, then the
// runtime. Handles must not outlive their session; invoking one afterwards
// returns a stale-handle error.
//
// A session is not safe for concurrent use. One logical caller at a time;
// callers that share a session across goroutines must serialize access
// themselves.
package session
