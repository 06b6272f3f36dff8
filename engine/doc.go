// Package engine drives the QuickJS-ng JavaScript engine, compiled to
// WebAssembly, through wazero.
//
// The engine module is a black box reached exclusively through its qjs_*
// exports. JavaScript values cross the boundary as uint32 pointers to boxed
// JSValues in the module's linear memory; the engine never tracks their
// ownership. Every value obtained from an engine call is owned by the
// caller and must be released with FreeValue exactly once, or retained with
// DupValue before being shared.
//
// One Engine owns one wazero runtime and one instantiated engine module.
// The higher-level session package pairs an Engine with a single JS runtime
// and execution context.
package engine
