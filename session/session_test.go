package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wippyai/js-runtime/bridge"
	bridgeerrors "github.com/wippyai/js-runtime/errors"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()

	sess, err := New(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	t.Cleanup(func() {
		_ = sess.Close(ctx)
	})
	return sess
}

func TestEvaluate_Scalars(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	tests := []struct {
		name   string
		source string
		want   any
	}{
		{"integer", "42", int64(42)},
		{"negative integer", "-7", int64(-7)},
		{"arithmetic", "1 + 2 * 3", int64(7)},
		{"float", "3.14", 3.14},
		{"integer beyond int32", "4294967296", float64(4294967296)},
		{"true", "true", true},
		{"false", "false", false},
		{"null", "null", nil},
		{"undefined", "undefined", nil},
		{"string", `"hello"`, "hello"},
		{"string concat", `"a" + "b"`, "ab"},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mapping must be stable under repetition.
			for i := 0; i < 2; i++ {
				got, err := sess.Evaluate(ctx, tt.source)
				if err != nil {
					t.Fatalf("evaluate %q: %v", tt.source, err)
				}
				if got != tt.want {
					t.Fatalf("evaluate %q = %v (%T), want %v (%T)", tt.source, got, got, tt.want, tt.want)
				}
			}
		})
	}
}

func TestEvaluate_LongString(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	// Well past any fixed read window; the full string must come back.
	got, err := sess.Evaluate(ctx, `"x".repeat(100000)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected string, got %T", got)
	}
	if len(s) != 100000 {
		t.Fatalf("len = %d, want 100000", len(s))
	}
	if s != strings.Repeat("x", 100000) {
		t.Fatal("long string content corrupted")
	}
}

func TestEvaluate_StringWithNUL(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	got, err := sess.Evaluate(ctx, `"a\u0000b"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != "a\x00b" {
		t.Fatalf("got %q, want embedded NUL preserved", got)
	}
}

func TestEvaluate_Stateful(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	if _, err := sess.Evaluate(ctx, "x = 41"); err != nil {
		t.Fatalf("assign global: %v", err)
	}
	got, err := sess.Evaluate(ctx, "x + 1")
	if err != nil {
		t.Fatalf("read global: %v", err)
	}
	if got != int64(42) {
		t.Fatalf("x + 1 = %v, want 42", got)
	}
}

func TestEvaluate_Exception(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	_, err := sess.Evaluate(ctx, "throw new Error('boom')")
	if err == nil {
		t.Fatal("expected error from throw")
	}
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseEval, Kind: bridgeerrors.KindJSException}) {
		t.Fatalf("expected eval js_exception, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected message to contain boom, got %q", err.Error())
	}

	// The pending exception is cleared as part of translation.
	got, err := sess.Evaluate(ctx, "1 + 1")
	if err != nil {
		t.Fatalf("evaluate after exception: %v", err)
	}
	if got != int64(2) {
		t.Fatalf("evaluate after exception = %v, want 2", got)
	}
}

func TestEvaluate_SyntaxError(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	_, err := sess.Evaluate(ctx, "function (")
	if err == nil {
		t.Fatal("expected error from syntax error")
	}
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseEval, Kind: bridgeerrors.KindJSException}) {
		t.Fatalf("expected eval js_exception, got %v", err)
	}
}

func TestObject_RoundTripAndCall(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	v, err := sess.Evaluate(ctx, "(function(a){ return a + 1; })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn, ok := v.(*bridge.Object)
	if !ok {
		t.Fatalf("expected *bridge.Object, got %T", v)
	}

	got, err := fn.Invoke(ctx, 41)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != int64(42) {
		t.Fatalf("invoke = %v, want 42", got)
	}
}

func TestObject_StringArgs(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	v, err := sess.Evaluate(ctx, `(function(a, b){ return a + "-" + b; })`)
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn := v.(*bridge.Object)

	got, err := fn.Invoke(ctx, "left", "right")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "left-right" {
		t.Fatalf("invoke = %v, want left-right", got)
	}
}

func TestObject_MultipleIntArgs(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	v, err := sess.Evaluate(ctx, "(function(a, b, c){ return a + b + c; })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn := v.(*bridge.Object)

	got, err := fn.Invoke(ctx, 1, 2, 3)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != int64(6) {
		t.Fatalf("invoke = %v, want 6", got)
	}
}

func TestObject_ArgWhitelist(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	// The function counts calls; a rejected invoke must have no
	// JS-side effect.
	if _, err := sess.Evaluate(ctx, "calls = 0"); err != nil {
		t.Fatalf("init counter: %v", err)
	}
	v, err := sess.Evaluate(ctx, "(function(a){ calls++; return a; })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn := v.(*bridge.Object)

	rejected := []struct {
		name string
		arg  any
	}{
		{"float", 3.14},
		{"bool", true},
		{"nil", nil},
		{"handle", fn},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fn.Invoke(ctx, tt.arg)
			if err == nil {
				t.Fatalf("expected rejection for %T", tt.arg)
			}
			if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseMarshal, Kind: bridgeerrors.KindUnsupported}) {
				t.Fatalf("expected marshal unsupported, got %v", err)
			}
		})
	}

	// Mixed list: one bad argument rejects the whole call before any
	// conversion happens.
	if _, err := fn.Invoke(ctx, 1, 3.14); err == nil {
		t.Fatal("expected rejection of mixed argument list")
	}

	calls, err := sess.Evaluate(ctx, "calls")
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if calls != int64(0) {
		t.Fatalf("calls = %v, want 0 (rejected invokes must not reach JS)", calls)
	}
}

func TestObject_ThrowingCallee(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	v, err := sess.Evaluate(ctx, "(function(){ throw new Error('from callee'); })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn := v.(*bridge.Object)

	_, err = fn.Invoke(ctx)
	if err == nil {
		t.Fatal("expected error from throwing callee")
	}
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseCall, Kind: bridgeerrors.KindJSException}) {
		t.Fatalf("expected call js_exception, got %v", err)
	}
	if !strings.Contains(err.Error(), "from callee") {
		t.Fatalf("expected message to contain callee text, got %q", err.Error())
	}
}

func TestObject_NestedHandle(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	v, err := sess.Evaluate(ctx, "(function(n){ return function(){ return n; }; })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	outer := v.(*bridge.Object)

	inner, err := outer.Invoke(ctx, 7)
	if err != nil {
		t.Fatalf("invoke outer: %v", err)
	}
	innerFn, ok := inner.(*bridge.Object)
	if !ok {
		t.Fatalf("expected nested handle, got %T", inner)
	}
	if sess.Handles() != 2 {
		t.Fatalf("handles = %d, want 2 (nested handle must be tracked)", sess.Handles())
	}

	got, err := innerFn.Invoke(ctx)
	if err != nil {
		t.Fatalf("invoke inner: %v", err)
	}
	if got != int64(7) {
		t.Fatalf("inner() = %v, want 7", got)
	}
}

func TestObject_StaleAfterClose(t *testing.T) {
	ctx := context.Background()

	sess, err := New(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	v, err := sess.Evaluate(ctx, "(function(){ return 1; })")
	if err != nil {
		t.Fatalf("evaluate function: %v", err)
	}
	fn := v.(*bridge.Object)

	if err := sess.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = fn.Invoke(ctx)
	if err == nil {
		t.Fatal("expected stale handle error after close")
	}
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseCall, Kind: bridgeerrors.KindStaleHandle}) {
		t.Fatalf("expected stale_handle, got %v", err)
	}

	// Releasing after close is a safe no-op.
	fn.Release(ctx)
}

func TestHandles_Tracking(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)

	if sess.Handles() != 0 {
		t.Fatalf("handles = %d, want 0", sess.Handles())
	}

	v, err := sess.Evaluate(ctx, "({})")
	if err != nil {
		t.Fatalf("evaluate object: %v", err)
	}
	obj := v.(*bridge.Object)
	if sess.Handles() != 1 {
		t.Fatalf("handles = %d, want 1", sess.Handles())
	}

	obj.Release(ctx)
	if sess.Handles() != 0 {
		t.Fatalf("handles after release = %d, want 0", sess.Handles())
	}
	if !obj.Released() {
		t.Fatal("handle not marked released")
	}
	obj.Release(ctx) // idempotent
}

func TestClose_Idempotent(t *testing.T) {
	ctx := context.Background()

	sess, err := New(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Leave a handle outstanding so Close exercises bulk release.
	if _, err := sess.Evaluate(ctx, "(function(){ return 0; })"); err != nil {
		t.Fatalf("evaluate function: %v", err)
	}

	if err := sess.Close(ctx); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := sess.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}

	_, err = sess.Evaluate(ctx, "1")
	if err == nil {
		t.Fatal("expected error evaluating on closed session")
	}
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseSession, Kind: bridgeerrors.KindClosed}) {
		t.Fatalf("expected session closed, got %v", err)
	}
}

func TestSessionCycle_NoHandleLeak(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress cycle in short mode")
	}
	ctx := context.Background()

	const sessions = 4
	const objects = 8

	for i := 0; i < sessions; i++ {
		sess, err := New(ctx)
		if err != nil {
			t.Fatalf("session %d: %v", i, err)
		}
		for j := 0; j < objects; j++ {
			if _, err := sess.Evaluate(ctx, "({n: 1})"); err != nil {
				t.Fatalf("session %d object %d: %v", i, j, err)
			}
		}
		if sess.Handles() != objects {
			t.Fatalf("session %d handles = %d, want %d", i, sess.Handles(), objects)
		}
		if err := sess.Close(ctx); err != nil {
			t.Fatalf("session %d close: %v", i, err)
		}
		if sess.Handles() != 0 {
			t.Fatalf("session %d handles after close = %d, want 0", i, sess.Handles())
		}
	}
}

func TestWithFilename(t *testing.T) {
	ctx := context.Background()

	sess, err := New(ctx, WithFilename("setup.js"))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer sess.Close(ctx)

	_, err = sess.Evaluate(ctx, "1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
}
