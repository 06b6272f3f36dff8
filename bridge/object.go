package bridge

import (
	"context"
	"sync/atomic"

	"github.com/wippyai/js-runtime/errors"
)

// Object is a host-side handle to a retained JS object, typically a
// function returned by an evaluation. The handle exclusively owns one
// engine reference and releases it exactly once; there is no copy
// operation, only sharing of the Go pointer.
//
// A handle must not outlive its session. Invoking or releasing a handle
// after the session closed is rejected with a stale-handle error rather
// than reaching freed engine state.
type Object struct {
	ref      Ref
	val      uint32
	released atomic.Bool
	detach   func(*Object)
}

func newObject(ref Ref, val uint32) *Object {
	return &Object{ref: ref, val: val}
}

// OnRelease registers a hook run once when the handle releases its
// reference. The session uses it to deregister the handle from its table.
func (o *Object) OnRelease(fn func(*Object)) {
	o.detach = fn
}

// Invoke calls the held JS object as a function with this bound to null
// and args converted in order. Arguments accept integers and strings only;
// the whole list is validated before any engine value is constructed, so a
// rejected call has no engine-side effects.
func (o *Object) Invoke(ctx context.Context, args ...any) (any, error) {
	if o.released.Load() || !o.ref.Live.Alive() {
		return nil, errors.StaleHandle()
	}

	for i, arg := range args {
		if !validArg(arg) {
			return nil, errors.UnsupportedArg(i, arg)
		}
	}

	eng, jsctx := o.ref.Engine, o.ref.Ctx

	jsArgs := make([]uint32, 0, len(args))
	defer func() {
		// Transient argument values are call-scoped; release them on
		// every outcome.
		for _, a := range jsArgs {
			_ = eng.FreeValue(ctx, jsctx, a)
		}
	}()

	for _, arg := range args {
		jsArg, err := ToJS(ctx, o.ref, arg)
		if err != nil {
			return nil, err
		}
		jsArgs = append(jsArgs, jsArg)
	}

	thisVal, err := eng.NewNull(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = eng.FreeValue(ctx, jsctx, thisVal) }()

	result, err := eng.Call(ctx, jsctx, o.val, thisVal, jsArgs)
	if err != nil {
		return nil, err
	}

	return ToHost(ctx, o.ref, result, errors.PhaseCall)
}

// Release drops the handle's engine reference. Idempotent; a no-op once
// the owning session is closed (the session already released everything).
func (o *Object) Release(ctx context.Context) {
	if !o.released.CompareAndSwap(false, true) {
		return
	}
	if o.ref.Live.Alive() {
		_ = o.ref.Engine.FreeValue(ctx, o.ref.Ctx, o.val)
	}
	if o.detach != nil {
		o.detach(o)
	}
}

// Released reports whether the handle has dropped its reference.
func (o *Object) Released() bool {
	return o.released.Load()
}
