package bridge

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// Liveness is the owning session's validity token. Handles check it before
// touching the engine so a closed session yields a stale-handle error
// instead of reaching freed engine state.
type Liveness struct {
	dead atomic.Bool
}

// Kill marks the token dead. Called once by the session on close.
func (l *Liveness) Kill() {
	l.dead.Store(true)
}

// Alive reports whether the owning session is still open.
func (l *Liveness) Alive() bool {
	return !l.dead.Load()
}

// Ref identifies an execution context within an engine together with the
// owning session's liveness token. Passed by value; holds no ownership.
// Track, when set, observes every Object the bridge constructs, including
// handles produced by nested invocations; the session uses it to release
// outstanding handles on close.
type Ref struct {
	Engine *engine.Engine
	Ctx    uint32
	Live   *Liveness
	Track  func(*Object)
}

// ToHost converts a tagged engine value to a host value, consuming it:
// on every path the value is released, except the object path where
// ownership transfers into the returned handle. phase names the operation
// for error context (eval or call).
func ToHost(ctx context.Context, ref Ref, val uint32, phase errors.Phase) (any, error) {
	eng, jsctx := ref.Engine, ref.Ctx
	release := func() { _ = eng.FreeValue(ctx, jsctx, val) }

	if isExc, err := eng.IsException(ctx, val); err != nil {
		release()
		return nil, err
	} else if isExc {
		release()
		return nil, translateException(ctx, ref, phase)
	}

	if isUndef, err := eng.IsUndefined(ctx, val); err != nil {
		release()
		return nil, err
	} else if isUndef {
		release()
		return nil, nil
	}

	if isNull, err := eng.IsNull(ctx, val); err != nil {
		release()
		return nil, err
	} else if isNull {
		release()
		return nil, nil
	}

	if isBool, err := eng.IsBool(ctx, val); err != nil {
		release()
		return nil, err
	} else if isBool {
		b, err := eng.ToBool(ctx, jsctx, val)
		release()
		return b, err
	}

	if isNum, err := eng.IsNumber(ctx, val); err != nil {
		release()
		return nil, err
	} else if isNum {
		f, err := eng.ToFloat64(ctx, jsctx, val)
		release()
		if err != nil {
			return nil, err
		}
		// QuickJS canonicalizes doubles exactly representable as int32
		// to the integer tag; mirror that mapping on the host side.
		if i := int64(f); float64(i) == f && i >= math.MinInt32 && i <= math.MaxInt32 && !(f == 0 && math.Signbit(f)) {
			return i, nil
		}
		return f, nil
	}

	if isStr, err := eng.IsString(ctx, val); err != nil {
		release()
		return nil, err
	} else if isStr {
		s, err := eng.ToString(ctx, jsctx, val)
		release()
		return s, err
	}

	if isObj, err := eng.IsObject(ctx, val); err != nil {
		release()
		return nil, err
	} else if isObj {
		// Ownership transfers into the handle; no release here.
		obj := newObject(ref, val)
		if ref.Track != nil {
			ref.Track(obj)
		}
		return obj, nil
	}

	typeName, err := eng.TypeOf(ctx, jsctx, val)
	release()
	if err != nil {
		return nil, err
	}
	if typeName == "undefined" {
		// Uninitialized values report typeof undefined without matching
		// the undefined predicate; collapse to absence like the rest.
		return nil, nil
	}
	return nil, errors.UnknownTag(phase, typeName)
}

// ToJS converts a host call argument to an owned engine value. Only
// integers and strings are accepted; everything else is rejected before
// any engine allocation.
func ToJS(ctx context.Context, ref Ref, arg any) (uint32, error) {
	switch v := arg.(type) {
	case int:
		return ref.Engine.NewInt64(ctx, ref.Ctx, int64(v))
	case int32:
		return ref.Engine.NewInt64(ctx, ref.Ctx, int64(v))
	case int64:
		return ref.Engine.NewInt64(ctx, ref.Ctx, v)
	case string:
		return ref.Engine.NewString(ctx, ref.Ctx, v)
	default:
		return 0, errors.UnsupportedArg(0, arg)
	}
}

// validArg reports whether arg is inside the call-argument whitelist.
func validArg(arg any) bool {
	switch arg.(type) {
	case int, int32, int64, string:
		return true
	default:
		return false
	}
}

// translateException fetches the pending exception, stringifies it, and
// releases both the exception value and its string form.
func translateException(ctx context.Context, ref Ref, phase errors.Phase) error {
	eng, jsctx := ref.Engine, ref.Ctx

	exc, err := eng.GetException(ctx, jsctx)
	if err != nil {
		return errors.Wrap(phase, errors.KindJSException, err, "fetch pending exception")
	}
	msg, err := eng.ToString(ctx, jsctx, exc)
	_ = eng.FreeValue(ctx, jsctx, exc)
	if err != nil {
		return errors.Wrap(phase, errors.KindJSException, err, "stringify exception")
	}
	if msg == "" {
		msg = "uncaught JavaScript exception"
	}
	return errors.JSException(phase, msg)
}
