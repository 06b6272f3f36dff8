package engine

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/js-runtime/errors"
)

// Value references are uint32 pointers to boxed JSValues in engine memory.
// Runtime and context references use the same representation. Zero is never
// a valid reference.

// NewRuntime creates a JS runtime inside the engine module.
func (e *Engine) NewRuntime(ctx context.Context) (uint32, error) {
	results, err := e.fnNewRuntime.Call(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseSession, errors.KindInstantiation, err, "create runtime")
	}
	rt := uint32(results[0])
	if rt == 0 {
		return 0, errors.InvalidInput(errors.PhaseSession, "engine returned null runtime")
	}
	return rt, nil
}

// FreeRuntime destroys a JS runtime. Every context and value belonging to
// it must already be released.
func (e *Engine) FreeRuntime(ctx context.Context, rt uint32) error {
	_, err := e.fnFreeRuntime.Call(ctx, uint64(rt))
	return err
}

// NewContext creates an execution context bound to rt.
func (e *Engine) NewContext(ctx context.Context, rt uint32) (uint32, error) {
	results, err := e.fnNewContext.Call(ctx, uint64(rt))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseSession, errors.KindInstantiation, err, "create context")
	}
	jsctx := uint32(results[0])
	if jsctx == 0 {
		return 0, errors.InvalidInput(errors.PhaseSession, "engine returned null context")
	}
	return jsctx, nil
}

// FreeContext destroys an execution context.
func (e *Engine) FreeContext(ctx context.Context, jsctx uint32) error {
	_, err := e.fnFreeContext.Call(ctx, uint64(jsctx))
	return err
}

// AddConsole installs console.log in the context, routed to host_log.
func (e *Engine) AddConsole(ctx context.Context, jsctx uint32) error {
	_, err := e.fnAddConsole.Call(ctx, uint64(jsctx))
	return err
}

// Eval compiles and runs source as a global-scope program. The returned
// value is owned by the caller; an exception-tagged result signals a
// pending exception on the context.
func (e *Engine) Eval(ctx context.Context, jsctx uint32, source, filename string) (uint32, error) {
	codePtr, err := e.writeString(ctx, source)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, codePtr)

	var filenamePtr uint32
	if filename != "" {
		filenamePtr, err = e.writeString(ctx, filename)
		if err != nil {
			return 0, err
		}
		defer e.free(ctx, filenamePtr)
	}

	results, err := e.fnEval.Call(ctx, uint64(jsctx), uint64(codePtr), uint64(len(source)), uint64(filenamePtr), 0)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEval, errors.KindInvalidInput, err, "engine eval trapped")
	}
	return uint32(results[0]), nil
}

// Call invokes fn as a function with the given this binding and argument
// list, in order. Argument ownership stays with the caller; the result is
// owned by the caller.
func (e *Engine) Call(ctx context.Context, jsctx, fn, this uint32, args []uint32) (uint32, error) {
	argc := uint32(len(args))
	var argvPtr uint32
	if argc > 0 {
		var err error
		argvPtr, err = e.alloc(ctx, argc*4)
		if err != nil {
			return 0, err
		}
		defer e.free(ctx, argvPtr)

		argBuf := make([]byte, argc*4)
		for i, arg := range args {
			binary.LittleEndian.PutUint32(argBuf[i*4:], arg)
		}
		if !e.memory.Write(argvPtr, argBuf) {
			return 0, errors.InvalidInput(errors.PhaseCall, "write arguments to engine memory")
		}
	}

	results, err := e.fnCall.Call(ctx, uint64(jsctx), uint64(fn), uint64(this), uint64(argc), uint64(argvPtr))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, "engine call trapped")
	}
	return uint32(results[0]), nil
}

// FreeValue releases one engine reference to val. The boxed reference must
// not be used afterwards.
func (e *Engine) FreeValue(ctx context.Context, jsctx, val uint32) error {
	_, err := e.fnFreeValue.Call(ctx, uint64(jsctx), uint64(val))
	return err
}

// DupValue acquires an additional engine reference to val and returns it.
func (e *Engine) DupValue(ctx context.Context, jsctx, val uint32) (uint32, error) {
	results, err := e.fnDupValue.Call(ctx, uint64(jsctx), uint64(val))
	if err != nil {
		return 0, err
	}
	return uint32(results[0]), nil
}

// Tag predicates. These read the boxed value's tag and never consume it.

func (e *Engine) IsException(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsException, val)
}

func (e *Engine) IsUndefined(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsUndefined, val)
}

func (e *Engine) IsNull(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsNull, val)
}

func (e *Engine) IsBool(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsBool, val)
}

func (e *Engine) IsNumber(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsNumber, val)
}

func (e *Engine) IsString(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsString, val)
}

func (e *Engine) IsObject(ctx context.Context, val uint32) (bool, error) {
	return e.predicate(ctx, e.fnIsObject, val)
}

// IsFunction needs the context because callability depends on class data.
func (e *Engine) IsFunction(ctx context.Context, jsctx, val uint32) (bool, error) {
	results, err := e.fnIsFunction.Call(ctx, uint64(jsctx), uint64(val))
	if err != nil {
		return false, err
	}
	return results[0] != 0, nil
}

func (e *Engine) predicate(ctx context.Context, fn api.Function, val uint32) (bool, error) {
	results, err := fn.Call(ctx, uint64(val))
	if err != nil {
		return false, err
	}
	return results[0] != 0, nil
}

// ToBool reads the boolean value of val.
func (e *Engine) ToBool(ctx context.Context, jsctx, val uint32) (bool, error) {
	results, err := e.fnToBool.Call(ctx, uint64(jsctx), uint64(val))
	if err != nil {
		return false, err
	}
	return int32(results[0]) > 0, nil
}

// ToFloat64 reads the numeric value of val.
func (e *Engine) ToFloat64(ctx context.Context, jsctx, val uint32) (float64, error) {
	resultPtr, err := e.alloc(ctx, 8)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, resultPtr)

	results, err := e.fnToFloat64.Call(ctx, uint64(jsctx), uint64(val), uint64(resultPtr))
	if err != nil {
		return 0, err
	}
	if int32(results[0]) != 0 {
		return 0, errors.InvalidInput(errors.PhaseEval, "number conversion failed")
	}

	buf, ok := e.memory.Read(resultPtr, 8)
	if !ok {
		return 0, errors.InvalidInput(errors.PhaseEval, "read number from engine memory")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// ToString stringifies val. The engine reports the byte length alongside
// the string pointer, so the read is exact regardless of string size or
// embedded NUL bytes. The engine-side C string is released before
// returning; val itself is not consumed.
func (e *Engine) ToString(ctx context.Context, jsctx, val uint32) (string, error) {
	lenPtr, err := e.alloc(ctx, 4)
	if err != nil {
		return "", err
	}
	defer e.free(ctx, lenPtr)

	results, err := e.fnToCStringLen.Call(ctx, uint64(jsctx), uint64(val), uint64(lenPtr))
	if err != nil {
		return "", err
	}
	strPtr := uint32(results[0])
	if strPtr == 0 {
		return "", nil
	}
	defer func() { _, _ = e.fnFreeCString.Call(ctx, uint64(jsctx), uint64(strPtr)) }()

	lenBuf, ok := e.memory.Read(lenPtr, 4)
	if !ok {
		return "", errors.InvalidInput(errors.PhaseEval, "read string length from engine memory")
	}
	strLen := binary.LittleEndian.Uint32(lenBuf)
	if strLen == 0 {
		return "", nil
	}
	buf, ok := e.memory.Read(strPtr, strLen)
	if !ok {
		return "", errors.InvalidInput(errors.PhaseEval, "read string from engine memory")
	}
	return string(buf), nil
}

// TypeOf returns the typeof string for val.
func (e *Engine) TypeOf(ctx context.Context, jsctx, val uint32) (string, error) {
	results, err := e.fnTypeof.Call(ctx, uint64(jsctx), uint64(val))
	if err != nil {
		return "", err
	}
	typeVal := uint32(results[0])
	s, err := e.ToString(ctx, jsctx, typeVal)
	_ = e.FreeValue(ctx, jsctx, typeVal)
	return s, err
}

// NewInt64 constructs a JS integer value. Owned by the caller.
func (e *Engine) NewInt64(ctx context.Context, jsctx uint32, v int64) (uint32, error) {
	results, err := e.fnNewInt64.Call(ctx, uint64(jsctx), uint64(v))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindAllocation, err, "new int")
	}
	return uint32(results[0]), nil
}

// NewString constructs a JS string value. The engine copies the bytes, so
// the scratch buffer is freed before returning. Owned by the caller.
func (e *Engine) NewString(ctx context.Context, jsctx uint32, s string) (uint32, error) {
	strPtr, err := e.writeString(ctx, s)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, strPtr)

	results, err := e.fnNewString.Call(ctx, uint64(jsctx), uint64(strPtr))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseMarshal, errors.KindAllocation, err, "new string")
	}
	return uint32(results[0]), nil
}

// NewNull constructs the JS null value.
func (e *Engine) NewNull(ctx context.Context) (uint32, error) {
	results, err := e.fnNewNull.Call(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(results[0]), nil
}

func (e *Engine) newUndefined(ctx context.Context) (uint32, error) {
	results, err := e.fnNewUndefined.Call(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(results[0]), nil
}

// HasException reports whether the context has a pending exception.
func (e *Engine) HasException(ctx context.Context, jsctx uint32) (bool, error) {
	results, err := e.fnHasException.Call(ctx, uint64(jsctx))
	if err != nil {
		return false, err
	}
	return results[0] != 0, nil
}

// GetException fetches and clears the pending exception. The returned
// value is owned by the caller.
func (e *Engine) GetException(ctx context.Context, jsctx uint32) (uint32, error) {
	results, err := e.fnGetException.Call(ctx, uint64(jsctx))
	if err != nil {
		return 0, err
	}
	return uint32(results[0]), nil
}
