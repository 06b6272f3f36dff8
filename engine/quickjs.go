package engine

import (
	"context"
	"sync"

	quickjswasm "github.com/Gaurav-Gosain/quickjs/wasm"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/errors"
)

// Shared compilation cache so repeated Engine construction does not
// recompile the engine module.
var (
	compilationCache     wazero.CompilationCache
	compilationCacheOnce sync.Once
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum linear memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Logger receives engine diagnostics and console output from scripts.
	// Nil means a no-op logger.
	Logger *zap.Logger
}

// Engine owns one wazero runtime with one instantiated QuickJS-ng module.
// It is not safe for concurrent use; callers serialize access per the
// session contract.
type Engine struct {
	runtime wazero.Runtime
	module  api.Module
	memory  api.Memory
	logger  *zap.Logger

	fnAlloc       api.Function
	fnFree        api.Function
	fnNewRuntime  api.Function
	fnFreeRuntime api.Function
	fnNewContext  api.Function
	fnFreeContext api.Function
	fnAddConsole  api.Function
	fnEval        api.Function
	fnCall        api.Function

	fnIsException api.Function
	fnIsUndefined api.Function
	fnIsNull      api.Function
	fnIsBool      api.Function
	fnIsNumber    api.Function
	fnIsString    api.Function
	fnIsObject    api.Function
	fnIsFunction  api.Function

	fnToBool       api.Function
	fnToFloat64    api.Function
	fnToCStringLen api.Function
	fnFreeCString  api.Function
	fnTypeof       api.Function

	fnNewInt64     api.Function
	fnNewString    api.Function
	fnNewNull      api.Function
	fnNewUndefined api.Function

	fnHasException api.Function
	fnGetException api.Function
	fnDupValue     api.Function
	fnFreeValue    api.Function
}

// New creates an Engine: a wazero runtime with WASI, the instantiated
// QuickJS-ng module, and every export resolved. Construction is atomic;
// any failure closes the wazero runtime before returning.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	compilationCacheOnce.Do(func() {
		compilationCache = wazero.NewCompilationCache()
	})

	runtimeCfg := wazero.NewRuntimeConfig().
		WithCompilationCache(compilationCache).
		WithDebugInfoEnabled(false)
	logger := zap.NewNop()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			logger = cfg.Logger
		}
	}

	e := &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		logger:  logger,
	}

	if err := e.instantiate(ctx); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

func (e *Engine) instantiate(ctx context.Context) error {
	wasi_snapshot_preview1.MustInstantiate(ctx, e.runtime)

	// The engine module imports env.host_log (console output) and
	// env.host_call_go (JS-to-host callbacks, unused by this bridge).
	_, err := e.runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(e.hostLog).
		Export("host_log").
		NewFunctionBuilder().
		WithFunc(e.hostCallGo).
		Export("host_call_go").
		Instantiate(ctx)
	if err != nil {
		return errors.Instantiation(err)
	}

	compiled, err := e.runtime.CompileModule(ctx, quickjswasm.QuickJS)
	if err != nil {
		return errors.Load("compile engine module", err)
	}

	e.module, err = e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return errors.Instantiation(err)
	}

	e.memory = e.module.Memory()
	if e.memory == nil {
		return errors.Load("engine module has no memory", nil)
	}

	return e.resolveExports()
}

func (e *Engine) resolveExports() error {
	resolve := func(fn *api.Function, name string) error {
		*fn = e.module.ExportedFunction(name)
		if *fn == nil {
			return errors.MissingExport(name)
		}
		return nil
	}

	for _, exp := range []struct {
		fn   *api.Function
		name string
	}{
		{&e.fnAlloc, "qjs_alloc"},
		{&e.fnFree, "qjs_free"},
		{&e.fnNewRuntime, "qjs_new_runtime"},
		{&e.fnFreeRuntime, "qjs_free_runtime"},
		{&e.fnNewContext, "qjs_new_context"},
		{&e.fnFreeContext, "qjs_free_context"},
		{&e.fnAddConsole, "qjs_std_add_console"},
		{&e.fnEval, "qjs_eval"},
		{&e.fnCall, "qjs_call"},
		{&e.fnIsException, "qjs_is_exception"},
		{&e.fnIsUndefined, "qjs_is_undefined"},
		{&e.fnIsNull, "qjs_is_null"},
		{&e.fnIsBool, "qjs_is_bool"},
		{&e.fnIsNumber, "qjs_is_number"},
		{&e.fnIsString, "qjs_is_string"},
		{&e.fnIsObject, "qjs_is_object"},
		{&e.fnIsFunction, "qjs_is_function"},
		{&e.fnToBool, "qjs_to_bool"},
		{&e.fnToFloat64, "qjs_to_float64"},
		{&e.fnToCStringLen, "qjs_to_cstring_len"},
		{&e.fnFreeCString, "qjs_free_cstring"},
		{&e.fnTypeof, "qjs_typeof"},
		{&e.fnNewInt64, "qjs_new_int64"},
		{&e.fnNewString, "qjs_new_string"},
		{&e.fnNewNull, "qjs_new_null"},
		{&e.fnNewUndefined, "qjs_new_undefined"},
		{&e.fnHasException, "qjs_has_exception"},
		{&e.fnGetException, "qjs_get_exception"},
		{&e.fnDupValue, "qjs_dup_value"},
		{&e.fnFreeValue, "qjs_free_value"},
	} {
		if err := resolve(exp.fn, exp.name); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the wazero runtime and with it the engine module.
// Safe to call more than once; wazero tolerates closing a closed runtime.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *Engine) hostLog(ctx context.Context, m api.Module, bufPtr, bufLen uint32) {
	buf, ok := m.Memory().Read(bufPtr, bufLen)
	if !ok {
		return
	}
	e.logger.Info("console", zap.String("output", string(buf)))
}

// hostCallGo satisfies the engine module's callback import. This bridge
// never registers host functions with the engine, so any call reaching
// here returns undefined.
func (e *Engine) hostCallGo(ctx context.Context, m api.Module, ctxPtr, funcID uint32, argc int32, argvPtr uint32) uint32 {
	e.logger.Warn("unexpected host callback from engine", zap.Uint32("func_id", funcID))
	undef, err := e.newUndefined(ctx)
	if err != nil {
		// 0 is never a valid boxed reference; trap instead of handing
		// the engine one.
		e.logger.Error("allocate undefined for host callback", zap.Error(err))
		panic(err)
	}
	return undef
}
