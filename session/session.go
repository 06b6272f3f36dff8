package session

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/bridge"
	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// Session is one isolated JavaScript evaluation environment: an engine
// instance, one JS runtime, and one execution context. Not safe for
// concurrent use.
type Session struct {
	eng      *engine.Engine
	rt       uint32
	jsctx    uint32
	live     *bridge.Liveness
	handles  *handleTable
	logger   *zap.Logger
	filename string
	closed   atomic.Bool
}

// Option configures session construction.
type Option func(*settings)

type settings struct {
	logger           *zap.Logger
	memoryLimitPages uint32
	filename         string
}

// WithLogger routes session and script console output to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMemoryLimitPages caps the engine's linear memory (64KB pages).
func WithMemoryLimitPages(pages uint32) Option {
	return func(s *settings) { s.memoryLimitPages = pages }
}

// WithFilename sets the script name shown in JS stack traces.
func WithFilename(name string) Option {
	return func(s *settings) { s.filename = name }
}

// New constructs a session. Construction is atomic: a failure at any stage
// unwinds the stages before it, so a failed New leaks nothing.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	cfg := settings{
		logger:   zap.NewNop(),
		filename: "<input>",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, err := engine.New(ctx, &engine.Config{
		MemoryLimitPages: cfg.memoryLimitPages,
		Logger:           cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	rt, err := eng.NewRuntime(ctx)
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	jsctx, err := eng.NewContext(ctx, rt)
	if err != nil {
		_ = eng.FreeRuntime(ctx, rt)
		_ = eng.Close(ctx)
		return nil, err
	}

	if err := eng.AddConsole(ctx, jsctx); err != nil {
		_ = eng.FreeContext(ctx, jsctx)
		_ = eng.FreeRuntime(ctx, rt)
		_ = eng.Close(ctx)
		return nil, errors.Wrap(errors.PhaseSession, errors.KindInstantiation, err, "install console")
	}

	s := &Session{
		eng:      eng,
		rt:       rt,
		jsctx:    jsctx,
		live:     &bridge.Liveness{},
		handles:  newHandleTable(),
		logger:   cfg.logger,
		filename: cfg.filename,
	}
	s.logger.Debug("session created")
	return s, nil
}

func (s *Session) ref() bridge.Ref {
	return bridge.Ref{Engine: s.eng, Ctx: s.jsctx, Live: s.live, Track: s.track}
}

// Evaluate compiles and runs source as a global-scope program and returns
// the result as a host value: int64, float64, bool, string, nil, or a
// *bridge.Object for object results. Globals mutated by source persist for
// later calls. A thrown JS exception surfaces as the bridge error with the
// stringified exception as its message.
func (s *Session) Evaluate(ctx context.Context, source string) (any, error) {
	if s.closed.Load() {
		return nil, errors.Closed("evaluate")
	}

	val, err := s.eng.Eval(ctx, s.jsctx, source, s.filename)
	if err != nil {
		return nil, err
	}

	result, err := bridge.ToHost(ctx, s.ref(), val, errors.PhaseEval)
	if err != nil {
		s.logger.Debug("evaluate failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// track registers an object handle so Close can release it in bulk.
func (s *Session) track(obj *bridge.Object) {
	id := s.handles.insert(obj)
	obj.OnRelease(func(*bridge.Object) {
		s.handles.remove(id)
	})
}

// Handles reports the number of live object handles owned by the session.
func (s *Session) Handles() int {
	return s.handles.len()
}

// Close tears the session down: releases every outstanding handle, marks
// the liveness token dead, then frees the context, the runtime, and the
// engine, in that order. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Debug("session closing", zap.Int("handles", s.handles.len()))

	for _, obj := range s.handles.snapshot() {
		obj.Release(ctx)
	}
	s.live.Kill()

	var firstErr error
	if err := s.eng.FreeContext(ctx, s.jsctx); err != nil {
		firstErr = err
	}
	if err := s.eng.FreeRuntime(ctx, s.rt); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.eng.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
