package engine

import (
	"context"

	"github.com/wippyai/js-runtime/errors"
)

// alloc reserves size bytes in the engine module's heap.
func (e *Engine) alloc(ctx context.Context, size uint32) (uint32, error) {
	results, err := e.fnAlloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseLoad, errors.KindAllocation, err, "engine alloc")
	}
	ptr := uint32(results[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseLoad, size)
	}
	return ptr, nil
}

// free returns a scratch allocation to the engine heap. Only pointers
// obtained from alloc may be freed here; boxed JSValue storage belongs to
// the engine and is reclaimed through FreeValue.
func (e *Engine) free(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	_, _ = e.fnFree.Call(ctx, uint64(ptr))
}

// writeString copies s into the engine heap as a NUL-terminated C string.
// The caller frees the returned pointer.
func (e *Engine) writeString(ctx context.Context, s string) (uint32, error) {
	ptr, err := e.alloc(ctx, uint32(len(s)+1))
	if err != nil {
		return 0, err
	}
	data := make([]byte, len(s)+1)
	copy(data, s)
	if !e.memory.Write(ptr, data) {
		e.free(ctx, ptr)
		return 0, errors.InvalidInput(errors.PhaseLoad, "write string to engine memory")
	}
	return ptr, nil
}
