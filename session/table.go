package session

import (
	"sync"

	"github.com/wippyai/js-runtime/bridge"
)

// handleTable tracks the object handles a session has produced so Close
// can release every retained JS reference before freeing the context.
// The mutex exists for Close-vs-Release ordering, not for concurrent
// evaluation, which the session contract already forbids.
type handleTable struct {
	mu      sync.Mutex
	next    uint64
	handles map[uint64]*bridge.Object
}

func newHandleTable() *handleTable {
	return &handleTable{
		handles: make(map[uint64]*bridge.Object),
	}
}

// insert adds a handle and returns its id. Id 0 is never used.
func (t *handleTable) insert(obj *bridge.Object) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.handles[t.next] = obj
	return t.next
}

// remove drops a handle from the table.
func (t *handleTable) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handles, id)
}

// snapshot returns the live handles. Callers release outside the lock
// because Release re-enters remove via the detach hook.
func (t *handleTable) snapshot() []*bridge.Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	objs := make([]*bridge.Object, 0, len(t.handles))
	for _, obj := range t.handles {
		objs = append(objs, obj)
	}
	return objs
}

// len reports the number of live handles.
func (t *handleTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}
