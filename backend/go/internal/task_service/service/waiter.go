package service

import (
	"errors"
	"sync"

	"Hokage/backend/go/internal/models"
)

// ErrAlreadyWaiting is returned when a second long-poll is registered for a
// data source that already has one outstanding. Each collector runs a single
// poll loop, so a duplicate registration indicates a misbehaving client and
// fails fast instead of silently replacing the first waiter.
var ErrAlreadyWaiting = errors.New("a long-poll is already registered for this data source")

// WaitHandle is a single-resolution rendezvous: it is fulfilled with at most
// one task and then retired.
type WaitHandle struct {
	ch chan *models.AgentTask
}

// Ready returns the channel on which the dispatched task is delivered.
func (h *WaitHandle) Ready() <-chan *models.AgentTask {
	return h.ch
}

// WaiterRegistry maps each data source to its single outstanding long-poll
// handle. It is process-local shared state; all operations for a given owner
// are serialized by the registry mutex so a stale handle can never be
// resolved.
type WaiterRegistry struct {
	mu      sync.Mutex
	waiters map[uint]*WaitHandle
}

// NewWaiterRegistry creates an empty registry.
func NewWaiterRegistry() *WaiterRegistry {
	return &WaiterRegistry{waiters: make(map[uint]*WaitHandle)}
}

// Register creates a rendezvous handle for the owner. Fails with
// ErrAlreadyWaiting when a handle is already registered.
func (r *WaiterRegistry) Register(ownerID uint) (*WaitHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.waiters[ownerID]; exists {
		return nil, ErrAlreadyWaiting
	}
	// Buffer of one: Resolve never blocks, and the task survives in the
	// channel even if the waiter is concurrently timing out, so the cleanup
	// path can recover it.
	handle := &WaitHandle{ch: make(chan *models.AgentTask, 1)}
	r.waiters[ownerID] = handle
	return handle, nil
}

// Waiting reports whether a handle is currently registered for the owner.
func (r *WaiterRegistry) Waiting(ownerID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.waiters[ownerID]
	return exists
}

// Resolve fulfills the owner's handle with the task and retires it. Returns
// false when no one is waiting, in which case the task stays queued for the
// next poll.
func (r *WaiterRegistry) Resolve(ownerID uint, task *models.AgentTask) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, exists := r.waiters[ownerID]
	if !exists {
		return false
	}
	delete(r.waiters, ownerID)
	handle.ch <- task
	return true
}

// Unregister removes the owner's handle unconditionally. Called on every
// long-poll exit path (delivery, timeout, disconnect) to prevent leaked
// slots from blocking future polls.
func (r *WaiterRegistry) Unregister(ownerID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, ownerID)
}
