package zvar

import (
	"sync"
	"sync/atomic"
	"weak"
)

// HookArgs carries a committed value and its metadata into a hook invocation.
type HookArgs[T any] struct {
	// Value is the newly committed value.
	Value T

	// Update is true when the notification was forced without a value
	// change (see Var.Update and ModifyView.Update).
	Update bool

	// Tags is the cross-cutting metadata pushed by the modification, in
	// push order. Binding edges use tags to suppress one-hop reflection.
	Tags []any

	// Epoch is the update cycle the commit belongs to.
	Epoch EpochID
}

// HasTag reports whether tag was pushed by the modification. Comparison is
// by interface equality, so identity tags should be pointers.
func (a *HookArgs[T]) HasTag(tag any) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// VarHandle represents a subscription on a cell: a hook or a held value.
// Subscriptions are weak; dropping every strong reference to the handle
// cancels the subscription the next time it would fire. Unsubscribe cancels
// immediately, Perm makes the subscription permanent regardless of the
// handle's lifetime.
type VarHandle struct {
	entry *handleEntry
}

// handleEntry is the registry-side state of a subscription. The registry
// holds the entry strongly and the handle weakly, so subscribing never by
// itself extends the subscriber's lifetime.
type handleEntry struct {
	id      uint64
	dropped atomic.Bool

	// strong is set by Perm; while non-nil the handle cannot be collected
	// and the subscription outlives all caller references.
	strong atomic.Pointer[VarHandle]

	wh weak.Pointer[VarHandle]

	// payload is retained while the entry is alive. Used by Hold.
	payload any
}

// alive is the call-time liveness check: not dropped, and either permanent
// or still strongly held somewhere.
func (e *handleEntry) alive() bool {
	if e.dropped.Load() {
		return false
	}
	if e.strong.Load() != nil {
		return true
	}
	return e.wh.Value() != nil
}

func newHandle() *VarHandle {
	e := &handleEntry{id: nextID()}
	h := &VarHandle{entry: e}
	e.wh = weak.Make(h)
	return h
}

// ID returns the unique identifier of this subscription.
func (h *VarHandle) ID() uint64 {
	return h.entry.id
}

// Unsubscribe cancels the subscription. The hook is removed from its
// registry the next time the cell notifies. Idempotent.
func (h *VarHandle) Unsubscribe() {
	h.entry.dropped.Store(true)
	h.entry.payload = nil
	h.entry.strong.Store(nil)
}

// Perm marks the subscription permanent: it stays registered even after
// every other reference to the handle is dropped. Unsubscribe still cancels.
func (h *VarHandle) Perm() {
	h.entry.strong.Store(h)
}

// IsAlive reports whether the subscription would still fire.
func (h *VarHandle) IsAlive() bool {
	return h.entry.alive()
}

// hookEntry pairs a subscription with its callback. A nil fn is a pure hold
// entry that never fires but keeps its payload reachable.
type hookEntry[T any] struct {
	entry *handleEntry
	fn    func(*HookArgs[T]) bool
}

// hookRegistry is a cell's ordered list of weakly-held notification
// callbacks.
type hookRegistry[T any] struct {
	mu    sync.Mutex
	hooks []hookEntry[T]
}

// add registers fn and returns its drop-to-cancel handle.
func (r *hookRegistry[T]) add(fn func(*HookArgs[T]) bool) *VarHandle {
	h := newHandle()
	r.mu.Lock()
	r.hooks = append(r.hooks, hookEntry[T]{entry: h.entry, fn: fn})
	r.mu.Unlock()
	return h
}

// hold registers a fireless entry retaining payload until the handle drops.
func (r *hookRegistry[T]) hold(payload any) *VarHandle {
	h := newHandle()
	h.entry.payload = payload
	r.mu.Lock()
	r.hooks = append(r.hooks, hookEntry[T]{entry: h.entry})
	r.mu.Unlock()
	return h
}

// invoke walks hooks in registration order with a copy-before-notify
// snapshot. Dead entries and entries whose callback declines retention are
// pruned afterwards.
func (r *hookRegistry[T]) invoke(u *Updates, args *HookArgs[T]) {
	r.mu.Lock()
	hooks := make([]hookEntry[T], len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.Unlock()

	pruned := false
	for _, hk := range hooks {
		if !hk.entry.alive() {
			pruned = true
			continue
		}
		if hk.fn == nil {
			continue
		}
		if u != nil && u.observer != nil {
			u.observer.ObserveHook()
		}
		if !hk.fn(args) {
			hk.entry.dropped.Store(true)
			hk.entry.payload = nil
			pruned = true
		}
	}

	if pruned {
		r.prune()
	}
}

// prune removes dead entries, preserving registration order.
func (r *hookRegistry[T]) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.hooks[:0]
	for _, hk := range r.hooks {
		if hk.entry.alive() {
			kept = append(kept, hk)
		}
	}
	// Clear the tail so dropped entries do not pin their callbacks.
	for i := len(kept); i < len(r.hooks); i++ {
		r.hooks[i] = hookEntry[T]{}
	}
	r.hooks = kept
}

// len reports the number of live entries.
func (r *hookRegistry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, hk := range r.hooks {
		if hk.entry.alive() {
			n++
		}
	}
	return n
}
