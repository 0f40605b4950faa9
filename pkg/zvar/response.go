package zvar

import (
	"context"
	"sync"
	"sync/atomic"
)

// response is the payload of a response cell. Done distinguishes "resolved
// with the zero value" from "not yet resolved".
type response[T any] struct {
	Done  bool
	Value T
}

// ResponderVar is the write side of a response pair. It accepts exactly one
// Respond call.
type ResponderVar[T any] struct {
	core      *varCore[response[T]]
	responded atomic.Bool
}

// ResponseVar is the read side of a response pair: an observable cell that
// notifies once, when the responder delivers.
type ResponseVar[T any] struct {
	core *varCore[response[T]]
}

// NewResponse creates a linked responder/response pair owned by u. The
// response cell starts unresolved with NEW and CAPS_CHANGE capabilities;
// once resolved it becomes constant.
func NewResponse[T any](u *Updates) (*ResponderVar[T], *ResponseVar[T]) {
	v := newVar(u, response[T]{}, CapNew|CapCapsChange)
	return &ResponderVar[T]{core: v.core}, &ResponseVar[T]{core: v.core}
}

// Respond resolves the response with value in the next apply pass. The
// second and later calls return ErrAlreadyResponded and change nothing.
func (r *ResponderVar[T]) Respond(value T) error {
	if !r.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	core := r.core
	core.schedule(core.u.baselineImportance(), func(m *ModifyView[response[T]]) {
		m.Set(response[T]{Done: true, Value: value})
		// The cell turns constant once the resolution commits.
		core.setCapsDeferred(0)
	})
	return nil
}

// IsDone reports whether Respond has been called. The committed value may
// still be pending until the next apply pass.
func (r *ResponderVar[T]) IsDone() bool {
	return r.responded.Load()
}

// ID returns the unique identifier of the underlying cell, shared with the
// responder.
func (r *ResponseVar[T]) ID() uint64 {
	return r.core.id
}

// Updates returns the engine that owns this variable.
func (r *ResponseVar[T]) Updates() *Updates {
	return r.core.u
}

// Capabilities returns the cell's current capability set.
func (r *ResponseVar[T]) Capabilities() Capabilities {
	return Capabilities(r.core.caps.Load())
}

// Done reports whether the response has committed.
func (r *ResponseVar[T]) Done() bool {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	return r.core.value.Done
}

// Get returns the committed response value and whether it has been
// delivered yet.
func (r *ResponseVar[T]) Get() (T, bool) {
	r.core.mu.RLock()
	defer r.core.mu.RUnlock()
	return r.core.value.Value, r.core.value.Done
}

// Hook registers fn to run once, when the response commits. A response
// that has already committed delivers immediately on the calling goroutine
// and the returned handle is already dead. The subscription otherwise
// follows the usual weak-handle rules.
func (r *ResponseVar[T]) Hook(fn func(value T)) *VarHandle {
	var once sync.Once
	deliver := func(value T) {
		once.Do(func() { fn(value) })
	}
	h := r.core.hooks.add(func(args *HookArgs[response[T]]) bool {
		if !args.Value.Done {
			return true
		}
		deliver(args.Value.Value)
		return false
	})
	// A commit racing the registration above must not be lost.
	if value, ok := r.Get(); ok {
		h.Unsubscribe()
		deliver(value)
	}
	return h
}

// Wait blocks until the response commits or ctx is done. Returns the
// response value, or the zero value with ctx's error.
func (r *ResponseVar[T]) Wait(ctx context.Context) (T, error) {
	ch := make(chan T, 1)
	h := r.Hook(func(value T) {
		ch <- value
	})
	defer h.Unsubscribe()

	select {
	case value := <-ch:
		return value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
