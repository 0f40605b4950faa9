package zvar

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// varCore is the shared state behind a Var and all of its read-only views.
type varCore[T any] struct {
	id uint64
	u  *Updates

	mu    sync.RWMutex
	value T

	caps atomic.Uint32

	// lastUpdate is the epoch of the last committed, notifying write.
	lastUpdate atomic.Uint64

	// imp is the importance of the last accepted modification. A queued
	// modification commits only when its own importance is at least this.
	imp atomic.Uint64

	// animCount tracks animations currently targeting this cell.
	animCount atomic.Int32

	hooks hookRegistry[T]
	equal func(a, b T) bool
}

// Var is an observable value cell. Reads are immediate; writes are deferred
// modification requests that commit during the owning engine's next apply
// pass. All methods are safe for concurrent use.
type Var[T any] struct {
	core     *varCore[T]
	readOnly bool
}

// VarOption configures a new variable.
type VarOption[T any] func(*varCore[T])

// WithEquals overrides the equality function used to suppress no-op
// notifications. The default compares primitives directly and everything
// else with reflect.DeepEqual.
func WithEquals[T any](equal func(a, b T) bool) VarOption[T] {
	return func(c *varCore[T]) {
		if equal != nil {
			c.equal = equal
		}
	}
}

// NewVar creates a fully capable variable (NEW and MODIFY) owned by u,
// holding initial.
func NewVar[T any](u *Updates, initial T, opts ...VarOption[T]) *Var[T] {
	return newVar(u, initial, CapsVar, opts...)
}

// NewConst creates a variable that will never change. It reports no
// capabilities and rejects every write.
func NewConst[T any](u *Updates, value T) *Var[T] {
	return newVar(u, value, 0)
}

func newVar[T any](u *Updates, initial T, caps Capabilities, opts ...VarOption[T]) *Var[T] {
	c := &varCore[T]{
		id:    nextID(),
		u:     u,
		value: initial,
		equal: defaultEquals[T],
	}
	c.caps.Store(uint32(caps.normalized()))
	for _, opt := range opts {
		opt(c)
	}
	return &Var[T]{core: c}
}

// ID returns the unique identifier of the underlying cell. A read-only view
// shares the ID of the cell it wraps.
func (v *Var[T]) ID() uint64 {
	return v.core.id
}

// Updates returns the engine that owns this variable.
func (v *Var[T]) Updates() *Updates {
	return v.core.u
}

// Capabilities returns the cell's current capability set. A read-only view
// never reports MODIFY.
func (v *Var[T]) Capabilities() Capabilities {
	caps := Capabilities(v.core.caps.Load())
	if v.readOnly {
		caps &^= CapModify
	}
	return caps
}

// ReadOnly returns a view of this variable that rejects writes but observes
// the same cell. Returns the receiver when it is already read-only.
func (v *Var[T]) ReadOnly() *Var[T] {
	if v.readOnly {
		return v
	}
	return &Var[T]{core: v.core, readOnly: true}
}

// Get returns the current committed value.
func (v *Var[T]) Get() T {
	v.core.mu.RLock()
	defer v.core.mu.RUnlock()
	return v.core.value
}

// With calls fn with the current committed value.
func (v *Var[T]) With(fn func(T)) {
	fn(v.Get())
}

// IsNew reports whether the cell committed a notifying write in the current
// update cycle.
func (v *Var[T]) IsNew() bool {
	return EpochID(v.core.lastUpdate.Load()) == v.core.u.Epoch()
}

// LastUpdate returns the epoch of the most recent notifying write, or zero
// when the cell has never notified.
func (v *Var[T]) LastUpdate() EpochID {
	return EpochID(v.core.lastUpdate.Load())
}

// ModifyImportance returns the importance of the last accepted modification.
func (v *Var[T]) ModifyImportance() uint64 {
	return v.core.imp.Load()
}

// IsAnimating reports whether at least one animation is currently targeting
// this cell.
func (v *Var[T]) IsAnimating() bool {
	return v.core.animCount.Load() > 0
}

// Set requests that the cell's value become value in the next apply pass.
// Returns ReadOnlyError when the cell cannot modify. A direct set outranks
// every animation running when it was requested.
func (v *Var[T]) Set(value T) error {
	return v.Modify(func(m *ModifyView[T]) {
		m.Set(value)
	})
}

// Modify requests an in-place modification. fn runs during the next apply
// pass against the value committed so far and stages changes through the
// view; see ModifyView. Returns ReadOnlyError when the cell cannot modify.
func (v *Var[T]) Modify(fn func(m *ModifyView[T])) error {
	if fn == nil {
		return nil
	}
	if v.readOnly || !v.Capabilities().CanModify() {
		return ReadOnlyError{Capabilities: v.Capabilities()}
	}
	v.core.schedule(v.core.u.baselineImportance(), fn)
	return nil
}

// Update forces a notification in the next apply pass without changing the
// value. Hooks fire with Update set even though the value compares equal.
func (v *Var[T]) Update() error {
	return v.Modify(func(m *ModifyView[T]) {
		m.Update()
	})
}

// Hook registers fn to run after every notifying commit of this cell, in
// registration order. fn returns true to stay subscribed. The subscription
// is weak: dropping the returned handle cancels it; call Perm on the handle
// to keep it for the cell's lifetime.
func (v *Var[T]) Hook(fn func(args *HookArgs[T]) bool) *VarHandle {
	return v.core.hooks.add(fn)
}

// Hold keeps payload reachable for as long as the returned handle lives.
// Used to tie a helper's lifetime to a subscriber without a hook body.
func (v *Var[T]) Hold(payload any) *VarHandle {
	return v.core.hooks.hold(payload)
}

// WaitUpdate blocks until the cell's next notifying commit or until ctx is
// done, whichever comes first.
func (v *Var[T]) WaitUpdate(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	h := v.Hook(func(*HookArgs[T]) bool {
		select {
		case ch <- struct{}{}:
		default:
		}
		return false
	})
	defer h.Unsubscribe()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// schedule enqueues fn with the given importance. The importance is sampled
// at request time, not commit time.
func (c *varCore[T]) schedule(imp uint64, fn func(m *ModifyView[T])) {
	c.u.enqueue(func(epoch EpochID) {
		c.commit(epoch, imp, fn)
	})
}

// commit applies one staged modification: the importance gate first, then
// the equality gate, then value storage and the hook walk.
func (c *varCore[T]) commit(epoch EpochID, imp uint64, fn func(m *ModifyView[T])) {
	c.mu.RLock()
	if imp < c.imp.Load() {
		c.mu.RUnlock()
		return
	}
	view := &ModifyView[T]{current: c.value}
	c.mu.RUnlock()

	// fn may read other cells, so it runs unlocked. Commits are already
	// serialized by the apply pass.
	fn(view)

	c.mu.Lock()
	if imp < c.imp.Load() {
		c.mu.Unlock()
		return
	}
	c.imp.Store(imp)

	changed := view.touched && !c.equal(c.value, view.staged)
	if changed {
		c.value = view.staged
	}
	if !changed && !view.update {
		c.mu.Unlock()
		return
	}
	c.lastUpdate.Store(uint64(epoch))
	value := c.value
	c.mu.Unlock()

	if c.u.observer != nil {
		c.u.observer.ObserveCommit()
	}
	c.hooks.invoke(c.u, &HookArgs[T]{
		Value:  value,
		Update: view.update && !changed,
		Tags:   view.tags,
		Epoch:  epoch,
	})
}

// setCapsDeferred stages a capability change. The flag set only ever changes
// between cycles, so the store runs after the current worklist drains.
func (c *varCore[T]) setCapsDeferred(caps Capabilities) {
	c.u.deferPostApply(func() {
		c.caps.Store(uint32(caps.normalized()))
	})
}

// defaultEquals compares comparable primitives directly and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case bool:
		return av == any(b).(bool)
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case time.Duration:
		return av == any(b).(time.Duration)
	case time.Time:
		return av.Equal(any(b).(time.Time))
	default:
		return reflect.DeepEqual(a, b)
	}
}
