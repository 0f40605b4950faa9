package zvar

import (
	"sync"
	"sync/atomic"

	interrors "github.com/zng-ui/zvar/internal/errors"
)

// ctxEntry is one scope's slot of a contextual variable. seq orders entries
// by when they were established, newest highest.
type ctxEntry[T any] struct {
	scope *Scope
	v     *Var[T]
	init  func() T
	seq   uint64
}

func (e *ctxEntry[T]) resolve(u *Updates) *Var[T] {
	if e.v == nil {
		e.v = NewVar(u, e.init())
		e.init = nil
	}
	return e.v
}

// ContextVar is a variable whose value differs per widget scope. Each scope
// that sets or initializes it gets an independent cell; reads resolve
// against the current scope, walking up the scope hierarchy.
//
// A read in a scope with no entry anywhere on its ancestor chain falls back,
// with a logged diagnostic, to the most recently established entry; a stale
// entry of a disposed scope serves as last resort. Only a contextual
// variable that was never given a value or default panics on read.
type ContextVar[T any] struct {
	u    *Updates
	init func() T

	mu      sync.Mutex
	entries []*ctxEntry[T]
	seq     atomic.Uint64
}

// NewContextVar creates a contextual variable owned by u. init, when
// non-nil, lazily provides a scope's starting value on first read; a nil
// init makes reads in unset scope chains fall back or panic.
func NewContextVar[T any](u *Updates, init func() T) *ContextVar[T] {
	return &ContextVar[T]{u: u, init: init}
}

// Updates returns the engine that owns this variable.
func (c *ContextVar[T]) Updates() *Updates {
	return c.u
}

// SetFor establishes value for s, creating the scope's cell when absent.
// An existing cell receives value as an ordinary deferred set. Safe to call
// concurrently with reads resolving the same scope.
func (c *ContextVar[T]) SetFor(s *Scope, value T) error {
	c.mu.Lock()
	entry := c.entryForLocked(s, func() T { return value })
	if entry.v == nil {
		// A pending initializer is overridden by an explicit set.
		entry.init = func() T { return value }
		entry.resolve(c.u)
		c.mu.Unlock()
		return nil
	}
	v := entry.v
	c.mu.Unlock()
	return v.Set(value)
}

// InitFor establishes a lazy initializer for s. The scope's cell is created
// from init on first read. An existing cell is left untouched.
func (c *ContextVar[T]) InitFor(s *Scope, init func() T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryForLocked(s, init)
}

// entryForLocked returns s's entry, creating a pending one with init when
// absent. Caller holds mu; entry fields may only be touched under it.
func (c *ContextVar[T]) entryForLocked(s *Scope, init func() T) *ctxEntry[T] {
	for _, e := range c.entries {
		if e.scope == s {
			return e
		}
	}
	e := &ctxEntry[T]{scope: s, init: init, seq: c.seq.Add(1)}
	c.entries = append(c.entries, e)
	return e
}

// Get resolves the cell for the calling goroutine's current scope. Panics
// when no scope is active; see WithScope.
func (c *ContextVar[T]) Get() *Var[T] {
	s := CurrentScope()
	if s == nil {
		panic(interrors.New("Z041").Format())
	}
	return c.GetIn(s)
}

// GetIn resolves the cell for s: s's own entry, else the nearest ancestor
// entry, else the lazy default, else the fallback path described on
// ContextVar.
func (c *ContextVar[T]) GetIn(s *Scope) *Var[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()

	for scope := s; scope != nil; scope = scope.Parent() {
		for _, e := range c.entries {
			if e.scope == scope {
				return e.resolve(c.u)
			}
		}
	}

	if c.init != nil {
		e := &ctxEntry[T]{scope: s, init: c.init, seq: c.seq.Add(1)}
		c.entries = append(c.entries, e)
		return e.resolve(c.u)
	}

	// No entry on the chain and no default: borrow the most recently
	// established entry, preferring one whose scope is still live.
	var live, stale *ctxEntry[T]
	for _, e := range c.entries {
		if e.scope.IsDisposed() {
			if stale == nil || e.seq > stale.seq {
				stale = e
			}
		} else {
			if live == nil || e.seq > live.seq {
				live = e
			}
		}
	}
	if live != nil {
		c.u.logger.Warn("zvar: contextual variable not set in scope, using fallback",
			"scope", s.ID(),
			"fallback_scope", live.scope.ID(),
		)
		return live.resolve(c.u)
	}
	if stale != nil {
		c.u.logger.Warn("zvar: contextual variable not set in scope, using stale fallback",
			"scope", s.ID(),
			"fallback_scope", stale.scope.ID(),
		)
		return stale.resolve(c.u)
	}

	panic(interrors.New("Z040").Format())
}

// pruneLocked drops entries of disposed scopes, keeping the most recently
// established one as the stale fallback seed. Caller holds mu.
func (c *ContextVar[T]) pruneLocked() {
	var stale *ctxEntry[T]
	for _, e := range c.entries {
		if e.scope.IsDisposed() {
			if stale == nil || e.seq > stale.seq {
				stale = e
			}
		}
	}

	kept := c.entries[:0]
	for _, e := range c.entries {
		if !e.scope.IsDisposed() || e == stale {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = kept
}
