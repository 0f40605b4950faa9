package zvar

import (
	"runtime"
	"sync"
)

// goroutineID returns a unique identifier for the current goroutine, parsed
// from the runtime stack header. Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentScopes stores the active widget scope per goroutine. Contextual
// variables resolve against this when read without an explicit scope.
var currentScopes sync.Map // map[uint64]*Scope

// CurrentScope returns the active scope for the calling goroutine, or nil
// when none has been established with WithScope.
func CurrentScope() *Scope {
	if s, ok := currentScopes.Load(goroutineID()); ok {
		return s.(*Scope)
	}
	return nil
}

// setCurrentScope sets the active scope for the calling goroutine and
// returns the previous one so it can be restored.
func setCurrentScope(s *Scope) *Scope {
	gid := goroutineID()
	var old *Scope
	if prev, ok := currentScopes.Load(gid); ok {
		old = prev.(*Scope)
	}
	if s == nil {
		currentScopes.Delete(gid)
	} else {
		currentScopes.Store(gid, s)
	}
	return old
}

// WithScope runs fn with s as the calling goroutine's active scope.
// Contextual variable reads inside fn resolve against s. The previous scope
// is restored when fn returns.
//
// Scopes do not propagate to spawned goroutines; wrap the body of a new
// goroutine in WithScope explicitly.
func WithScope(s *Scope, fn func()) {
	old := setCurrentScope(s)
	defer setCurrentScope(old)
	fn()
}
