// Package zvar provides the retained reactive-variable engine underlying the
// toolkit: observable value cells that can be read, replaced, derived into
// one another, bound bidirectionally, animated over time, and resolved per
// widget context.
//
// # Core Types
//
// Var[T] is an observable value cell:
//
//	u := zvar.New()
//	count := zvar.NewVar(u, 0)
//	count.Set(5)       // queued; takes effect at the next apply pass
//	u.Apply()
//	value := count.Get()  // last committed value
//
// Writes are never applied synchronously. Set, Modify and Update enqueue a
// modification on the engine; the external driver commits all pending
// modifications in a single apply pass per update cycle. A commit only
// notifies hooks when the value actually changed (or Update forced it).
//
// # Derivation
//
// Map creates a read-only cell recomputed from its source; Bind and BindBidi
// keep two cells synchronized, suppressing one-hop reflection so mutually
// bound cells settle in a single cycle:
//
//	doubled := zvar.Map(count, func(n int) int { return n * 2 })
//	handle, err := zvar.BindBidi(celsius, fahrenheit,
//		func(c float64) float64 { return c*9/5 + 32 },
//		func(f float64) float64 { return (f - 32) * 5 / 9 },
//	)
//
// # Animation
//
// Animate registers a per-cycle step closure driven by the frame driver via
// Updates.Tick. Writes from an animation carry the animation's importance and
// lose arbitration against any later direct Set.
//
// # Thread Safety
//
// Set/Modify/Update may be called from any goroutine; they only enqueue.
// With/Get are safe from any goroutine and always observe the last committed
// value. Exactly one apply pass runs at a time; IsNew and IsAnimating are
// specified only on the goroutine driving the current apply pass.
package zvar
