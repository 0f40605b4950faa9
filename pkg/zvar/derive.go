package zvar

import "weak"

// Map returns a read-only cell whose value is fn applied to source. The
// result is seeded immediately and recomputed whenever source notifies,
// within the same apply pass. Tags on the source modification propagate to
// the mapped one.
//
// The mapping holds no strong reference to the result: when the returned
// cell is no longer reachable the subscription on source lapses.
func Map[T, R any](source *Var[T], fn func(T) R) *Var[R] {
	u := source.Updates()
	derived := newVar(u, fn(source.Get()), CapNew)

	wc := weak.Make(derived.core)
	source.Hook(func(args *HookArgs[T]) bool {
		dc := wc.Value()
		if dc == nil {
			return false
		}
		value := fn(args.Value)
		update := args.Update
		tags := args.Tags
		dc.schedule(u.baselineImportance(), func(m *ModifyView[R]) {
			m.Set(value)
			if update {
				m.Update()
			}
			for _, t := range tags {
				m.PushTag(t)
			}
		})
		return true
	}).Perm()

	return derived
}

// FilterMap is Map for partial mappings: fn additionally reports whether the
// source value maps at all. Rejected values leave the result untouched. The
// result is seeded from the current source value, or fallback when that is
// rejected.
func FilterMap[T, R any](source *Var[T], fallback R, fn func(T) (R, bool)) *Var[R] {
	u := source.Updates()
	initial, ok := fn(source.Get())
	if !ok {
		initial = fallback
	}
	derived := newVar(u, initial, CapNew)

	wc := weak.Make(derived.core)
	source.Hook(func(args *HookArgs[T]) bool {
		dc := wc.Value()
		if dc == nil {
			return false
		}
		value, ok := fn(args.Value)
		if !ok {
			return true
		}
		update := args.Update
		tags := args.Tags
		dc.schedule(u.baselineImportance(), func(m *ModifyView[R]) {
			m.Set(value)
			if update {
				m.Update()
			}
			for _, t := range tags {
				m.PushTag(t)
			}
		})
		return true
	}).Perm()

	return derived
}

// bindEdge tags modifications that crossed a particular binding, so the
// receiving side of a bidirectional pair does not reflect them back.
// Compared by pointer identity.
type bindEdge struct {
	id uint64
}

// Bind propagates notifying updates of source into target. The current
// value is not copied at bind time; only subsequent updates flow. Dropping
// the returned handle dissolves the binding.
func Bind[T any](source, target *Var[T]) (*VarHandle, error) {
	return BindMap(source, target, func(v T) T { return v })
}

// BindMap propagates notifying updates of source into target through fn.
// Both variables must belong to the same engine and target must be able to
// modify. Each propagated modification carries the binding's edge tag, so a
// reverse binding between the same pair suppresses the one-hop echo.
func BindMap[T, R any](source *Var[T], target *Var[R], fn func(T) R) (*VarHandle, error) {
	if source.Updates() != target.Updates() {
		return nil, ErrEngineMismatch
	}
	if !target.Capabilities().CanModify() {
		return nil, ReadOnlyError{Capabilities: target.Capabilities()}
	}

	edge := &bindEdge{id: nextID()}
	return source.Hook(bindHook(source.Updates(), target.core, edge, fn)), nil
}

// BindBidi wires source and target both ways: aToB maps source into target
// and bToA maps target back. The two directions share one edge tag, so an
// update entering on either side crosses the binding exactly once. The
// returned handle controls both directions.
func BindBidi[T, R any](source *Var[T], target *Var[R], aToB func(T) R, bToA func(R) T) (*VarHandle, error) {
	if source.Updates() != target.Updates() {
		return nil, ErrEngineMismatch
	}
	if !source.Capabilities().CanModify() {
		return nil, ReadOnlyError{Capabilities: source.Capabilities()}
	}
	if !target.Capabilities().CanModify() {
		return nil, ReadOnlyError{Capabilities: target.Capabilities()}
	}

	u := source.Updates()
	edge := &bindEdge{id: nextID()}

	// Both inner hooks follow the lifetime of one outer handle.
	outer := newHandle()
	forward := bindHook(u, target.core, edge, aToB)
	backward := bindHook(u, source.core, edge, bToA)

	source.Hook(func(args *HookArgs[T]) bool {
		if !outer.entry.alive() {
			return false
		}
		return forward(args)
	}).Perm()
	target.Hook(func(args *HookArgs[R]) bool {
		if !outer.entry.alive() {
			return false
		}
		return backward(args)
	}).Perm()

	return outer, nil
}

// bindHook builds the receiving side of one binding direction: skip
// modifications that already crossed this edge, otherwise map and forward
// with the edge tag appended. The partner is held weakly so either side of
// a binding can be dropped independently.
func bindHook[T, R any](u *Updates, partner *varCore[R], edge *bindEdge, fn func(T) R) func(*HookArgs[T]) bool {
	wc := weak.Make(partner)
	return func(args *HookArgs[T]) bool {
		target := wc.Value()
		if target == nil {
			return false
		}
		if args.HasTag(edge) {
			return true
		}
		value := fn(args.Value)
		update := args.Update
		tags := args.Tags
		target.schedule(u.baselineImportance(), func(m *ModifyView[R]) {
			m.Set(value)
			if update {
				m.Update()
			}
			for _, t := range tags {
				m.PushTag(t)
			}
			m.PushTag(edge)
		})
		return true
	}
}
