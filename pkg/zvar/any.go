package zvar

import "reflect"

// AnyHookArgs is the type-erased form of HookArgs, delivered to hooks
// registered through HookAny.
type AnyHookArgs struct {
	Value  any
	Update bool
	Tags   []any
	Epoch  EpochID
}

// AnyVar is the type-erased view of a variable. Collections of cells with
// heterogeneous value types, such as a widget's property table, hold
// AnyVars and recover the typed cell with DowncastVar.
type AnyVar interface {
	// ID returns the unique identifier of the underlying cell.
	ID() uint64

	// Updates returns the engine that owns this variable.
	Updates() *Updates

	// Capabilities returns the cell's current capability set.
	Capabilities() Capabilities

	// ValueType returns the cell's value type.
	ValueType() reflect.Type

	// GetAny returns the current committed value, boxed.
	GetAny() any

	// SetAny requests a deferred set from a boxed value. It returns
	// ReadOnlyError like Set, and panics when value is not of the cell's
	// value type; erased writes with the wrong type are programmer
	// errors, not recoverable conditions.
	SetAny(value any) error

	// Update forces a notification without changing the value.
	Update() error

	// HookAny registers a type-erased hook, with the same semantics and
	// weak-handle rules as Hook.
	HookAny(fn func(args *AnyHookArgs) bool) *VarHandle

	// IsNew reports whether the cell committed in the current cycle.
	IsNew() bool

	// LastUpdate returns the epoch of the most recent notifying write.
	LastUpdate() EpochID
}

var _ AnyVar = (*Var[int])(nil)

// ValueType returns T.
func (v *Var[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// GetAny returns the current committed value, boxed.
func (v *Var[T]) GetAny() any {
	return v.Get()
}

// SetAny requests a deferred set from a boxed value. Panics when value is
// not a T.
func (v *Var[T]) SetAny(value any) error {
	typed, ok := value.(T)
	if !ok {
		erasedWritePanic(reflect.TypeFor[T](), reflect.TypeOf(value))
	}
	return v.Set(typed)
}

// HookAny registers a type-erased hook on the cell.
func (v *Var[T]) HookAny(fn func(args *AnyHookArgs) bool) *VarHandle {
	return v.Hook(func(args *HookArgs[T]) bool {
		return fn(&AnyHookArgs{
			Value:  args.Value,
			Update: args.Update,
			Tags:   args.Tags,
			Epoch:  args.Epoch,
		})
	})
}

// DowncastVar recovers the typed cell behind an AnyVar. Panics when the
// erased variable does not hold values of type T; a mismatched downcast is
// a programmer error.
func DowncastVar[T any](v AnyVar) *Var[T] {
	typed, ok := v.(*Var[T])
	if !ok {
		downcastPanic(reflect.TypeFor[T](), v.ValueType())
	}
	return typed
}
