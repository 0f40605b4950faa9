package zvar

// ModifyView is the staging area a modification closure works through. It
// starts from the value committed so far; nothing the closure does is
// visible to readers until the modification commits.
type ModifyView[T any] struct {
	current T
	staged  T
	touched bool
	update  bool
	tags    []any
}

// Get returns the value the modification starts from, including any staged
// change made earlier in this closure.
func (m *ModifyView[T]) Get() T {
	if m.touched {
		return m.staged
	}
	return m.current
}

// Set stages a replacement value. The commit still passes through the
// equality gate, so setting an equal value notifies no one.
func (m *ModifyView[T]) Set(value T) {
	m.staged = value
	m.touched = true
}

// ToMut returns a pointer to the staged value for in-place mutation. The
// first call copies the current value into the staging slot.
func (m *ModifyView[T]) ToMut() *T {
	if !m.touched {
		m.staged = m.current
		m.touched = true
	}
	return &m.staged
}

// Update forces a notification for this commit even when the value is left
// unchanged or compares equal. Idempotent.
func (m *ModifyView[T]) Update() {
	m.update = true
}

// PushTag attaches cross-cutting metadata to this modification. Tags travel
// with the notification and with any propagation a binding derives from it.
func (m *ModifyView[T]) PushTag(tag any) {
	m.tags = append(m.tags, tag)
}

// Tags returns the tags attached so far, earliest first.
func (m *ModifyView[T]) Tags() []any {
	return m.tags
}

// HasTag reports whether tag was attached to this modification.
func (m *ModifyView[T]) HasTag(tag any) bool {
	for _, t := range m.tags {
		if t == tag {
			return true
		}
	}
	return false
}
