package zvar

import "strings"

// Capabilities describes what a cell currently permits.
//
// CapNew means the value can change over time. CapModify means callers can
// request changes; it implies CapNew. CapCapsChange means the flag set itself
// may change between update cycles (never mid apply pass).
type Capabilities uint8

const (
	// CapNew marks a cell whose value can change.
	CapNew Capabilities = 1 << iota

	// CapModify marks a cell that accepts Set/Modify/Update requests.
	// Implies CapNew.
	CapModify

	// CapCapsChange marks a cell whose capability set may change between
	// update cycles, such as a response cell that becomes constant after
	// resolving.
	CapCapsChange
)

// CapsVar is the capability set of a plain writable variable.
const CapsVar = CapNew | CapModify

// CanUpdate reports whether the value can ever change.
func (c Capabilities) CanUpdate() bool {
	return c&(CapNew|CapModify) != 0
}

// CanModify reports whether callers may request changes.
func (c Capabilities) CanModify() bool {
	return c&CapModify != 0
}

// CanChange reports whether the capability set itself may change between
// cycles.
func (c Capabilities) CanChange() bool {
	return c&CapCapsChange != 0
}

// Contains reports whether every flag in other is present in c.
func (c Capabilities) Contains(other Capabilities) bool {
	return c&other == other
}

// normalized returns the capability set with implied flags filled in.
func (c Capabilities) normalized() Capabilities {
	if c.CanModify() {
		c |= CapNew
	}
	return c
}

// String returns the flag names joined by "|", or "CONST" for the empty set.
func (c Capabilities) String() string {
	if c == 0 {
		return "CONST"
	}
	var parts []string
	if c&CapNew != 0 {
		parts = append(parts, "NEW")
	}
	if c&CapModify != 0 {
		parts = append(parts, "MODIFY")
	}
	if c&CapCapsChange != 0 {
		parts = append(parts, "CAPS_CHANGE")
	}
	return strings.Join(parts, "|")
}
