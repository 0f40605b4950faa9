package zvar

import (
	"errors"
	"fmt"
	"reflect"

	interrors "github.com/zng-ui/zvar/internal/errors"
)

// ReadOnlyError is returned by Set/Modify/Update on a cell lacking the
// MODIFY capability. It carries the cell's capabilities so callers can
// distinguish a permanently constant cell from a read-only wrapper.
type ReadOnlyError struct {
	// Capabilities is the capability set of the rejecting cell.
	Capabilities Capabilities
}

// Error implements the error interface.
func (e ReadOnlyError) Error() string {
	return fmt.Sprintf("Z001: variable cannot modify (capabilities %s)", e.Capabilities)
}

// IsReadOnly reports whether err is a ReadOnlyError.
func IsReadOnly(err error) bool {
	var ro ReadOnlyError
	return errors.As(err, &ro)
}

// ErrAlreadyResponded is returned by ResponderVar.Respond after the response
// has already been delivered; a response variable resolves at most once.
var ErrAlreadyResponded = errors.New("zvar: response already delivered")

// ErrEngineMismatch is returned when an operation wires together variables
// owned by different Updates engines.
var ErrEngineMismatch = interrors.New("Z061")

// downcastPanic aborts with the Z020 programmer-error text describing the
// expected versus actual value type of a type-erased downcast.
func downcastPanic(expected, actual reflect.Type) {
	panic(interrors.New("Z020").
		WithDetail("expected value type %v, variable holds %v", expected, actual).
		Format())
}

// erasedWritePanic aborts with the Z021 programmer-error text for an erased
// write carrying the wrong value type.
func erasedWritePanic(expected, actual reflect.Type) {
	panic(interrors.New("Z021").
		WithDetail("expected value type %v, got %v", expected, actual).
		Format())
}
