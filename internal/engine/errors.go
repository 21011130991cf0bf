package engine

import "fmt"

// InvalidStateError reports a lifecycle rule violation: the operation is
// recognized but the asset or assignment is not in a state that permits it.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string { return e.Reason }

// InvalidInputError reports a malformed or out-of-range argument.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// ConflictError reports a uniqueness violation or a lost concurrent write.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// InactiveError reports a reference to a deactivated employee or location.
type InactiveError struct {
	Kind string
	ID   string
}

func (e *InactiveError) Error() string { return fmt.Sprintf("%s %s is inactive", e.Kind, e.ID) }
