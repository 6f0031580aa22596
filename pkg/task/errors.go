package task

import (
	"errors"
	"fmt"
)

// Kind tags an error with an explicit, structurally comparable identity.
// Kinds replace type-name matching: a caller declares the kinds it expects
// and the harness compares tags, not type names.
type Kind string

const (
	// KindError is the default kind for plain errors without a tag.
	KindError Kind = "error"
	// KindUnregistered is returned when a subprocess is asked to run a task
	// name that is not in its registry.
	KindUnregistered Kind = "unregistered_task"
)

// Error is an ordinary application error with a kind tag. Kind and Message
// survive the trip across the process boundary unchanged.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a tagged error.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind tag from err. Plain errors report KindError.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindError
}

// KindSet is the expected-errors set: failures whose kind is present are
// still surfaced to the caller, but skip verbose stack logging.
type KindSet map[Kind]struct{}

// Kinds builds a set from a list of kind tags.
func Kinds(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set. A nil set contains nothing.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}
