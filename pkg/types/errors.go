package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoIndex is returned when a queue's search index has not been
	// created yet. Callers treat it as "nothing available", not a failure.
	ErrNoIndex = errors.New("no such index")

	// ErrNotFound is returned when a payload document does not exist.
	ErrNotFound = errors.New("not found")
)

// InputError marks a request the caller got wrong: missing queue name,
// undecodable body, bad field types. The API layer maps it to 400.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

// BadInput builds an InputError
func BadInput(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err is (or wraps) an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
