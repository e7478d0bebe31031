package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("http serve failed")
	ErrBadRequest = errors.New("bad request")
)

// Wrap annotates err with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind annotates err with an operation and a sentinel kind so
// callers can errors.Is against the kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind creates an operation-scoped error of a sentinel kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}
