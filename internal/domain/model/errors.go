package model

import (
	"errors"
)

// Sentinel error kinds for this package. Contract violations indicate a
// broken caller invariant; the validation boundary should have rejected
// the input before it reached the engine.
var (
	ErrContract = errors.New("engine contract violation")
)
