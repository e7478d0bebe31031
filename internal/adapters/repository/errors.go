package repository

import "errors"

// ErrNotFound reports a projection id with no cached chart.
var ErrNotFound = errors.New("projection not found")
