package scaffold

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("scaffold: aborted")
	// ErrEmptySample is returned when a sample holds no object to infer
	// from.
	ErrEmptySample = errors.New("scaffold: sample has no objects")
	// ErrNotObject is returned when the sampled objects are not JSON
	// objects.
	ErrNotObject = errors.New("scaffold: sample is not an object or a list of objects")
)
