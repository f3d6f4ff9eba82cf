package artifacts

import "errors"

var (
	// ErrNotFound indicates no artifact exists for the key or job.
	ErrNotFound = errors.New("artifact not found")

	// ErrUnavailable indicates the storage layer failed. Fatal for the
	// request but never poisons other keys.
	ErrUnavailable = errors.New("artifact storage unavailable")
)
