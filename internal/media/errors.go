package media

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a keyword search yields no results.
var ErrNotFound = errors.New("no results found")

// UpstreamError is a failure of an external media service: link metadata,
// search, or stream acquisition.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var _ error = (*UpstreamError)(nil)

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
