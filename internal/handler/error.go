package handler

import (
	"errors"

	"github.com/glizzus/daeha/internal/presenters"
)

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

var _ error = (*UserError)(nil)

var (
	ErrMissingQuery   = &UserError{Message: presenters.MissingQuery}
	ErrNoVoiceChannel = &UserError{Message: presenters.NoVoiceChannel}
	ErrRateLimited    = &UserError{Message: presenters.RateLimited}
)

// userMessage returns the reply for err, if it has one.
func userMessage(err error) (string, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message, true
	}
	return "", false
}
