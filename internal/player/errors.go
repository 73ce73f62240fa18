package player

import "errors"

var (
	ErrNothingToSkip = errors.New("nothing to skip")
	ErrNothingToStop = errors.New("nothing to stop")
	ErrRendering     = errors.New("render session is already playing")
)
