package domain

import "errors"

var (
	// ErrValidation marks input that can never become valid by retrying.
	ErrValidation = errors.New("validation error")
)
