package profiles

import "errors"

var (
	ErrNotFound          = errors.New("profile session not found")
	ErrSessionComplete   = errors.New("profile session already complete")
	ErrSessionIncomplete = errors.New("profile session not complete")
	ErrInvalidInput      = errors.New("invalid input")
)
