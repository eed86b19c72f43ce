package roadmaps

import "errors"

var (
	ErrNotFound           = errors.New("roadmap not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedVersion = errors.New("unsupported roadmap schema version")
)
