package store

import "errors"

var (
	ErrConflict  = errors.New("booking conflict")
	ErrDuplicate = errors.New("duplicate external booking")
	ErrNotFound  = errors.New("not found")
)
