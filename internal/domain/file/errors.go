package file

import "errors"

var (
	ErrNotFound   = errors.New("file not found")
	ErrConflict   = errors.New("cannot delete original file with active references")
	ErrValidation = errors.New("validation failed")
)
