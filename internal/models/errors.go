package models

import "errors"

var (
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("token mismatch")
	ErrNotFound   = errors.New("file not found")
	ErrExists     = errors.New("file already exists")
	ErrTooLarge   = errors.New("upload too large")
)
