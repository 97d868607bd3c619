package services

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrDeleted      = errors.New("comment deleted")
	ErrInvalidInput = errors.New("invalid input")
)
