package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: artifact not found")
	ErrInvalidID  = errors.New("storage: invalid artifact id")
	ErrIDMismatch = errors.New("storage: artifact id mismatch")
	ErrImmutable  = errors.New("storage: immutable artifact mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
