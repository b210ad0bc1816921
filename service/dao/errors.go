package dao

import "errors"

// Errors shared by every record store.
var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("record id is empty")
	ErrNilEntity = errors.New("record is nil")
)
