package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("entry not found")
	ErrDuplicateID    = errors.New("entry id already exists")
	ErrSnapshotExists = errors.New("snapshot for month already exists")
)

// PersistenceError describes a failed read or write of a stored document.
// It is logged, never returned to callers of the store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
