package service

import "errors"

// Errors returned by Base. Create and update failures wrap their cause, so
// both the sentinel and the underlying driver error match with errors.Is/As.
var (
	ErrModelNotFound     = errors.New("model does not exist")
	ErrCreateFailed      = errors.New("create fail")
	ErrUpdateFailed      = errors.New("update fail")
	ErrMissingPrimaryKey = errors.New("primary key can not empty")
	ErrNoTransaction     = errors.New("no transaction to finish")
)

// PrimaryKeyError reports an update input without its primary key.
// It matches ErrMissingPrimaryKey.
type PrimaryKeyError struct {
	Key string
}

func (e *PrimaryKeyError) Error() string {
	return e.Key + " can not empty"
}

func (e *PrimaryKeyError) Is(target error) bool {
	return target == ErrMissingPrimaryKey
}
