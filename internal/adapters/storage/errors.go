package storage

import (
	"errors"
	"fmt"

	"athletehub-api/internal/apperrors"
)

// Common storage error types
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidKey         = errors.New("invalid storage key")
	ErrInvalidOwner       = errors.New("invalid upload owner")
	ErrStorageUnavailable = errors.New("storage service unavailable")
)

// StorageError represents a storage operation error with additional context
type StorageError struct {
	Op  string // Operation that failed (e.g., "IssueUploadURL", "Store")
	Key string // Storage key involved in the operation
	Err error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s operation failed for key '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s operation failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsNotFound returns true if the error indicates a file was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsInvalidKey returns true if the error was caused by a bad key or owner
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrInvalidOwner)
}

// ToAppError maps a storage error onto the gateway taxonomy
func ToAppError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsInvalidKey(err):
		return apperrors.Wrap(apperrors.ErrInvalidArgument, op, err.Error(), err)
	case IsNotFound(err):
		return apperrors.Wrap(apperrors.ErrNotFound, op, "file not found", err)
	default:
		return apperrors.Upstream(op, err)
	}
}
