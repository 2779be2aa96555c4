package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyRedeemed      = errors.New("voucher already redeemed")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrCodeSpaceExhausted   = errors.New("could not generate a unique voucher code")
)

// StorageError reports that the durable medium could not be read or written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err was caused by the durable medium.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
