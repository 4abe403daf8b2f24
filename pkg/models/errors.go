package models

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockAlreadyCompleted is returned when a done block would be mutated.
	ErrBlockAlreadyCompleted = errors.New("block already completed")

	// ErrNotFound is returned when a block number or task id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConfigMismatch is returned when blocks_per_day disagrees with the
	// number of configured slots.
	ErrConfigMismatch = errors.New("configuration mismatch")

	// ErrInvalidTask is returned when a task attribute is out of range.
	ErrInvalidTask = errors.New("invalid task")
)

// BlockCompletedError identifies the block that refused a mutation.
type BlockCompletedError struct {
	Block int
}

func (e *BlockCompletedError) Error() string {
	return fmt.Sprintf("block %d is already completed and cannot be modified", e.Block)
}

func (e *BlockCompletedError) Unwrap() error {
	return ErrBlockAlreadyCompleted
}
