package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when a removal or query targets a user with no record.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientBalance is returned when a delta would drive a balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidMagnitude is returned when an amount is not a positive integer or
	// would overflow a balance.
	ErrInvalidMagnitude = errors.New("invalid magnitude")
)

// InsufficientBalanceError carries the current balance so the caller can retry
// with an adjusted amount.
type InsufficientBalanceError struct {
	UserID    string
	Name      string
	Balance   int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: %s has %d, cannot remove %d", ErrInsufficientBalance, e.UserID, e.Balance, e.Requested)
}

// Is makes errors.Is(err, ErrInsufficientBalance) match.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
