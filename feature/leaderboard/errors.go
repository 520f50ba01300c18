package leaderboard

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrCooldown is returned when a manual sync is requested too soon after the last one.
	ErrCooldown = errors.New("leaderboard sync on cooldown")

	// ErrExternalSync is returned when the external store could not be read or written.
	ErrExternalSync = errors.New("leaderboard export failed")
)

// CooldownError tells the caller how long to wait before retrying.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: try again in %d seconds", ErrCooldown, e.Seconds())
}

// Is makes errors.Is(err, ErrCooldown) match.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// Seconds returns RetryAfter rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}
