package reconcile

import (
	"errors"
	"time"
)

var (
	// ErrExternalSync wraps every failure talking to the membership system.
	ErrExternalSync = errors.New("external sync failure")

	// ErrNoExternalIdentity means the user has no account in the membership
	// system (e.g. they left the server).
	ErrNoExternalIdentity = errors.New("user has no external identity")

	// ErrUnknownRank is returned when the target rank is not in the tier table.
	ErrUnknownRank = errors.New("unknown rank")
)

// Plan is the set of membership mutations for one reconciliation.
// Remove always lists every configured tier role; Add lists the cumulative
// roles for the target rank.
type Plan struct {
	// UserID is the member being reconciled.
	UserID string `json:"user_id"`

	// Rank is the target rank label.
	Rank string `json:"rank"`

	// Remove holds every configured tier role ID.
	Remove []string `json:"remove"`

	// Add holds the role IDs for tiers 1..ordinal(Rank).
	Add []string `json:"add"`
}

// Options configures a Reconciler.
type Options struct {
	// TierRoles maps a tier label to a role reference: either a role ID or,
	// when a Directory is supplied, a role name.
	TierRoles map[string]string

	// IndexTTL is how long a Directory listing is reused. Zero disables caching.
	IndexTTL time.Duration
}
