package reconcile

import "context"

// Membership is the external grouped-membership system (chat server roles).
type Membership interface {
	// AddUserToGroups grants every group in groupIDs to userID.
	AddUserToGroups(ctx context.Context, userID string, groupIDs []string) error

	// RemoveUserFromGroups revokes every group in groupIDs from userID.
	// Revoking a group the user does not hold is not an error.
	RemoveUserFromGroups(ctx context.Context, userID string, groupIDs []string) error
}

// Directory lists the groups known to the membership system, keyed by name.
type Directory interface {
	ListGroups(ctx context.Context) (map[string]string, error)
}

// Notifier delivers a message to the operator channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
