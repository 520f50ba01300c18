// Package reconcile keeps external tier roles in line with ledger ranks.
//
// Given a member and a target rank, the Reconciler computes the cumulative role set
// (one role per earned tier above the base tier), removes every configured tier role
// and then adds the computed set. Removing before adding is deliberate: whatever state
// the membership system drifted into, one call restores it, and calling twice is the
// same as calling once.
//
// # Components
//
//   - Membership: the external system that grants and revokes roles.
//   - Directory: optional role listing so configuration can name roles instead of
//     hard-coding IDs.
//   - RoleIndex: TTL cache over the Directory listing with singleflight stampede
//     protection.
//   - Notifier: operator channel for failures.
//
// Failures never undo a ledger change. They are logged, written to the error trail,
// reported to the operator and returned wrapped in ErrExternalSync.
//
// # Usage
//
//	r, err := reconcile.New(table, members, directory, notifier, reconcile.Options{
//	    TierRoles: map[string]string{"bronze": "Bronze", "silver": "Silver"},
//	    IndexTTL:  10 * time.Minute,
//	}, logger, trail)
//	err = r.Reconcile(ctx, userID, "silver")
package reconcile
