package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/ranks"

	"go.uber.org/zap"
)

// Reconciler makes a member's tier roles match their rank.
type Reconciler struct {
	table      *ranks.Table
	tierRoles  map[string]string
	membership Membership
	index      *RoleIndex
	notifier   Notifier
	logger     *zap.Logger
	trail      *audit.Trail
}

// New creates a Reconciler. directory and notifier may be nil.
func New(table *ranks.Table, membership Membership, directory Directory, notifier Notifier, opts Options, logger *zap.Logger, trail *audit.Trail) (*Reconciler, error) {
	for label := range opts.TierRoles {
		ord, ok := table.Ordinal(label)
		if !ok {
			return nil, fmt.Errorf("%w: role configured for %q", ErrUnknownRank, label)
		}
		if ord == 0 {
			return nil, fmt.Errorf("tier %q is the base tier and cannot carry a role", label)
		}
	}

	r := &Reconciler{
		table:      table,
		tierRoles:  opts.TierRoles,
		membership: membership,
		notifier:   notifier,
		logger:     logger,
		trail:      trail,
	}
	if directory != nil {
		r.index = NewRoleIndex(directory, opts.IndexTTL)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r, nil
}

// resolve maps a tier label to its role ID. ok is false when no role is configured.
func (r *Reconciler) resolve(ctx context.Context, label string) (string, bool, error) {
	ref, ok := r.tierRoles[label]
	if !ok || ref == "" {
		return "", false, nil
	}
	if r.index == nil {
		return ref, true, nil
	}
	id, found, err := r.index.Resolve(ctx, ref)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, fmt.Errorf("role %q for tier %q does not exist", ref, label)
	}
	return id, true, nil
}

// RolesFor returns the role IDs held by a member at rank: one per earned tier
// (tiers 1..ordinal(rank)) that has a role configured.
func (r *Reconciler) RolesFor(ctx context.Context, rank string) ([]string, error) {
	if _, ok := r.table.Ordinal(rank); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRank, rank)
	}
	var ids []string
	for _, label := range r.table.Cumulative(rank) {
		id, ok, err := r.resolve(ctx, label)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// allRoles returns every configured tier role ID in tier order.
func (r *Reconciler) allRoles(ctx context.Context) ([]string, error) {
	labels := make([]string, 0, len(r.tierRoles))
	for label := range r.tierRoles {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		oi, _ := r.table.Ordinal(labels[i])
		oj, _ := r.table.Ordinal(labels[j])
		return oi < oj
	})

	ids := make([]string, 0, len(labels))
	for _, label := range labels {
		id, ok, err := r.resolve(ctx, label)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// BuildPlan computes the membership mutations for userID at rank without applying them.
func (r *Reconciler) BuildPlan(ctx context.Context, userID, rank string) (*Plan, error) {
	add, err := r.RolesFor(ctx, rank)
	if err != nil {
		return nil, err
	}
	remove, err := r.allRoles(ctx)
	if err != nil {
		return nil, err
	}
	return &Plan{UserID: userID, Rank: rank, Remove: remove, Add: add}, nil
}

// Reconcile strips every tier role from userID, then grants the roles for rank.
// Remove-then-add heals any drift in the membership system. Failures are logged,
// written to the error trail and sent to the operator; the returned error wraps
// ErrExternalSync.
func (r *Reconciler) Reconcile(ctx context.Context, userID, rank string) error {
	plan, err := r.BuildPlan(ctx, userID, rank)
	if err != nil {
		if r.index != nil && !errors.Is(err, ErrUnknownRank) {
			// The listing may be stale (role renamed); retry fresh next time.
			r.index.Invalidate()
		}
		return r.fail(ctx, userID, rank, err)
	}

	if len(plan.Remove) > 0 {
		if err := r.membership.RemoveUserFromGroups(ctx, userID, plan.Remove); err != nil {
			return r.fail(ctx, userID, rank, err)
		}
	}
	if len(plan.Add) > 0 {
		if err := r.membership.AddUserToGroups(ctx, userID, plan.Add); err != nil {
			return r.fail(ctx, userID, rank, err)
		}
	}

	r.logger.Info("Roles reconciled",
		zap.String("user_id", userID),
		zap.String("rank", rank),
		zap.Strings("roles", plan.Add))
	r.trail.Debug("Reconciled roles for %s to %s (%d roles)", userID, rank, len(plan.Add))
	return nil
}

func (r *Reconciler) fail(ctx context.Context, userID, rank string, cause error) error {
	err := fmt.Errorf("%w: reconcile %s to %s: %w", ErrExternalSync, userID, rank, cause)

	r.logger.Error("Role reconciliation failed",
		zap.String("user_id", userID),
		zap.String("rank", rank),
		zap.Error(cause))
	r.trail.Error("Error: could not set roles for %s to %s: %v", userID, rank, cause)

	if r.notifier != nil {
		msg := fmt.Sprintf("There was a problem updating the roles of %s to %s: %v", userID, rank, cause)
		if errors.Is(cause, ErrNoExternalIdentity) {
			msg = fmt.Sprintf("Could not update the roles of %s to %s, they are not in the server.", userID, rank)
		}
		if nerr := r.notifier.Notify(ctx, msg); nerr != nil {
			r.logger.Warn("Operator notification failed", zap.Error(nerr))
		}
	}
	return err
}
