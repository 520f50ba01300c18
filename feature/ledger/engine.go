package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/utils"
	"doubloon-tracker/feature/ledger/models"

	"go.uber.org/zap"
)

// RankReconciler is told about every committed rank transition.
type RankReconciler interface {
	Reconcile(ctx context.Context, userID, rank string) error
}

// Notifier reaches the operator channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// EngineOptions wires the collaborators of an Engine. Everything but Emojis is optional.
type EngineOptions struct {
	Emojis     map[string]int64
	Reconciler RankReconciler
	Notifier   Notifier
	Dedup      *Deduplicator
}

// Engine applies reactions and admin adjustments to the balance store and
// reacts to rank transitions.
type Engine struct {
	store      *Store
	emojis     map[string]int64
	reconciler RankReconciler
	notifier   Notifier
	dedup      *Deduplicator
	logger     *zap.Logger
	trail      *audit.Trail

	// roleLocks serializes role reconciliation per user.
	roleLocks *keyedMutex
}

// NewEngine creates an Engine over store.
func NewEngine(store *Store, opts EngineOptions, logger *zap.Logger, trail *audit.Trail) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		emojis:     opts.Emojis,
		reconciler: opts.Reconciler,
		notifier:   opts.Notifier,
		dedup:      opts.Dedup,
		logger:     logger,
		trail:      trail,
		roleLocks:  newKeyedMutex(),
	}
}

// Store returns the underlying balance store.
func (e *Engine) Store() *Store {
	return e.store
}

// AwardOrRevoke applies a signed change. Non-negative changes create the user on
// first award; negative changes require an existing record. A change that would
// overdraw the balance is rejected without touching the record.
// On a rank transition the reconciler runs after the commit; its failure does not
// undo the change.
func (e *Engine) AwardOrRevoke(ctx context.Context, c Change) (*Result, error) {
	m, err := e.store.ApplyDelta(ctx, c.UserID, c.Delta, c.DisplayName, c.Delta >= 0)
	if err != nil {
		e.reject(ctx, c, err)
		return nil, err
	}

	res := &Result{
		UserID:     m.UserID,
		Name:       m.Name,
		Delta:      c.Delta,
		OldBalance: m.OldBalance,
		NewBalance: m.NewBalance,
		OldRank:    m.OldRank,
		NewRank:    m.NewRank,
		Source:     c.Source,
	}

	e.trail.Point("%s", pointLine(c, m.Name))
	e.logger.Info("Balance changed",
		zap.String("user_id", m.UserID),
		zap.Int64("delta", c.Delta),
		zap.Int64("balance", m.NewBalance),
		zap.String("source", string(c.Source)))

	if m.RankChanged() {
		res.Transition = &Transition{UserID: m.UserID, OldRank: m.OldRank, NewRank: m.NewRank}
		e.transition(ctx, *res.Transition)
	}
	return res, nil
}

func (e *Engine) transition(ctx context.Context, t Transition) {
	e.logger.Info("Rank changed",
		zap.String("user_id", t.UserID),
		zap.String("from", t.OldRank),
		zap.String("to", t.NewRank))
	e.trail.Point("%s moved from %s to %s", t.UserID, t.OldRank, t.NewRank)

	if e.reconciler == nil {
		return
	}
	e.reconcile(ctx, t.UserID, t.NewRank)
}

// reconcile brings roles in line with the stored rank. Overlapping transitions for
// one user run one at a time and each reads the rank committed last, so the final
// role set matches the final rank whatever order the callers arrive in.
func (e *Engine) reconcile(ctx context.Context, userID, fallback string) {
	e.roleLocks.Lock(userID)
	defer e.roleLocks.Unlock(userID)

	rank := fallback
	if u, err := e.store.Get(ctx, userID); err == nil {
		if u.Rank != "" {
			rank = u.Rank
		}
	} else {
		e.logger.Warn("Stored rank unavailable, using transition target",
			zap.String("user_id", userID), zap.Error(err))
	}

	// The reconciler logs and notifies on its own.
	if err := e.reconciler.Reconcile(ctx, userID, rank); err != nil {
		e.logger.Debug("Rank reconcile deferred", zap.String("user_id", userID), zap.Error(err))
	}
}

func (e *Engine) reject(ctx context.Context, c Change, err error) {
	var insufficient *InsufficientBalanceError
	switch {
	case errors.Is(err, ErrUserNotFound):
		e.trail.Error("Error: User with ID %s does not exist.", c.UserID)
		e.logger.Warn("Change for unknown user", zap.String("user_id", c.UserID), zap.String("source", string(c.Source)))
		if c.Source == SourceReaction {
			e.notify(ctx, fmt.Sprintf("There was a problem removing doubloons from %s %s, they do not exist in the DB.", c.UserID, c.DisplayName))
		}
	case errors.Is(err, ErrInvalidMagnitude):
		e.trail.Error("Error: applying %d to %s would overflow the balance.", c.Delta, c.UserID)
		e.logger.Warn("Change rejected", zap.String("user_id", c.UserID), zap.Int64("delta", c.Delta), zap.Error(err))
	case errors.As(err, &insufficient):
		e.trail.Error("Error: Decreasing doubloons by %d would result in a negative value for user with ID %s %s.", insufficient.Requested, c.UserID, insufficient.Name)
		e.logger.Warn("Change rejected",
			zap.String("user_id", c.UserID),
			zap.Int64("balance", insufficient.Balance),
			zap.Int64("requested", insufficient.Requested))
	default:
		e.trail.Error("Error: applying %d to %s failed: %v", c.Delta, c.UserID, err)
		e.logger.Error("Change failed", zap.String("user_id", c.UserID), zap.Error(err))
	}
}

func (e *Engine) notify(ctx context.Context, msg string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, msg); err != nil {
		e.logger.Warn("Operator notification failed", zap.Error(err))
	}
}

func pointLine(c Change, target string) string {
	actor := c.Actor
	if actor == "" {
		actor = "someone"
	}
	if target == "" {
		target = c.UserID
	}
	manually := ""
	if c.Source == SourceAdmin {
		manually = "manually "
	}
	if c.Delta < 0 {
		return fmt.Sprintf("%s %sremoved %d doubloons from %s", actor, manually, -c.Delta, target)
	}
	return fmt.Sprintf("%s %sadded %d doubloons to %s", actor, manually, c.Delta, target)
}

// Accepts reports whether emoji moves doubloons.
func (e *Engine) Accepts(emoji string) bool {
	_, ok := e.emojis[emoji]
	return ok
}

// HandleReaction applies a reaction event. Unknown emoji and redelivered events
// are ignored and return a nil Result with a nil error. The caller records the
// inbound event in the command history.
func (e *Engine) HandleReaction(ctx context.Context, ev ReactionEvent) (*Result, error) {
	amount, ok := e.emojis[ev.Emoji]
	if !ok {
		e.trail.Error("Invalid reaction %s", ev.Emoji)
		return nil, nil
	}

	key := ev.Key()
	if !e.dedup.Claim(key) {
		e.logger.Info("Duplicate reaction ignored", zap.String("key", key))
		e.trail.Debug("Duplicate reaction ignored: %s", key)
		return nil, nil
	}

	delta := amount
	if ev.Action == ActionRemoved {
		delta = -amount
	}

	res, err := e.AwardOrRevoke(ctx, Change{
		UserID:      ev.AuthorID,
		DisplayName: ev.AuthorName,
		Delta:       delta,
		Source:      SourceReaction,
		Actor:       ev.ReactorName,
	})
	if err != nil {
		e.dedup.Release(key)
		return nil, err
	}
	// Re-adding a reaction after removing it is a new event, not a redelivery.
	e.dedup.Release(ev.Opposite().Key())
	return res, nil
}

// AdminChange is an administrative award or revoke with an unparsed amount.
type AdminChange struct {
	Actor       string
	UserID      string
	DisplayName string
	Magnitude   string
	Revoke      bool
}

// Adjust validates the amount and applies an administrative change.
func (e *Engine) Adjust(ctx context.Context, a AdminChange) (*Result, error) {
	e.trail.Command("%s adjusted %s by %s (revoke=%t)", a.Actor, a.UserID, a.Magnitude, a.Revoke)

	n, ok := utils.ToInt64(a.Magnitude)
	if !ok || n <= 0 {
		e.trail.Error("Error: %q is not a positive amount of doubloons.", a.Magnitude)
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagnitude, a.Magnitude)
	}
	if a.Revoke {
		n = -n
	}
	return e.AwardOrRevoke(ctx, Change{
		UserID:      a.UserID,
		DisplayName: a.DisplayName,
		Delta:       n,
		Source:      SourceAdmin,
		Actor:       a.Actor,
	})
}

// Register creates a user with a zero balance or renames an existing one.
func (e *Engine) Register(ctx context.Context, actor, userID, name string) (*models.User, error) {
	e.trail.Command("%s registered %s as %s", actor, userID, name)
	u, created, err := e.store.Register(ctx, userID, name)
	if err != nil {
		e.trail.Error("Error: registering %s failed: %v", userID, err)
		return nil, err
	}
	e.logger.Info("User registered", zap.String("user_id", userID), zap.String("name", name), zap.Bool("created", created))
	return u, nil
}

// Balance returns the record of userID or ErrUserNotFound.
func (e *Engine) Balance(ctx context.Context, userID string) (*models.User, error) {
	return e.store.Get(ctx, userID)
}

// Top returns up to n users by balance, highest first. n <= 0 returns everyone.
// Ties keep the store's id order.
func (e *Engine) Top(ctx context.Context, n int) ([]models.User, error) {
	users, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	SortByBalance(users)
	if n > 0 && len(users) > n {
		users = users[:n]
	}
	return users, nil
}

// SortByBalance orders users by balance descending, keeping input order for ties.
func SortByBalance(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Balance > users[j].Balance
	})
}

// RepairRanks fixes stored ranks that disagree with the tier table and reconciles
// roles for each repaired user.
func (e *Engine) RepairRanks(ctx context.Context) (int, error) {
	repaired, err := e.store.RepairRanks(ctx)
	for _, m := range repaired {
		e.transition(ctx, Transition{UserID: m.UserID, OldRank: m.OldRank, NewRank: m.NewRank})
	}
	return len(repaired), err
}
