package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/reconcile/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingReconciler struct {
	mu    sync.Mutex
	calls []Transition
	err   error
}

func (r *recordingReconciler) Reconcile(ctx context.Context, userID, rank string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Transition{UserID: userID, NewRank: rank})
	return r.err
}

func (r *recordingReconciler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// gatedReconciler holds the first call until gate is closed and tracks the
// rank whose roles the user would hold afterwards.
type gatedReconciler struct {
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	ranks []string
}

func newGatedReconciler() *gatedReconciler {
	return &gatedReconciler{entered: make(chan struct{}), gate: make(chan struct{})}
}

func (g *gatedReconciler) Reconcile(ctx context.Context, userID, rank string) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ranks = append(g.ranks, rank)
	return nil
}

func (g *gatedReconciler) applied() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.ranks...)
}

var testEmojis = map[string]int64{"☑️": 10, "✅": 3}

func newTestEngine(t *testing.T, rec RankReconciler, n Notifier) *Engine {
	t.Helper()
	return NewEngine(newTestStore(t), EngineOptions{
		Emojis:     testEmojis,
		Reconciler: rec,
		Notifier:   n,
		Dedup:      NewDeduplicator(100, time.Hour),
	}, zap.NewNop(), audit.Nop())
}

func reaction(msg, emoji string, action Action) ReactionEvent {
	return ReactionEvent{
		ChannelID:   "c1",
		MessageID:   msg,
		ReactorID:   "mod",
		ReactorName: "Moderator",
		AuthorID:    "u1",
		AuthorName:  "Alice",
		Emoji:       emoji,
		Action:      action,
	}
}

func TestEngine_AwardThenCrossTier(t *testing.T) {
	rec := &recordingReconciler{}
	e := newTestEngine(t, rec, nil)
	ctx := context.Background()

	res, err := e.AwardOrRevoke(ctx, Change{UserID: "u1", DisplayName: "Alice", Delta: 10, Source: SourceReaction})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.NewBalance)
	assert.Equal(t, "skull", res.NewRank)
	assert.Nil(t, res.Transition)
	assert.Equal(t, 0, rec.count())

	res, err = e.AwardOrRevoke(ctx, Change{UserID: "u1", Delta: 95, Source: SourceAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(105), res.NewBalance)
	require.NotNil(t, res.Transition)
	assert.Equal(t, "skull", res.Transition.OldRank)
	assert.Equal(t, "bronze", res.Transition.NewRank)
	assert.Equal(t, 1, rec.count())
}

func TestEngine_OverlappingTransitionsEndOnStoredRank(t *testing.T) {
	rec := newGatedReconciler()
	e := newTestEngine(t, rec, nil)
	ctx := context.Background()

	_, err := e.AwardOrRevoke(ctx, Change{UserID: "u1", Delta: 95, Source: SourceAdmin})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := e.AwardOrRevoke(ctx, Change{UserID: "u1", Delta: 10, Source: SourceAdmin})
		assert.NoError(t, err)
	}()
	<-rec.entered

	go func() {
		defer wg.Done()
		_, err := e.AwardOrRevoke(ctx, Change{UserID: "u1", Delta: -10, Source: SourceAdmin})
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool {
		u, err := e.Balance(ctx, "u1")
		return err == nil && u.Balance == 95
	}, 5*time.Second, 10*time.Millisecond)

	close(rec.gate)
	wg.Wait()

	u, err := e.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "skull", u.Rank)
	assert.Equal(t, []string{"bronze", "skull"}, rec.applied())
}

func TestEngine_RevokeRejected(t *testing.T) {
	rec := &recordingReconciler{}
	e := newTestEngine(t, rec, nil)
	ctx := context.Background()

	_, err := e.AwardOrRevoke(ctx, Change{UserID: "u1", DisplayName: "Alice", Delta: 30, Source: SourceAdmin})
	require.NoError(t, err)

	_, err = e.AwardOrRevoke(ctx, Change{UserID: "u1", Delta: -50, Source: SourceAdmin})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	u, err := e.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), u.Balance)
	assert.Equal(t, 0, rec.count())
}

func TestEngine_ReconcileFailureKeepsChange(t *testing.T) {
	rec := &recordingReconciler{err: errors.New("discord down")}
	e := newTestEngine(t, rec, nil)

	res, err := e.AwardOrRevoke(context.Background(), Change{UserID: "u1", Delta: 500, Source: SourceAdmin})
	require.NoError(t, err)
	assert.Equal(t, "silver", res.NewRank)

	u, err := e.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), u.Balance)
}

func TestEngine_HandleReaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Added And Removed", func(t *testing.T) {
		e := newTestEngine(t, nil, nil)
		res, err := e.HandleReaction(ctx, reaction("m1", "☑️", ActionAdded))
		require.NoError(t, err)
		assert.Equal(t, int64(10), res.NewBalance)
		assert.Equal(t, "Alice", res.Name)

		res, err = e.HandleReaction(ctx, reaction("m1", "☑️", ActionRemoved))
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.NewBalance)
	})

	t.Run("Unknown Emoji Ignored", func(t *testing.T) {
		e := newTestEngine(t, nil, nil)
		res, err := e.HandleReaction(ctx, reaction("m1", "🎉", ActionAdded))
		assert.NoError(t, err)
		assert.Nil(t, res)

		_, err = e.Balance(ctx, "u1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Redelivery Applied Once", func(t *testing.T) {
		e := newTestEngine(t, nil, nil)
		ev := reaction("m1", "✅", ActionAdded)
		_, err := e.HandleReaction(ctx, ev)
		require.NoError(t, err)
		res, err := e.HandleReaction(ctx, ev)
		assert.NoError(t, err)
		assert.Nil(t, res)

		u, err := e.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.Balance)
	})

	t.Run("Re-add After Remove", func(t *testing.T) {
		e := newTestEngine(t, nil, nil)
		for _, a := range []Action{ActionAdded, ActionRemoved, ActionAdded} {
			_, err := e.HandleReaction(ctx, reaction("m1", "☑️", a))
			require.NoError(t, err)
		}
		u, err := e.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(10), u.Balance)
	})

	t.Run("Removal From Absent User Notifies Operator", func(t *testing.T) {
		n := new(mocks.Notifier)
		n.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
			return assert.Contains(t, msg, "do not exist")
		})).Return(nil)
		e := newTestEngine(t, nil, n)

		ev := reaction("m1", "☑️", ActionRemoved)
		_, err := e.HandleReaction(ctx, ev)
		assert.ErrorIs(t, err, ErrUserNotFound)
		n.AssertExpectations(t)

		// A failed event is released so a retry is not mistaken for a duplicate.
		assert.True(t, e.dedup.Claim(ev.Key()))
	})
}

func TestEngine_Adjust(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	ctx := context.Background()

	_, err := e.Adjust(ctx, AdminChange{Actor: "admin", UserID: "u1", Magnitude: "ten"})
	assert.ErrorIs(t, err, ErrInvalidMagnitude)

	res, err := e.Adjust(ctx, AdminChange{Actor: "admin", UserID: "u1", DisplayName: "Alice", Magnitude: "40"})
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.NewBalance)

	res, err = e.Adjust(ctx, AdminChange{Actor: "admin", UserID: "u1", Magnitude: "15", Revoke: true})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.NewBalance)

	_, err = e.Adjust(ctx, AdminChange{Actor: "admin", UserID: "nobody", Magnitude: "1", Revoke: true})
	assert.ErrorIs(t, err, ErrUserNotFound)

	for _, magnitude := range []string{"0", "-5"} {
		for _, revoke := range []bool{false, true} {
			_, err = e.Adjust(ctx, AdminChange{Actor: "admin", UserID: "ghost", Magnitude: magnitude, Revoke: revoke})
			assert.ErrorIs(t, err, ErrInvalidMagnitude, "magnitude %s revoke %t", magnitude, revoke)
		}
	}
	_, err = e.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, err := e.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), u.Balance)
}

func TestEngine_Top(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	ctx := context.Background()

	for id, amount := range map[string]int64{"A": 50, "B": 200, "C": 50} {
		_, err := e.AwardOrRevoke(ctx, Change{UserID: id, DisplayName: id, Delta: amount, Source: SourceAdmin})
		require.NoError(t, err)
	}

	users, err := e.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "B", users[0].ID)
	assert.Equal(t, "A", users[1].ID)
	assert.Equal(t, "C", users[2].ID)

	users, err = e.Top(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEngine_Register(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	ctx := context.Background()

	u, err := e.Register(ctx, "admin", "u1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "skull", u.Rank)

	u, err = e.Register(ctx, "admin", "u1", "Alicia")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.Name)
}
