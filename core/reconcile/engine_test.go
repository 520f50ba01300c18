package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"doubloon-tracker/core/audit"
	"doubloon-tracker/core/ranks"
	"doubloon-tracker/core/reconcile/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMembership keeps role sets in memory so tests can assert on final state.
type fakeMembership struct {
	mu    sync.Mutex
	roles map[string]map[string]struct{}
	calls []string
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{roles: make(map[string]map[string]struct{})}
}

func (f *fakeMembership) AddUserToGroups(ctx context.Context, userID string, groupIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "add")
	if f.roles[userID] == nil {
		f.roles[userID] = make(map[string]struct{})
	}
	for _, id := range groupIDs {
		f.roles[userID][id] = struct{}{}
	}
	return nil
}

func (f *fakeMembership) RemoveUserFromGroups(ctx context.Context, userID string, groupIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "remove")
	for _, id := range groupIDs {
		delete(f.roles[userID], id)
	}
	return nil
}

func (f *fakeMembership) held(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.roles[userID]))
	for id := range f.roles[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

var tierRoles = map[string]string{
	"bronze":   "r1",
	"silver":   "r2",
	"gold":     "r3",
	"platinum": "r4",
}

func newReconciler(t *testing.T, m Membership, d Directory, n Notifier) *Reconciler {
	r, err := New(ranks.MustDefault(), m, d, n, Options{TierRoles: tierRoles}, zap.NewNop(), audit.Nop())
	require.NoError(t, err)
	return r
}

func TestNew_InvalidRoles(t *testing.T) {
	_, err := New(ranks.MustDefault(), newFakeMembership(), nil, nil, Options{TierRoles: map[string]string{"mythic": "r9"}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownRank)

	_, err = New(ranks.MustDefault(), newFakeMembership(), nil, nil, Options{TierRoles: map[string]string{"skull": "r0"}}, nil, nil)
	assert.Error(t, err)
}

func TestRolesFor(t *testing.T) {
	r := newReconciler(t, newFakeMembership(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		rank string
		want []string
	}{
		{"skull", nil},
		{"bronze", []string{"r1"}},
		{"silver", []string{"r1", "r2"}},
		{"platinum", []string{"r1", "r2", "r3", "r4"}},
	}
	for _, tt := range tests {
		t.Run(tt.rank, func(t *testing.T) {
			got, err := r.RolesFor(ctx, tt.rank)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.RolesFor(ctx, "mythic")
	assert.ErrorIs(t, err, ErrUnknownRank)
}

func TestRolesFor_SkipsUnconfiguredTiers(t *testing.T) {
	r, err := New(ranks.MustDefault(), newFakeMembership(), nil, nil, Options{TierRoles: map[string]string{"gold": "r3"}}, nil, nil)
	require.NoError(t, err)

	got, err := r.RolesFor(context.Background(), "platinum")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3"}, got)
}

func TestReconcile_HealsDrift(t *testing.T) {
	m := newFakeMembership()
	r := newReconciler(t, m, nil, nil)
	ctx := context.Background()

	// Drifted state: a stray platinum role and nothing else.
	require.NoError(t, m.AddUserToGroups(ctx, "u1", []string{"r4", "unrelated"}))

	require.NoError(t, r.Reconcile(ctx, "u1", "silver"))
	assert.Equal(t, []string{"r1", "r2", "unrelated"}, m.held("u1"))
}

func TestReconcile_Idempotent(t *testing.T) {
	m := newFakeMembership()
	r := newReconciler(t, m, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.Reconcile(ctx, "u1", "gold"))
	once := m.held("u1")
	require.NoError(t, r.Reconcile(ctx, "u1", "gold"))
	assert.Equal(t, once, m.held("u1"))
	assert.Equal(t, []string{"r1", "r2", "r3"}, once)
}

func TestReconcile_BaseTierClearsRoles(t *testing.T) {
	m := newFakeMembership()
	r := newReconciler(t, m, nil, nil)
	ctx := context.Background()

	require.NoError(t, r.Reconcile(ctx, "u1", "gold"))
	require.NoError(t, r.Reconcile(ctx, "u1", "skull"))
	assert.Empty(t, m.held("u1"))
}

func TestReconcile_RemoveBeforeAdd(t *testing.T) {
	m := newFakeMembership()
	r := newReconciler(t, m, nil, nil)

	require.NoError(t, r.Reconcile(context.Background(), "u1", "bronze"))
	assert.Equal(t, []string{"remove", "add"}, m.calls)
}

func TestReconcile_FailureNotifiesOperator(t *testing.T) {
	m := new(mocks.Membership)
	n := new(mocks.Notifier)
	r := newReconciler(t, m, nil, n)

	m.On("RemoveUserFromGroups", mock.Anything, "u1", []string{"r1", "r2", "r3", "r4"}).
		Return(ErrNoExternalIdentity)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return assert.Contains(t, msg, "not in the server")
	})).Return(nil)

	err := r.Reconcile(context.Background(), "u1", "bronze")
	assert.ErrorIs(t, err, ErrExternalSync)
	assert.ErrorIs(t, err, ErrNoExternalIdentity)
	m.AssertNotCalled(t, "AddUserToGroups", mock.Anything, mock.Anything, mock.Anything)
	n.AssertExpectations(t)
}

func TestReconcile_AddFailure(t *testing.T) {
	m := new(mocks.Membership)
	n := new(mocks.Notifier)
	r := newReconciler(t, m, nil, n)

	m.On("RemoveUserFromGroups", mock.Anything, "u1", mock.Anything).Return(nil)
	m.On("AddUserToGroups", mock.Anything, "u1", []string{"r1"}).Return(errors.New("503 service unavailable"))
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("dm closed"))

	err := r.Reconcile(context.Background(), "u1", "bronze")
	assert.ErrorIs(t, err, ErrExternalSync)
	assert.Contains(t, err.Error(), "503")
}

func TestReconcile_ResolvesRoleNames(t *testing.T) {
	m := newFakeMembership()
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(map[string]string{
		"Bronze": "100",
		"Silver": "200",
	}, nil).Once()

	r, err := New(ranks.MustDefault(), m, d, nil, Options{
		TierRoles: map[string]string{"bronze": "Bronze", "silver": "200"},
		IndexTTL:  time.Hour,
	}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Reconcile(ctx, "u1", "silver"))
	assert.Equal(t, []string{"100", "200"}, m.held("u1"))
	require.NoError(t, r.Reconcile(ctx, "u1", "bronze"))
	assert.Equal(t, []string{"100"}, m.held("u1"))
	d.AssertExpectations(t)
}

func TestReconcile_MissingRoleName(t *testing.T) {
	m := new(mocks.Membership)
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(map[string]string{"Silver": "200"}, nil)

	r, err := New(ranks.MustDefault(), m, d, nil, Options{TierRoles: map[string]string{"bronze": "Bronze"}}, nil, nil)
	require.NoError(t, err)

	err = r.Reconcile(context.Background(), "u1", "bronze")
	assert.ErrorIs(t, err, ErrExternalSync)
	assert.Contains(t, err.Error(), "Bronze")
	m.AssertNotCalled(t, "RemoveUserFromGroups", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildPlan(t *testing.T) {
	r := newReconciler(t, newFakeMembership(), nil, nil)
	plan, err := r.BuildPlan(context.Background(), "u1", "silver")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, plan.Remove)
	assert.Equal(t, []string{"r1", "r2"}, plan.Add)
}
