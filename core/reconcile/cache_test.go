package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"doubloon-tracker/core/reconcile/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRoleIndex_Resolve(t *testing.T) {
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(map[string]string{"Bronze": "100"}, nil).Once()

	x := NewRoleIndex(d, time.Minute)
	ctx := context.Background()

	id, ok, err := x.Resolve(ctx, "Bronze")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100", id)

	id, ok, err = x.Resolve(ctx, "100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "100", id)

	_, ok, err = x.Resolve(ctx, "Gold")
	require.NoError(t, err)
	assert.False(t, ok)

	d.AssertNumberOfCalls(t, "ListGroups", 1)
}

func TestRoleIndex_Expiry(t *testing.T) {
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(map[string]string{"Bronze": "100"}, nil)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	x := NewRoleIndex(d, time.Minute)
	x.now = func() time.Time { return now }

	ctx := context.Background()
	_, _, err := x.Resolve(ctx, "Bronze")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, _, err = x.Resolve(ctx, "Bronze")
	require.NoError(t, err)
	d.AssertNumberOfCalls(t, "ListGroups", 1)

	now = now.Add(2 * time.Minute)
	_, _, err = x.Resolve(ctx, "Bronze")
	require.NoError(t, err)
	d.AssertNumberOfCalls(t, "ListGroups", 2)

	x.Invalidate()
	_, _, err = x.Resolve(ctx, "Bronze")
	require.NoError(t, err)
	d.AssertNumberOfCalls(t, "ListGroups", 3)
}

func TestRoleIndex_Error(t *testing.T) {
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(nil, errors.New("gateway timeout"))

	_, _, err := NewRoleIndex(d, time.Minute).Resolve(context.Background(), "Bronze")
	assert.Error(t, err)
}

func TestRoleIndex_ConcurrentLoad(t *testing.T) {
	d := new(mocks.Directory)
	d.On("ListGroups", mock.Anything).Return(map[string]string{"Bronze": "100"}, nil)

	x := NewRoleIndex(d, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, ok, err := x.Resolve(context.Background(), "Bronze")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "100", id)
		}()
	}
	wg.Wait()

	// Singleflight plus the TTL keep the listing to a handful of calls at most.
	assert.LessOrEqual(t, len(d.Calls), 20)
	assert.GreaterOrEqual(t, len(d.Calls), 1)
}
