package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of sheets.Store
type Store struct {
	mock.Mock
}

func (m *Store) ClearRegion(ctx context.Context, sheet, rng string) error {
	args := m.Called(ctx, sheet, rng)
	return args.Error(0)
}

func (m *Store) WriteRegion(ctx context.Context, sheet, rng string, rows [][]string) error {
	args := m.Called(ctx, sheet, rng, rows)
	return args.Error(0)
}

func (m *Store) LastModified(ctx context.Context, sheet string) (time.Time, error) {
	args := m.Called(ctx, sheet)
	return args.Get(0).(time.Time), args.Error(1)
}
