package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Membership is a mock implementation of reconcile.Membership
type Membership struct {
	mock.Mock
}

func (m *Membership) AddUserToGroups(ctx context.Context, userID string, groupIDs []string) error {
	args := m.Called(ctx, userID, groupIDs)
	return args.Error(0)
}

func (m *Membership) RemoveUserFromGroups(ctx context.Context, userID string, groupIDs []string) error {
	args := m.Called(ctx, userID, groupIDs)
	return args.Error(0)
}

// Directory is a mock implementation of reconcile.Directory
type Directory struct {
	mock.Mock
}

func (m *Directory) ListGroups(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if groups, ok := args.Get(0).(map[string]string); ok {
		return groups, args.Error(1)
	}
	return nil, args.Error(1)
}

// Notifier is a mock implementation of reconcile.Notifier
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
