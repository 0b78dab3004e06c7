package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tanishk-135/MathMinds-Bot/internal/db"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// MockStore implements the db.Store interface for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertPendingAction(ctx context.Context, a *db.PendingAction) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UpdatePendingActionStatus(ctx context.Context, handleID string, status types.ActionStatus) error {
	return m.Called(ctx, handleID, status).Error(0)
}

func (m *MockStore) ListPendingActions(ctx context.Context) ([]*db.PendingAction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.PendingAction), args.Error(1)
}

func (m *MockStore) MarkPendingActionsLost(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InsertJoiner(ctx context.Context, j *db.Joiner) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockStore) ListJoiners(ctx context.Context) ([]*db.Joiner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*db.Joiner), args.Error(1)
}

func (m *MockStore) DeleteJoinersUpTo(ctx context.Context, maxID int64) error {
	return m.Called(ctx, maxID).Error(0)
}

func (m *MockStore) AppendMessageLog(ctx context.Context, e *db.LogEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
