package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/courier/internal/storage"
)

// MockPreferenceStore is a mock implementation of storage.PreferenceStore.
type MockPreferenceStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockPreferenceStore) GetPreference(ctx context.Context, userID int64) (*storage.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.NotificationPreference), args.Error(1)
}
