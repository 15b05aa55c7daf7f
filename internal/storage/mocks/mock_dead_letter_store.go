package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/courier/internal/storage"
)

// MockDeadLetterStore is a mock implementation of storage.DeadLetterStore.
type MockDeadLetterStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockDeadLetterStore) CreateDeadLetter(ctx context.Context, dl *storage.DeadLetter) error {
	args := m.Called(ctx, dl)
	return args.Error(0)
}

//nolint:revive
func (m *MockDeadLetterStore) GetDeadLetter(ctx context.Context, id string) (*storage.DeadLetter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.DeadLetter), args.Error(1)
}

//nolint:revive
func (m *MockDeadLetterStore) ListDeadLetters(ctx context.Context, limit int) ([]*storage.DeadLetter, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.DeadLetter), args.Error(1)
}

//nolint:revive
func (m *MockDeadLetterStore) DeleteDeadLetter(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
