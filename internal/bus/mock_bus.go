package bus

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBus is a mock implementation of Bus using testify/mock.
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, snap Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockBus) Follow(ctx context.Context, streamID uuid.UUID, handler Handler) error {
	args := m.Called(ctx, streamID, handler)
	return args.Error(0)
}
