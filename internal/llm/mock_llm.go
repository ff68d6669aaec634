package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
// Stream feeds every string in the "snapshots" argument slot to onSnapshot.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Stream(ctx context.Context, req Request, onSnapshot SnapshotFunc) (Response, error) {
	args := m.Called(ctx, req)
	if snaps, ok := args.Get(1).([]string); ok {
		for _, s := range snaps {
			if err := onSnapshot(s); err != nil {
				return args.Get(0).(Response), err
			}
		}
	}
	return args.Get(0).(Response), args.Error(2)
}

func (m *MockClient) Models(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
