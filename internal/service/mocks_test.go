package service

import (
	"context"

	"github.com/avelsk/tutor-gateway/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockSessionAPI mocks the SessionAPI interface
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) CreateSession(ctx context.Context, token string, input domain.SessionCreate) (*domain.ChatSession, error) {
	args := m.Called(ctx, token, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionAPI) ListSessions(ctx context.Context, token string, limit, offset int) (*domain.SessionList, error) {
	args := m.Called(ctx, token, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionList), args.Error(1)
}

func (m *MockSessionAPI) GetSession(ctx context.Context, token, id string) (*domain.SessionDetail, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionDetail), args.Error(1)
}

func (m *MockSessionAPI) UpdateSession(ctx context.Context, token, id string, input domain.SessionUpdate) (*domain.ChatSession, error) {
	args := m.Called(ctx, token, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockSessionAPI) DeleteSession(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}
