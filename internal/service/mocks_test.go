package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/errand-service/internal/domain"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockServiceRequestRepository is a mock implementation of repository.ServiceRequestRepository.
type MockServiceRequestRepository struct {
	mock.Mock
}

func (m *MockServiceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockServiceRequestRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.ServiceRequest, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceRequest), args.Error(1)
}

// MockPublisher is a mock implementation of service.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, body []byte) error {
	args := m.Called(ctx, eventType, body)
	return args.Error(0)
}
