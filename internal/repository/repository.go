package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spec-kit/errand-service/internal/domain"
)

// UserRepository defines persistence access for users.
//
// Create must return domain.ErrDuplicateEmail when the email is already
// taken; lookups return domain.ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ServiceRequestRepository persists service requests. Requests are
// append-only; ListByCustomer returns them in insertion order.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.ServiceRequest, error)
}

func encodeTasks(tasks []domain.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return raw, nil
}

func decodeTasks(raw []byte) ([]domain.Task, error) {
	tasks := []domain.Task{}
	if len(raw) == 0 {
		return tasks, nil
	}
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

var (
	_ UserRepository           = (*SQLiteUserRepository)(nil)
	_ ServiceRequestRepository = (*SQLiteServiceRequestRepository)(nil)
)
