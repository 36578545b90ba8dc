package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/errand-service/internal/domain"
	"github.com/spec-kit/errand-service/internal/events"
	"github.com/spec-kit/errand-service/internal/repository"
)

// CreateRequestInput describes a new service request.
type CreateRequestInput struct {
	Details string
	Tasks   []domain.Task
}

// RequestService stores and lists customers' service requests.
type RequestService struct {
	requests   repository.ServiceRequestRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo repository.ServiceRequestRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create stores a pending request for customerID. Callers are expected to
// have authorized the customer already.
func (s *RequestService) Create(ctx context.Context, customerID int64, in CreateRequestInput) (*domain.ServiceRequest, error) {
	tasks := make([]domain.Task, len(in.Tasks))
	copy(tasks, in.Tasks)

	req := &domain.ServiceRequest{
		CustomerID: customerID,
		Details:    in.Details,
		Tasks:      tasks,
		Status:     domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		taskTypes := make([]string, 0, len(tasks))
		for _, task := range tasks {
			taskTypes = append(taskTypes, task.TaskType)
		}
		event := events.NewEvent(events.EventRequestCreated, customerID, events.RequestCreatedPayload{
			RequestID: req.ID,
			Status:    req.Status,
			TaskTypes: taskTypes,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handlers failed",
				zap.String("event_type", string(event.Type)),
				zap.Int64("request_id", req.ID),
				zap.Error(err))
		}
	}
	return req, nil
}

// ListForCustomer returns the customer's requests in creation order.
func (s *RequestService) ListForCustomer(ctx context.Context, customerID int64) ([]domain.ServiceRequest, error) {
	return s.requests.ListByCustomer(ctx, customerID)
}
