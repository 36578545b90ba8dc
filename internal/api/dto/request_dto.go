package dto

import (
	"time"

	"github.com/spec-kit/errand-service/internal/domain"
)

// TaskPayload is one errand inside a request.
type TaskPayload struct {
	TaskType    string `json:"task_type" validate:"required,notblank"`
	Details     string `json:"details" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
}

// CreateServiceRequest payload.
type CreateServiceRequest struct {
	Details string        `json:"details" validate:"required,notblank"`
	Tasks   []TaskPayload `json:"tasks" validate:"required,min=1,dive"`
}

// DomainTasks converts the payload tasks preserving order.
func (r CreateServiceRequest) DomainTasks() []domain.Task {
	tasks := make([]domain.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		tasks = append(tasks, domain.Task{TaskType: t.TaskType, Details: t.Details, Description: t.Description})
	}
	return tasks
}

// ServiceRequestResponse mirrors a stored request.
type ServiceRequestResponse struct {
	ID         int64                `json:"id"`
	CustomerID int64                `json:"customer_id"`
	Details    string               `json:"details"`
	Tasks      []TaskPayload        `json:"tasks"`
	CreatedAt  time.Time            `json:"created_at"`
	Status     domain.RequestStatus `json:"status"`
}

// NewServiceRequestResponse builds the response body for req.
func NewServiceRequestResponse(req domain.ServiceRequest) ServiceRequestResponse {
	tasks := make([]TaskPayload, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, TaskPayload{TaskType: t.TaskType, Details: t.Details, Description: t.Description})
	}
	return ServiceRequestResponse{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		Details:    req.Details,
		Tasks:      tasks,
		CreatedAt:  req.CreatedAt,
		Status:     req.Status,
	}
}

// NewServiceRequestList builds a list response; never nil.
func NewServiceRequestList(reqs []domain.ServiceRequest) []ServiceRequestResponse {
	out := make([]ServiceRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, NewServiceRequestResponse(req))
	}
	return out
}
