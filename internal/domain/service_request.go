package domain

import "time"

// RequestStatus represents lifecycle states for a service request.
type RequestStatus string

const (
	RequestStatusPending RequestStatus = "pending"
)

// Task is a single errand step. It has no identity of its own.
type Task struct {
	TaskType    string `json:"task_type"`
	Details     string `json:"details"`
	Description string `json:"description"`
}

// ServiceRequest is an errand submitted by a customer.
type ServiceRequest struct {
	ID         int64
	CustomerID int64
	Details    string
	Tasks      []Task
	CreatedAt  time.Time
	Status     RequestStatus
}
