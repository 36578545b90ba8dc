package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/errand-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventRequestCreated EventType = "request_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CustomerID int64       `json:"customer_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, customerID int64, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CustomerID: customerID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// UserRegisteredPayload payload. The email is the login identifier.
type UserRegisteredPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	RequestID int64                `json:"request_id"`
	Status    domain.RequestStatus `json:"status"`
	TaskTypes []string             `json:"task_types"`
}
