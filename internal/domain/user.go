package domain

import "time"

// User is the domain model for customers who submit service requests.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  *string
	PasswordHash string
	CreatedAt    time.Time
}
