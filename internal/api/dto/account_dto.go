package dto

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest payload. PhoneNumber is optional.
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required,notblank"`
	LastName    string `json:"last_name" validate:"required,notblank"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" validate:"required"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
