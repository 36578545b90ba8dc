package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/errand-service/internal/api/dto"
	"github.com/spec-kit/errand-service/internal/auth"
	"github.com/spec-kit/errand-service/internal/service"
)

// AccountsHandler exposes login and registration.
type AccountsHandler struct {
	auth      *service.AuthService
	validator *RequestValidator
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(authService *service.AuthService, validator *RequestValidator) *AccountsHandler {
	return &AccountsHandler{auth: authService, validator: validator}
}

// Login handles POST /accounts/login/.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	_, token, _, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

// Register handles POST /accounts/register/.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	_, token, _, err := h.auth.RegisterUser(c.UserContext(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}
