package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/errand-service/internal/api/dto"
	"github.com/spec-kit/errand-service/internal/auth"
	"github.com/spec-kit/errand-service/internal/domain"
	"github.com/spec-kit/errand-service/internal/service"
)

// CustomerRequestsHandler serves a customer's own service requests.
// Routes are mounted behind auth.RequireOwner, so the caller is the customer.
type CustomerRequestsHandler struct {
	requests  *service.RequestService
	validator *RequestValidator
}

// NewCustomerRequestsHandler constructs handler.
func NewCustomerRequestsHandler(requests *service.RequestService, validator *RequestValidator) *CustomerRequestsHandler {
	return &CustomerRequestsHandler{requests: requests, validator: validator}
}

// Create handles POST /customers/:customer_id/customer-requests/.
func (h *CustomerRequestsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return domain.ErrUnauthenticated
	}

	var req dto.CreateServiceRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	created, err := h.requests.Create(c.UserContext(), user.ID, service.CreateRequestInput{
		Details: req.Details,
		Tasks:   req.DomainTasks(),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewServiceRequestResponse(*created))
}

// List handles GET /customers/:customer_id/customer-requests/.
func (h *CustomerRequestsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return domain.ErrUnauthenticated
	}

	reqs, err := h.requests.ListForCustomer(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewServiceRequestList(reqs))
}
