package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/errand-service/internal/api/dto"
	httpapi "github.com/spec-kit/errand-service/internal/api/http"
	"github.com/spec-kit/errand-service/internal/config"
	"github.com/spec-kit/errand-service/internal/events"
	"github.com/spec-kit/errand-service/internal/observability"
	"github.com/spec-kit/errand-service/internal/persistence"
	"github.com/spec-kit/errand-service/internal/repository"
	"github.com/spec-kit/errand-service/internal/service"
)

type testEnv struct {
	app     *fiber.App
	metrics *observability.Metrics
	events  []events.Event
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := persistence.NewSQLite(ctx, config.SQLiteConfig{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persistence.RunSQLiteMigrations(ctx, db.DB, logger))

	users := repository.NewSQLiteUserRepository(db.DB)
	requests := repository.NewSQLiteServiceRequestRepository(db.DB)

	env := &testEnv{metrics: observability.NewMetrics()}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		env.events = append(env.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventUserRegistered, record)
	dispatcher.Subscribe(events.EventRequestCreated, record)

	authCfg := config.AuthConfig{
		JWTSecret:             "test_jwt_secret",
		AccessTokenTTLMinutes: 30,
		Argon2Time:            1,
		Argon2MemoryKB:        64,
		Argon2Threads:         1,
	}

	env.app = httpapi.NewApp(httpapi.AppDependencies{
		Name:        "errand-service",
		Version:     "test",
		CORSOrigins: "*",
		Logger:      logger,
		Metrics:     env.metrics,
		Users:       users,
		AuthService: service.NewAuthService(authCfg, service.AuthDependencies{UserRepo: users, Dispatcher: dispatcher}),
		Requests:    service.NewRequestService(service.RequestDependencies{RequestRepo: requests, Dispatcher: dispatcher}),
		Database:    db,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) register(t *testing.T, first, email, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"first_name":   first,
		"last_name":    "Smith",
		"email":        email,
		"phone_number": "555-0100",
		"password":     password,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	return decodeToken(t, body)
}

func decodeToken(t *testing.T, body []byte) string {
	t.Helper()
	var tok dto.TokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

var aliceRequest = fiber.Map{
	"details": "weekly errands",
	"tasks": []fiber.Map{
		{"task_type": "groceries", "details": "milk", "description": "2L"},
		{"task_type": "pharmacy", "details": "refill", "description": "pick up prescription"},
	},
}

func TestCustomerRequestLifecycle(t *testing.T) {
	env := setupApp(t)

	t1 := env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodPost, "/api/v1/accounts/login/", "", fiber.Map{
		"email": "alice@example.com", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	t2 := decodeToken(t, body)
	assert.NotEqual(t, t1, t2)

	status, body = env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", t1, aliceRequest)
	require.Equal(t, http.StatusOK, status, string(body))
	var created dto.ServiceRequestResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(1), created.CustomerID)
	assert.Equal(t, "pending", string(created.Status))
	assert.False(t, created.CreatedAt.IsZero())

	status, body = env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", t2, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var list []dto.ServiceRequestResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "weekly errands", list[0].Details)
	assert.Equal(t, []dto.TaskPayload{
		{TaskType: "groceries", Details: "milk", Description: "2L"},
		{TaskType: "pharmacy", Details: "refill", Description: "pick up prescription"},
	}, list[0].Tasks)

	require.Len(t, env.events, 2)
	assert.Equal(t, events.EventUserRegistered, env.events[0].Type)
	assert.Equal(t, events.EventRequestCreated, env.events[1].Type)
}

func TestRoutesWithoutTrailingSlash(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `[]`, string(body))
}

func TestTokenQueryParameter(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, status, string(body))
}

func TestOwnershipEnforced(t *testing.T) {
	env := setupApp(t)
	env.register(t, "Alice", "alice@example.com", "pw123")
	bob := env.register(t, "Bob", "bob@example.com", "hunter2")

	status, body := env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Error.Code)

	status, _ = env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", bob, aliceRequest)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/customers/abc/customer-requests/", bob, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, body).Error.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	errBody := decodeError(t, body)
	assert.Equal(t, "UNAUTHORIZED", errBody.Error.Code)
	assert.Equal(t, "Not authenticated", errBody.Detail)

	status, _ = env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", "garbage", aliceRequest)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupApp(t)
	env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"first_name": "Mallory", "last_name": "M", "email": "alice@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := decodeError(t, body)
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", errBody.Error.Code)
	assert.Equal(t, "Email already registered", errBody.Detail)

	// alice's password is unchanged
	status, _ = env.do(t, http.MethodPost, "/api/v1/accounts/login/", "", fiber.Map{
		"email": "alice@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestRegisterValidation(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"first_name": "Alice", "last_name": "Smith", "email": "not-an-email", "password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	errBody := decodeError(t, body)
	assert.Equal(t, "VALIDATION_FAILED", errBody.Error.Code)
	assert.Contains(t, errBody.Error.Details, "email")

	status, body = env.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"email": "alice@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	errBody = decodeError(t, body)
	assert.Contains(t, errBody.Error.Details, "first_name")
	assert.Contains(t, errBody.Error.Details, "last_name")
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := setupApp(t)
	env.register(t, "Alice", "alice@example.com", "pw123")

	status, wrongPassword := env.do(t, http.MethodPost, "/api/v1/accounts/login/", "", fiber.Map{
		"email": "alice@example.com", "password": "pw124",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, unknownEmail := env.do(t, http.MethodPost, "/api/v1/accounts/login/", "", fiber.Map{
		"email": "nobody@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, string(wrongPassword), string(unknownEmail))
	assert.Equal(t, "Invalid email or password", decodeError(t, unknownEmail).Detail)
}

func TestCreateRequestValidation(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Alice", "alice@example.com", "pw123")

	cases := map[string]fiber.Map{
		"no tasks":      {"details": "d", "tasks": []fiber.Map{}},
		"missing tasks": {"details": "d"},
		"no details":    {"tasks": []fiber.Map{{"task_type": "a", "details": "b", "description": "c"}}},
		"task field":    {"details": "d", "tasks": []fiber.Map{{"task_type": "a", "details": "b"}}},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", token, payload)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
			assert.Equal(t, "VALIDATION_FAILED", decodeError(t, body).Error.Code)
		})
	}

	status, body := env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", token, fiber.Map{
		"details": "d", "tasks": []fiber.Map{{"task_type": "a", "details": "b"}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, body).Error.Details, "tasks[0].description")

	status, body = env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestMalformedJSON(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/login/", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","message":"Errand Management API is running"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"alive","service":"errand-service","version":"test"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready","dependencies":{"database":"ok"}}`, string(body))
}

func TestUnknownRoute(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Error.Code)

	snap := env.metrics.Snapshot()
	assert.NotEmpty(t, snap.Errors)
}

func TestRegisterDuplicateEmailDomainCase(t *testing.T) {
	env := setupApp(t)
	env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"first_name": "Alice", "last_name": "Smith", "email": "alice@EXAMPLE.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Equal(t, "EMAIL_ALREADY_REGISTERED", decodeError(t, body).Error.Code)

	// login with the upper-case domain reaches the same account
	status, body = env.do(t, http.MethodPost, "/api/v1/accounts/login/", "", fiber.Map{
		"email": "alice@Example.com", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	token := decodeToken(t, body)

	status, _ = env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateRequestKeepsWhitespace(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Alice", "alice@example.com", "pw123")

	status, body := env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", token, fiber.Map{
		"details": "  padded  ",
		"tasks":   []fiber.Map{{"task_type": "groceries", "details": " milk", "description": "2L "}},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodGet, "/api/v1/customers/1/customer-requests/", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []dto.ServiceRequestResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "  padded  ", list[0].Details)
	assert.Equal(t, []dto.TaskPayload{{TaskType: "groceries", Details: " milk", Description: "2L "}}, list[0].Tasks)
}

func TestBlankFieldsRejected(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/accounts/register/", "", fiber.Map{
		"first_name": "   ", "last_name": "Smith", "email": "alice@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decodeError(t, body).Error.Details, "first_name")

	token := env.register(t, "Alice", "alice@example.com", "pw123")
	status, body = env.do(t, http.MethodPost, "/api/v1/customers/1/customer-requests/", token, fiber.Map{
		"details": "   ",
		"tasks":   []fiber.Map{{"task_type": "a", "details": "b", "description": "\t"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	details := decodeError(t, body).Error.Details
	assert.Contains(t, details, "details")
	assert.Contains(t, details, "tasks[0].description")
}

func TestUnknownCustomerSubpath(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/customers/1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status, string(body))
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Error.Code)
}
