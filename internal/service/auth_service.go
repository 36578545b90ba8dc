package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/errand-service/internal/auth"
	"github.com/spec-kit/errand-service/internal/config"
	"github.com/spec-kit/errand-service/internal/domain"
	"github.com/spec-kit/errand-service/internal/events"
	"github.com/spec-kit/errand-service/internal/repository"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Password    string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    deps.UserRepo,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		hasher: auth.NewPasswordHasher(auth.PasswordParams{
			Time:    cfg.Argon2Time,
			Memory:  cfg.Argon2MemoryKB,
			Threads: cfg.Argon2Threads,
		}),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Register creates a new account. It returns domain.ErrDuplicateEmail when
// the email is taken; the store's unique index settles concurrent attempts.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: hash,
	}
	if in.PhoneNumber != "" {
		phone := in.PhoneNumber
		user.PhoneNumber = &phone
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the user when password matches. An unknown email
// and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Burn(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMalformedHash) {
			s.logger.Error("stored password hash unreadable", zap.Int64("user_id", user.ID))
		}
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterUser registers an account and issues its first access token.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*domain.User, string, time.Time, error) {
	user, err := s.Register(ctx, in)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.Issue(user.Email, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}))
	return user, token, exp, nil
}

// LoginUser authenticates a user and issues an access token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.Issue(user.Email, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// normalizeEmail trims the address and lowercases its domain part. The
// local part is case-sensitive and kept as given.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
