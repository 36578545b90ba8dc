package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/errand-service/internal/domain"
)

// UserLookup resolves token subjects to users.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Guard resolves bearer tokens to users and enforces ownership.
type Guard struct {
	tokens *TokenManager
	users  UserLookup
}

// NewGuard constructs a Guard.
func NewGuard(tokens *TokenManager, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate returns the user the token was issued to. Missing, invalid
// or expired tokens and subjects that no longer resolve all yield
// domain.ErrUnauthenticated.
func (g *Guard) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	subject, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	user, err := g.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// AuthorizeOwner fails with domain.ErrForbidden unless user owns ownerID.
func (g *Guard) AuthorizeOwner(user *domain.User, ownerID int64) error {
	if user == nil || user.ID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
