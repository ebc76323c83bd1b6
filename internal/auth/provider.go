// Package auth is the identity adapter: it signs users in against the
// hosted provider and keeps one session, with its cart mirror, per sign-in.
package auth

import (
	"context"
	"errors"

	"storefront_back_end/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// Provider is the hosted identity service.
type Provider interface {
	// SignIn checks an email/password pair.
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	// VerifyIDToken checks a provider-issued ID token and returns its uid.
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
	Lookup(ctx context.Context, uid string) (*models.User, error)
}
