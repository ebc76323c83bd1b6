package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"storefront_back_end/internal/models"
)

// FirebaseProvider verifies passwords through the Identity Toolkit REST API
// (web API key) and tokens/users through the Admin SDK.
type FirebaseProvider struct {
	Auth    *fbauth.Client
	Toolkit *identitytoolkit.Service
}

func NewFirebaseProvider(ctx context.Context, authClient *fbauth.Client, apiKey string) (*FirebaseProvider, error) {
	if authClient == nil {
		return nil, errors.New("auth: firebase auth client is nil")
	}
	p := &FirebaseProvider{Auth: authClient}
	if apiKey != "" {
		svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("identity toolkit: %w", err)
		}
		p.Toolkit = svc
	}
	return p, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if p.Toolkit == nil {
		return nil, errors.New("auth: password sign-in needs FIREBASE_API_KEY")
	}
	resp, err := p.Toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	return p.Lookup(ctx, resp.LocalId)
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := p.Auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return token.UID, nil
}

func (p *FirebaseProvider) Lookup(ctx context.Context, uid string) (*models.User, error) {
	rec, err := p.Auth.GetUser(ctx, uid)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	u := &models.User{EmailVerified: rec.EmailVerified}
	if rec.UserInfo != nil {
		u.UID = rec.UID
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
	}
	if rec.UserMetadata != nil && rec.UserMetadata.CreationTimestamp > 0 {
		u.CreationTime = time.UnixMilli(rec.UserMetadata.CreationTimestamp).UTC()
	}
	if u.UID == "" {
		u.UID = uid
	}
	return u, nil
}
