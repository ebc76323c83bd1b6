package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/models"
)

// Session is one signed-in user with its cart mirror.
type Session struct {
	ID        string
	User      models.User
	Cart      *cart.Synchronizer
	ExpiresAt time.Time
}

// SessionResolver maps a session token to its live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// CartFactory builds the cart mirror of a new session.
type CartFactory func(userID string) *cart.Synchronizer

// Manager issues session tokens and owns the session registry.
type Manager struct {
	provider Provider
	secret   []byte
	ttl      time.Duration
	redis    *cache.Redis
	newCart  CartFactory

	mu       sync.Mutex
	sessions map[string]*Session
	// revoked mirrors the Redis blacklist so sign-out holds without Redis
	revoked map[string]time.Time

	now func() time.Time
}

func NewManager(p Provider, secret []byte, ttl time.Duration, r *cache.Redis, newCart CartFactory) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		provider: p,
		secret:   secret,
		ttl:      ttl,
		redis:    r,
		newCart:  newCart,
		sessions: map[string]*Session{},
		revoked:  map[string]time.Time{},
		now:      time.Now,
	}
}

// SignIn checks email/password with the provider and opens a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, string, error) {
	user, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	return m.open(ctx, *user)
}

// Exchange turns a provider ID token (e.g. after a federated sign-in on the
// client) into a session.
func (m *Manager) Exchange(ctx context.Context, idToken string) (*Session, string, error) {
	uid, err := m.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, "", err
	}
	user, err := m.provider.Lookup(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	return m.open(ctx, *user)
}

func (m *Manager) open(ctx context.Context, user models.User) (*Session, string, error) {
	token, claims, err := generateToken(m.secret, user.UID, user.Email, m.now(), m.ttl)
	if err != nil {
		return nil, "", err
	}
	sess, err := m.startSession(ctx, claims.ID, user, claims.ExpiresAt.Time)
	if err != nil {
		return nil, "", err
	}
	log.Printf("✅ Session opened for %s", user.Email)
	return sess, token, nil
}

// startSession registers a session and loads its cart once. A cart load
// failure is logged and leaves an empty mirror. A session signed out while
// it was being built is not registered.
func (m *Manager) startSession(ctx context.Context, id string, user models.User, exp time.Time) (*Session, error) {
	sess := &Session{ID: id, User: user, ExpiresAt: exp}
	if m.newCart != nil {
		sess.Cart = m.newCart(user.UID)
		if err := sess.Cart.Load(ctx); err != nil {
			log.Printf("⚠️ Cart load for %s failed: %v", user.UID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, revoked := m.revoked[id]; revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	now := m.now()
	for sid, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, sid)
		}
	}
	m.sessions[id] = sess
	return sess, nil
}

// Resolve validates a session token and returns its live session. A valid
// token without a registered session (e.g. after a restart) gets its session
// rebuilt from the provider.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := parseToken(m.secret, token, m.now())
	if err != nil {
		return nil, err
	}
	if m.isRevoked(ctx, claims.ID) {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	m.mu.Lock()
	sess, ok := m.sessions[claims.ID]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	user, err := m.provider.Lookup(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return nil, err
	}
	return m.startSession(ctx, claims.ID, *user, claims.ExpiresAt.Time)
}

// SignOut revokes the session token and drops the session with its cart mirror.
func (m *Manager) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	ttl := sess.ExpiresAt.Sub(m.now())

	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.revoked[sess.ID] = sess.ExpiresAt
	m.pruneRevokedLocked()
	m.mu.Unlock()

	if err := m.redis.BlacklistToken(ctx, sess.ID, ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	log.Printf("👋 Session closed for %s", sess.User.Email)
	return nil
}

func (m *Manager) isRevoked(ctx context.Context, jti string) bool {
	m.mu.Lock()
	_, ok := m.revoked[jti]
	m.mu.Unlock()
	return ok || m.redis.IsTokenBlacklisted(ctx, jti)
}

func (m *Manager) pruneRevokedLocked() {
	now := m.now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
}

// Active reports the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
