package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

type fakeProvider struct {
	signInFunc func(ctx context.Context, email, password string) (*models.User, error)
	verifyFunc func(ctx context.Context, idToken string) (string, error)
	lookupFunc func(ctx context.Context, uid string) (*models.User, error)
	lookups    int
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if f.signInFunc != nil {
		return f.signInFunc(ctx, email, password)
	}
	return nil, ErrInvalidCredentials
}

func (f *fakeProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	if f.verifyFunc != nil {
		return f.verifyFunc(ctx, idToken)
	}
	return "", ErrInvalidToken
}

func (f *fakeProvider) Lookup(ctx context.Context, uid string) (*models.User, error) {
	f.lookups++
	if f.lookupFunc != nil {
		return f.lookupFunc(ctx, uid)
	}
	return &models.User{UID: uid, Email: uid + "@example.com"}, nil
}

// loadFailingStore fails every cart read.
type loadFailingStore struct {
	*store.Memory
}

func (loadFailingStore) GetCart(context.Context, string) (*models.Cart, error) {
	return nil, errors.New("firestore unavailable")
}

var secret = []byte("test-secret")

func ada() *models.User {
	return &models.User{UID: "u1", Email: "ada@example.com"}
}

func newManager(t *testing.T, p Provider, carts store.CartStore) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	factory := func(uid string) *cart.Synchronizer {
		return cart.New(uid, carts, cart.LogNotifier{}, cart.Options{})
	}
	return NewManager(p, secret, time.Hour, cache.New(rdb), factory), mr
}

func TestSignInLoadsCartOnce(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_, err := mem.MutateCart(ctx, "u1", func([]models.CartItem) ([]models.CartItem, error) {
		return []models.CartItem{{ID: "1", ProductID: "1", Price: 10, Quantity: 2}}, nil
	})
	require.NoError(t, err)

	p := &fakeProvider{signInFunc: func(_ context.Context, email, password string) (*models.User, error) {
		if email == "ada@example.com" && password == "pw" {
			return ada(), nil
		}
		return nil, ErrInvalidCredentials
	}}
	m, _ := newManager(t, p, mem)

	sess, token, err := m.SignIn(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "u1", sess.User.UID)
	require.NotNil(t, sess.Cart)
	assert.True(t, sess.Cart.Loaded())
	assert.Equal(t, 2, sess.Cart.TotalItems())

	resolved, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Same(t, sess, resolved)
	assert.Equal(t, 1, m.Active())

	_, _, err = m.SignIn(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInSurvivesCartLoadFailure(t *testing.T) {
	p := &fakeProvider{signInFunc: func(context.Context, string, string) (*models.User, error) { return ada(), nil }}
	m, _ := newManager(t, p, loadFailingStore{store.NewMemory()})

	sess, _, err := m.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.False(t, sess.Cart.Loaded())
	assert.Empty(t, sess.Cart.Items())
}

func TestExchange(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{verifyFunc: func(_ context.Context, idToken string) (string, error) {
		if idToken == "good" {
			return "u2", nil
		}
		return "", ErrInvalidToken
	}}
	m, _ := newManager(t, p, store.NewMemory())

	sess, token, err := m.Exchange(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u2", sess.User.UID)
	assert.NotEmpty(t, token)

	_, _, err = m.Exchange(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInFunc: func(context.Context, string, string) (*models.User, error) { return ada(), nil }}
	m, mr := newManager(t, p, store.NewMemory())

	sess, token, err := m.SignIn(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, m.SignOut(ctx, sess))
	assert.Equal(t, 0, m.Active())
	assert.True(t, mr.Exists("blacklist:"+sess.ID))

	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a fresh manager (restart) still sees the Redis blacklist
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	restarted := NewManager(p, secret, time.Hour, cache.New(rdb), nil)
	_, err = restarted.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOutWithoutRedis(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInFunc: func(context.Context, string, string) (*models.User, error) { return ada(), nil }}
	m := NewManager(p, secret, time.Hour, nil, nil)

	sess, token, err := m.SignIn(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, m.SignOut(ctx, sess))

	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRebuildsMissingSession(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInFunc: func(context.Context, string, string) (*models.User, error) { return ada(), nil }}
	m, _ := newManager(t, p, store.NewMemory())

	_, token, err := m.SignIn(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	restarted := NewManager(p, secret, time.Hour, nil, func(uid string) *cart.Synchronizer {
		return cart.New(uid, store.NewMemory(), nil, cart.Options{})
	})
	sess, err := restarted.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.User.UID)
	assert.True(t, sess.Cart.Loaded())
	assert.Equal(t, 1, p.lookups)

	_, err = restarted.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, p.lookups, "second resolve uses the registry")
}

func TestResolveDropsSessionSignedOutDuringRebuild(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{signInFunc: func(context.Context, string, string) (*models.User, error) { return ada(), nil }}
	m, _ := newManager(t, p, store.NewMemory())

	sess, token, err := m.SignIn(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	var restarted *Manager
	slow := &fakeProvider{lookupFunc: func(ctx context.Context, uid string) (*models.User, error) {
		// the user signs out while the session is being rebuilt
		require.NoError(t, restarted.SignOut(ctx, sess))
		return ada(), nil
	}}
	restarted = NewManager(slow, secret, time.Hour, nil, func(uid string) *cart.Synchronizer {
		return cart.New(uid, store.NewMemory(), nil, cart.Options{})
	})

	_, err = restarted.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 0, restarted.Active())

	_, err = restarted.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 1, slow.lookups)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, &fakeProvider{}, store.NewMemory())
	now := time.Now()

	expired, _, err := generateToken(secret, "u1", "a@b.c", now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	foreign, _, err := generateToken([]byte("other"), "u1", "a@b.c", now, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": "u1", "jti": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":     "not-a-jwt",
		"expired":     expired,
		"wrong key":   foreign,
		"alg none":    none,
		"empty token": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Resolve(ctx, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestResolveUnknownUser(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{lookupFunc: func(context.Context, string) (*models.User, error) { return nil, ErrUserNotFound }}
	m, _ := newManager(t, p, store.NewMemory())

	token, _, err := generateToken(secret, "ghost", "g@example.com", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
