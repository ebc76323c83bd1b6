package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/orders"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

type signedImages struct{}

func (signedImages) ResolveImage(_ context.Context, image string) string {
	if image == "" {
		return ""
	}
	return "https://cdn.example/" + image + "?sig=1"
}

type fakeProvider struct{}

func (fakeProvider) SignIn(_ context.Context, email, password string) (*models.User, error) {
	if password != "secret" {
		return nil, auth.ErrInvalidCredentials
	}
	uid := strings.SplitN(email, "@", 2)[0]
	return &models.User{UID: uid, Email: email}, nil
}

func (fakeProvider) VerifyIDToken(_ context.Context, idToken string) (string, error) {
	if strings.HasPrefix(idToken, "id:") {
		return strings.TrimPrefix(idToken, "id:"), nil
	}
	return "", auth.ErrInvalidToken
}

func (fakeProvider) Lookup(_ context.Context, uid string) (*models.User, error) {
	return &models.User{UID: uid, Email: uid + "@example.com"}, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []utils.Email
}

func (m *recordingMailer) Send(_ context.Context, e utils.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

type testEnv struct {
	router *gin.Engine
	mem    *store.Memory
	mr     *miniredis.Miniredis
	mailer *recordingMailer
	h      *handlers.Handlers
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	mem := store.NewMemory()
	for i, p := range []models.Product{
		{ID: "1", Name: "Wireless Headphones", Description: "Noise cancelling headphones", Price: 99.99, Category: "Electronics", Stock: 50, Image: "products/headphones.jpg"},
		{ID: "2", Name: "Running Shoes", Description: "Comfortable running shoes", Price: 79.99, Category: "Sports", Stock: 2},
		{ID: "3", Name: "Coffee Maker", Description: "Programmable coffee maker", Price: 100, Category: "Home & Kitchen", Stock: 20},
	} {
		p := p
		p.CreatedAt = time.Unix(int64(100*(i+1)), 0)
		require.NoError(t, mem.UpsertProduct(ctx, &p))
	}
	require.NoError(t, mem.UpsertCategory(ctx, &models.Category{ID: "1", Name: "Electronics", Slug: "electronics"}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := cache.New(rdb)

	factory := func(uid string) *cart.Synchronizer {
		return cart.New(uid, mem, cart.RedisNotifier{Redis: r}, cart.Options{})
	}
	mailer := &recordingMailer{}
	orderSvc := orders.NewService(mem, decimal.RequireFromString("0.10"), mailer, "https://shop.example")
	orderSvc.Dispatch = func(f func()) { f() }

	h := &handlers.Handlers{
		Catalog:      &catalog.Service{Products: mem, Categories: mem, Cache: r, Images: signedImages{}, PageSize: 2},
		Sessions:     auth.NewManager(fakeProvider{}, []byte("handler-secret"), time.Hour, r, factory),
		Orders:       orderSvc,
		Users:        mem,
		Redis:        r,
		Mailer:       mailer,
		ContactEmail: "shop@example.com",
	}
	router := gin.New()
	routes.RegisterRoutes(router, h, routes.Options{})
	return &testEnv{router: router, mem: mem, mr: mr, mailer: mailer, h: h}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/signin", "", gin.H{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestProductListing(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.ProductPage](t, w)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "3", page.Products[0].ID)
	assert.Equal(t, "2", page.NextCursor)

	w = e.do(t, http.MethodGet, "/api/products?cursor="+page.NextCursor, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[models.ProductPage](t, w)
	require.Len(t, page.Products, 1)
	assert.Empty(t, page.NextCursor)

	tests := map[string]int{
		"/api/products?limit=0":       http.StatusBadRequest,
		"/api/products?limit=abc":     http.StatusBadRequest,
		"/api/products?cursor=nope":   http.StatusBadRequest,
		"/api/products/1":             http.StatusOK,
		"/api/products/404":           http.StatusNotFound,
		"/api/categories":             http.StatusOK,
		"/api/categories/electronics": http.StatusOK,
		"/api/categories/garden":      http.StatusNotFound,
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, e.do(t, http.MethodGet, path, "", nil).Code)
		})
	}
}

func TestSearchFallsBackToScan(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/search?q=coffee", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "3", resp.Products[0].ID)
	assert.Equal(t, "29", w.Header().Get("X-RateLimit-Remaining"))
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)
	for _, token := range []string{"", "garbage"} {
		w := e.do(t, http.MethodGet, "/api/cart", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// only the WebSocket route takes the token from the query string
	token := e.signIn(t, "ada@example.com")
	w := e.do(t, http.MethodGet, "/api/cart?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(t, http.MethodGet, "/api/orders?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignInAndOut(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/auth/signin", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(t, http.MethodPost, "/api/auth/signin", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := e.signIn(t, "ada@example.com")
	w = e.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"ada"`)
	assert.Contains(t, w.Body.String(), `"profile":null`)

	w = e.do(t, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/me", token, nil).Code)
}

func TestExchangeSession(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/auth/session", "", gin.H{"idToken": "id:grace"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"grace"`)

	w = e.do(t, http.MethodPost, "/api/auth/session", "", gin.H{"idToken": "forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(t, http.MethodPost, "/api/auth/session", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t)
	bad := gin.H{"email": "eve@example.com", "password": "nope"}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/api/auth/signin", "", bad).Code)
	}
	w := e.do(t, http.MethodPost, "/api/auth/signin", "", bad)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, e.mr.Exists("login_cooldown:eve@example.com"))

	// even the right password is refused during the cooldown
	w = e.do(t, http.MethodPost, "/api/auth/signin", "", gin.H{"email": "eve@example.com", "password": "secret"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	e.mr.FastForward(16 * time.Minute)
	e.signIn(t, "eve@example.com")
	assert.False(t, e.mr.Exists("login_attempts:eve@example.com"))
}

func TestProfileUpdate(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")

	w := e.do(t, http.MethodPut, "/api/me/profile", token, gin.H{"displayName": "  Ada L.  "})
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[models.UserProfile](t, w)
	assert.Equal(t, "Ada L.", p.DisplayName)

	w = e.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Contains(t, w.Body.String(), `"displayName":"Ada L."`)
}

func TestCartFlow(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")

	w := e.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"productId": "1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[cart.Snapshot](t, w)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Wireless Headphones", snap.Items[0].Name)
	assert.Equal(t, 99.99, snap.Items[0].Price)
	assert.Equal(t, "https://cdn.example/products/headphones.jpg?sig=1", snap.Items[0].Image)
	assert.Equal(t, 2, snap.TotalItems)

	w = e.do(t, http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.example/products/headphones.jpg?sig=1", decode[cart.Snapshot](t, w).Items[0].Image)
	stored, err := e.mem.GetCart(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "products/headphones.jpg", stored.Items[0].Image, "the cart document keeps the storage key")

	tests := map[string]struct {
		body gin.H
		want int
	}{
		"above stock":     {gin.H{"productId": "2", "quantity": 3}, http.StatusBadRequest},
		"unknown product": {gin.H{"productId": "999", "quantity": 1}, http.StatusNotFound},
		"negative":        {gin.H{"productId": "1", "quantity": -1}, http.StatusBadRequest},
		"over line limit": {gin.H{"productId": "1", "quantity": 9}, http.StatusBadRequest},
		"missing id":      {gin.H{"quantity": 1}, http.StatusBadRequest},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.do(t, http.MethodPost, "/api/cart/items", token, tt.body).Code)
		})
	}

	w = e.do(t, http.MethodPut, "/api/cart/items/1", token, gin.H{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[cart.Snapshot](t, w).TotalItems)

	w = e.do(t, http.MethodPut, "/api/cart/items/1", token, gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	remote, err := e.mem.GetCart(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 5, remote.Items[0].Quantity)

	for i := 0; i < 2; i++ {
		w = e.do(t, http.MethodDelete, "/api/cart/items/1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[cart.Snapshot](t, w).Items)
	}
}

func TestClearCartKeepsRemote(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"productId": "1"}).Code)

	w := e.do(t, http.MethodDelete, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cart.Snapshot](t, w).Items)

	remote, err := e.mem.GetCart(context.Background(), "ada")
	require.NoError(t, err)
	assert.Len(t, remote.Items, 1)
}

func validShipping() gin.H {
	return gin.H{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
		"address": "1 Main St", "city": "London", "state": "LDN", "zipCode": "12345",
	}
}

func TestCheckoutAndHistory(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")

	w := e.do(t, http.MethodPost, "/api/checkout", token, validShipping())
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"productId": "3", "quantity": 1}).Code)

	w = e.do(t, http.MethodPost, "/api/checkout", token, gin.H{"firstName": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "incomplete shipping")

	w = e.do(t, http.MethodPost, "/api/checkout", token, validShipping())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, 100.0, order.Subtotal)
	assert.Equal(t, 10.0, order.Tax)
	assert.Equal(t, 110.0, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)

	w = e.do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Empty(t, decode[cart.Snapshot](t, w).Items)

	w = e.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Orders []models.Order `json:"orders"`
	}](t, w)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, order.ID, list.Orders[0].ID)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/orders/"+order.ID, token, nil).Code)

	other := e.signIn(t, "mallory@example.com")
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/orders/"+order.ID, other, nil).Code)
	w = e.do(t, http.MethodGet, "/api/orders", other, nil)
	assert.Equal(t, `{"orders":[]}`, w.Body.String())

	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "ada@example.com", e.mailer.sent[0].To)
}

func TestContact(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Bob", "email": "bob@example.com", "message": "Hello"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.mailer.sent, 1)
	assert.Equal(t, "shop@example.com", e.mailer.sent[0].To)
	assert.Equal(t, "bob@example.com", e.mailer.sent[0].ReplyTo)

	w = e.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Bob", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.h.ContactEmail = ""
	w = e.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Bob", "email": "bob@example.com", "message": "Hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCartWebSocket(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/cart/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello struct {
		Type string        `json:"type"`
		Cart cart.Snapshot `json:"cart"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
	assert.True(t, hello.Cart.Loaded)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/cart/items", token, gin.H{"productId": "1"}).Code)

	var n cart.Notification
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, cart.LevelSuccess, n.Level)
	assert.Equal(t, "Added to cart!", n.Message)
	require.NotNil(t, n.Cart)
	assert.Equal(t, 1, n.Cart.TotalItems)
	require.Len(t, n.Cart.Items, 1)
	assert.Equal(t, "https://cdn.example/products/headphones.jpg?sig=1", n.Cart.Items[0].Image)
}

func TestCartWebSocketWithoutRedis(t *testing.T) {
	e := newEnv(t)
	token := e.signIn(t, "ada@example.com")
	e.h.Redis = nil

	w := e.do(t, http.MethodGet, "/api/cart/ws", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
