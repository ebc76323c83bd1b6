package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront_back_end/internal/models"
)

// Memory keeps every collection in process. It mirrors the Firestore
// backend's ordering and not-found behaviour.
type Memory struct {
	mu         sync.RWMutex
	products   map[string]models.Product
	categories map[string]models.Category
	carts      map[string]models.Cart
	orders     map[string]models.Order
	users      map[string]models.UserProfile

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		products:   map[string]models.Product{},
		categories: map[string]models.Category{},
		carts:      map[string]models.Cart{},
		orders:     map[string]models.Order{},
		users:      map[string]models.UserProfile{},
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Close() error { return nil }

// ---- products ----

func (m *Memory) sortedProducts(filter func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter == nil || filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) ListProducts(_ context.Context, cursor string, limit int) (models.ProductPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	all := m.sortedProducts(nil)

	start := 0
	if cursor != "" {
		start = -1
		for i, p := range all {
			if p.ID == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return models.ProductPage{}, ErrNotFound
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := models.ProductPage{Products: all[start:end]}
	if end > start && end < len(all) {
		page.NextCursor = all[end-1].ID
	}
	return page, nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListProductsByCategory(_ context.Context, category string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedProducts(func(p models.Product) bool { return p.Category == category }), nil
}

func (m *Memory) AllProducts(_ context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedProducts(nil), nil
}

func (m *Memory) UpsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if existing, ok := m.products[p.ID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = *p
	return nil
}

// ---- categories ----

func (m *Memory) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpsertCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	m.categories[c.ID] = *c
	return nil
}

// ---- carts ----

func (m *Memory) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Items = models.CloneItems(c.Items)
	return &c, nil
}

func (m *Memory) MutateCart(_ context.Context, userID string, fn CartMutation) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.carts[userID]
	next, err := fn(models.CloneItems(c.Items))
	if errors.Is(err, ErrNoChange) {
		return models.CloneItems(c.Items), nil
	}
	if err != nil {
		return nil, err
	}
	if !exists && len(next) == 0 {
		return []models.CartItem{}, nil
	}

	now := m.now()
	if !exists {
		c = models.Cart{ID: userID, UserID: userID, CreatedAt: now}
	}
	c.Items = models.CloneItems(next)
	c.UpdatedAt = now
	m.carts[userID] = c
	return models.CloneItems(next), nil
}

// ---- orders ----

func (m *Memory) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	o.ID = uuid.NewString()
	o.CreatedAt = now
	o.UpdatedAt = now
	stored := *o
	stored.Items = models.CloneItems(o.Items)
	m.orders[o.ID] = stored
	return nil
}

func (m *Memory) ListOrders(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = m.now()
	m.orders[id] = o
	return &o, nil
}

// ---- users ----

func (m *Memory) GetUserProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) UpdateUserProfile(_ context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	p, ok := m.users[userID]
	if !ok {
		p = models.UserProfile{ID: userID, CreatedAt: now}
	}
	applyProfileUpdate(&p, u)
	p.UpdatedAt = now
	m.users[userID] = p
	return &p, nil
}

func applyProfileUpdate(p *models.UserProfile, u models.ProfileUpdate) {
	if u.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*u.DisplayName)
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = strings.TrimSpace(*u.PhoneNumber)
	}
	if u.DefaultShipping != nil {
		s := *u.DefaultShipping
		p.DefaultShipping = &s
	}
}
