// Package store is the remote store adapter: one thin port per record kind,
// with a Firestore backend for production and an in-memory backend for
// local runs and tests.
package store

import (
	"context"
	"errors"

	"storefront_back_end/internal/models"
)

// Collection names in the document database.
const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	CartsCollection      = "carts"
	OrdersCollection     = "orders"
	UsersCollection      = "users"
)

// DefaultPageSize is used when ListProducts is called with limit <= 0.
const DefaultPageSize = 12

var ErrNotFound = errors.New("store: not found")

// ErrNoChange is returned by a CartMutation that has nothing to write.
var ErrNoChange = errors.New("store: no change")

type ProductStore interface {
	// ListProducts returns products ordered by createdAt desc, starting after
	// the product whose id is cursor (empty cursor = first page).
	ListProducts(ctx context.Context, cursor string, limit int) (models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	UpsertProduct(ctx context.Context, p *models.Product) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	UpsertCategory(ctx context.Context, c *models.Category) error
}

// CartMutation receives the current remote items (insertion order) and
// returns the items to write back, or ErrNoChange to leave the document as is.
type CartMutation func(items []models.CartItem) ([]models.CartItem, error)

type CartStore interface {
	// GetCart returns ErrNotFound when the user has no cart document yet.
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// MutateCart runs fn as one atomic read-modify-write of the user's cart
	// document and returns the committed items. The document is created
	// lazily, only when fn leaves items in it. When fn returns ErrNoChange
	// nothing is written and the current items are returned with a nil error.
	MutateCart(ctx context.Context, userID string, fn CartMutation) ([]models.CartItem, error)
}

type OrderStore interface {
	// CreateOrder assigns o.ID and the timestamps.
	CreateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type UserStore interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// UpdateUserProfile merges the non-nil fields, creating the document when missing.
	UpdateUserProfile(ctx context.Context, userID string, u models.ProfileUpdate) (*models.UserProfile, error)
}

// Store bundles the five collections.
type Store interface {
	ProductStore
	CategoryStore
	CartStore
	OrderStore
	UserStore
	Close() error
}
