// Package cart keeps a per-session mirror of the user's remote cart document.
//
// Every mutation is written remotely first, in one transaction, and the
// local list then adopts the list returned by the store, even when nothing
// was written. A failed remote write leaves the local list untouched.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

var ErrInvalidQuantity = errors.New("cart: invalid quantity")

const DefaultMaxQuantity = 10

const (
	msgAdded        = "Added to cart!"
	msgAddFailed    = "Failed to add to cart"
	msgUpdateFailed = "Failed to update cart"
	msgRemoved      = "Removed from cart"
	msgRemoveFailed = "Failed to remove from cart"
	msgLoadFailed   = "Failed to load cart"
	msgClearFailed  = "Failed to clear cart"
)

type Options struct {
	// MaxQuantity bounds the quantity of a single line.
	MaxQuantity int
	// ClearRemote makes ClearCart empty the remote document as well.
	ClearRemote bool
}

// Snapshot is a consistent read of the local cart.
type Snapshot struct {
	UserID      string            `json:"userId"`
	Items       []models.CartItem `json:"items"`
	TotalItems  int               `json:"totalItems"`
	TotalAmount float64           `json:"totalAmount"`
	Loaded      bool              `json:"loaded"`
}

type Synchronizer struct {
	mu     sync.Mutex
	userID string
	items  []models.CartItem
	loaded bool

	store    store.CartStore
	notifier Notifier
	opts     Options
	now      func() time.Time
}

func New(userID string, s store.CartStore, n Notifier, opts Options) *Synchronizer {
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantity
	}
	if n == nil {
		n = LogNotifier{}
	}
	return &Synchronizer{
		userID:   userID,
		items:    []models.CartItem{},
		store:    s,
		notifier: n,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *Synchronizer) UserID() string { return s.userID }

// Load replaces the local list with the remote one. A missing document is an
// empty cart.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	c, err := s.store.GetCart(ctx, s.userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.items = []models.CartItem{}
	case err != nil:
		s.mu.Unlock()
		s.notify(ctx, LevelError, msgLoadFailed, nil)
		return fmt.Errorf("load cart: %w", err)
	default:
		s.items = models.CloneItems(c.Items)
	}
	s.loaded = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, LevelSync, "", &snap)
	return nil
}

// AddToCart adds item, or increases the quantity of the line with the same id.
func (s *Synchronizer) AddToCart(ctx context.Context, item models.CartItem) error {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = strings.TrimSpace(item.ProductID)
	}
	if item.ProductID == "" {
		item.ProductID = item.ID
	}
	if item.ID == "" {
		s.notify(ctx, LevelError, msgAddFailed, nil)
		return errors.New("cart: item id is required")
	}
	if item.Quantity < 1 || item.Quantity > s.opts.MaxQuantity {
		s.notify(ctx, LevelError, msgAddFailed, nil)
		return ErrInvalidQuantity
	}

	limit := s.opts.MaxQuantity
	return s.mutate(ctx, msgAdded, msgAddFailed, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ID == item.ID {
				q := items[i].Quantity + item.Quantity
				if q > limit {
					return nil, ErrInvalidQuantity
				}
				items[i].Quantity = q
				return items, nil
			}
		}
		return append(items, item), nil
	})
}

// UpdateCartItem sets the quantity of line id. An unknown id is a no-op.
func (s *Synchronizer) UpdateCartItem(ctx context.Context, id string, quantity int) error {
	if quantity < 1 || quantity > s.opts.MaxQuantity {
		s.notify(ctx, LevelError, msgUpdateFailed, nil)
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, "", msgUpdateFailed, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ID == id {
				if items[i].Quantity == quantity {
					return nil, store.ErrNoChange
				}
				items[i].Quantity = quantity
				return items, nil
			}
		}
		return nil, store.ErrNoChange
	})
}

// RemoveFromCart drops line id. Removing a missing line is not an error.
func (s *Synchronizer) RemoveFromCart(ctx context.Context, id string) error {
	return s.mutate(ctx, msgRemoved, msgRemoveFailed, func(items []models.CartItem) ([]models.CartItem, error) {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		if len(out) == len(items) {
			return nil, store.ErrNoChange
		}
		return out, nil
	})
}

// ClearCart empties the local list. The remote document is emptied only
// when Options.ClearRemote is set.
func (s *Synchronizer) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	remaining := []models.CartItem{}
	if s.opts.ClearRemote {
		var err error
		remaining, err = s.store.MutateCart(ctx, s.userID, func(items []models.CartItem) ([]models.CartItem, error) {
			if len(items) == 0 {
				return nil, store.ErrNoChange
			}
			return []models.CartItem{}, nil
		})
		if err != nil {
			s.mu.Unlock()
			s.notify(ctx, LevelError, msgClearFailed, nil)
			return fmt.Errorf("clear cart: %w", err)
		}
	}
	s.items = remaining
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, LevelSync, "", &snap)
	return nil
}

// mutate runs fn against the remote document, then adopts the list the
// store returns. When fn reports store.ErrNoChange nothing is written and
// the local list still picks up what other sessions committed.
func (s *Synchronizer) mutate(ctx context.Context, okMsg, failMsg string, fn store.CartMutation) error {
	s.mu.Lock()
	committed, err := s.store.MutateCart(ctx, s.userID, fn)
	if err != nil {
		s.mu.Unlock()
		s.notify(ctx, LevelError, failMsg, nil)
		if errors.Is(err, ErrInvalidQuantity) {
			return ErrInvalidQuantity
		}
		return err
	}
	s.items = committed
	snap := s.snapshotLocked()
	s.mu.Unlock()

	level := LevelSuccess
	if okMsg == "" {
		level = LevelSync
	}
	s.notify(ctx, level, okMsg, &snap)
	return nil
}

func (s *Synchronizer) notify(ctx context.Context, level Level, msg string, snap *Snapshot) {
	s.notifier.Notify(ctx, Notification{
		UserID:  s.userID,
		Level:   level,
		Message: msg,
		Cart:    snap,
		At:      s.now().UTC(),
	})
}

// ---- read side ----

func (s *Synchronizer) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneItems(s.items)
}

func (s *Synchronizer) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := models.SumItems(s.items)
	return n
}

func (s *Synchronizer) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, amount := models.SumItems(s.items)
	return amount
}

func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	n, amount := models.SumItems(s.items)
	return Snapshot{
		UserID:      s.userID,
		Items:       models.CloneItems(s.items),
		TotalItems:  n,
		TotalAmount: amount.Round(2).InexactFloat64(),
		Loaded:      s.loaded,
	}
}
