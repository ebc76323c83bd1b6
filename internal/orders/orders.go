// Package orders turns carts into orders and serves order history.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

var ErrEmptyCart = errors.New("orders: cart is empty")

// Cart is the part of the session cart checkout needs.
type Cart interface {
	Items() []models.CartItem
	ClearCart(ctx context.Context) error
}

// Totals of an order, rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals returns subtotal = Σ price × quantity, tax = subtotal × rate
// and total = subtotal + tax.
func ComputeTotals(items []models.CartItem, rate decimal.Decimal) Totals {
	_, subtotal := models.SumItems(items)
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(rate).Round(2)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

type Service struct {
	Store   store.OrderStore
	TaxRate decimal.Decimal
	Mailer  utils.Mailer
	// BaseURL of the storefront, used for links in emails.
	BaseURL string
	// Dispatch runs background work; defaults to a goroutine.
	Dispatch func(func())
}

func NewService(s store.OrderStore, rate decimal.Decimal, mailer utils.Mailer, baseURL string) *Service {
	if mailer == nil {
		mailer = utils.LogMailer{}
	}
	return &Service{
		Store:    s,
		TaxRate:  rate,
		Mailer:   mailer,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Dispatch: func(f func()) { go f() },
	}
}

func (s *Service) orderURL(id string) string {
	if s.BaseURL == "" {
		return ""
	}
	return s.BaseURL + "/orders/" + id
}

// Checkout snapshots the cart into a pending order, clears the cart and
// sends the confirmation email in the background.
func (s *Service) Checkout(ctx context.Context, userID string, c Cart, shipping models.ShippingInfo) (*models.Order, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	t := ComputeTotals(items, s.TaxRate)
	order := &models.Order{
		UserID:       userID,
		Items:        items,
		ShippingInfo: shipping,
		Subtotal:     t.Subtotal.InexactFloat64(),
		Tax:          t.Tax.InexactFloat64(),
		Total:        t.Total.InexactFloat64(),
		Status:       models.OrderPending,
	}
	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log.Printf("✅ Order %s created for %s (total %s)", order.ID, userID, t.Total.StringFixed(2))

	if err := c.ClearCart(ctx); err != nil {
		// the order stands; the cart is cleaned up on a later attempt
		log.Printf("⚠️ Clearing cart after order %s: %v", order.ID, err)
	}

	confirmation := *order
	s.dispatch(func() { s.sendConfirmation(confirmation) })
	return order, nil
}

func (s *Service) dispatch(f func()) {
	if s.Dispatch == nil {
		go f()
		return
	}
	s.Dispatch(f)
}

func (s *Service) sendConfirmation(o models.Order) {
	email, err := utils.OrderConfirmationEmail(o, s.orderURL(o.ID))
	if err != nil {
		log.Printf("❌ Confirmation email for order %s: %v", o.ID, err)
		return
	}
	if err := s.Mailer.Send(context.Background(), email); err != nil {
		log.Printf("❌ Confirmation email for order %s: %v", o.ID, err)
		return
	}
	log.Printf("📧 Confirmation sent for order %s to %s", o.ID, email.To)
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.Store.ListOrders(ctx, userID)
}

// GetOrder returns one of the user's orders. Another user's order is reported
// as not found.
func (s *Service) GetOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, store.ErrNotFound
	}
	return o, nil
}

// SetStatus changes an order's status out-of-band and optionally emails the
// customer.
func (s *Service) SetStatus(ctx context.Context, id string, status models.OrderStatus, notify bool) (*models.Order, error) {
	o, err := s.Store.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Order %s is now %s", o.ID, o.Status)

	if notify {
		email, err := utils.OrderStatusEmail(*o, s.orderURL(o.ID))
		if err != nil {
			return o, fmt.Errorf("status email: %w", err)
		}
		if err := s.Mailer.Send(ctx, email); err != nil {
			return o, fmt.Errorf("status email: %w", err)
		}
		log.Printf("📧 Status email sent: %s → %s", o.Status, email.To)
	}
	return o, nil
}
