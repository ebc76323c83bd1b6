package models

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
)

// ParseOrderStatus accepts the status names case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

type ShippingInfo struct {
	FirstName string `json:"firstName" firestore:"firstName" binding:"required"`
	LastName  string `json:"lastName" firestore:"lastName" binding:"required"`
	Email     string `json:"email" firestore:"email" binding:"required,email"`
	Address   string `json:"address" firestore:"address" binding:"required"`
	City      string `json:"city" firestore:"city" binding:"required"`
	State     string `json:"state" firestore:"state" binding:"required"`
	ZipCode   string `json:"zipCode" firestore:"zipCode" binding:"required"`
}

// Order is an immutable snapshot of a cart taken at checkout. Only Status
// changes afterwards, out-of-band.
type Order struct {
	ID           string       `json:"id" firestore:"-"`
	UserID       string       `json:"userId" firestore:"userId"`
	Items        []CartItem   `json:"items" firestore:"items"`
	ShippingInfo ShippingInfo `json:"shippingInfo" firestore:"shippingInfo"`
	Subtotal     float64      `json:"subtotal" firestore:"subtotal"`
	Tax          float64      `json:"tax" firestore:"tax"`
	Total        float64      `json:"total" firestore:"total"`
	Status       OrderStatus  `json:"status" firestore:"status"`
	CreatedAt    time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" firestore:"updatedAt"`
}
