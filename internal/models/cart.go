package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a cart. ID equals ProductID.
type CartItem struct {
	ID        string  `json:"id" firestore:"id"`
	ProductID string  `json:"productId" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	Price     float64 `json:"price" firestore:"price"`
	Image     string  `json:"image" firestore:"image"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
}

// LineTotal returns price × quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the remote per-user cart document (doc id = user uid).
type Cart struct {
	ID        string     `json:"id" firestore:"-"`
	UserID    string     `json:"userId" firestore:"userId"`
	Items     []CartItem `json:"items" firestore:"items"`
	CreatedAt time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" firestore:"updatedAt"`
}

// CloneItems copies a line item slice. A nil input gives an empty slice.
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

// SumItems returns the total quantity and the Σ price × quantity of items.
func SumItems(items []CartItem) (int, decimal.Decimal) {
	count := 0
	amount := decimal.Zero
	for _, it := range items {
		count += it.Quantity
		amount = amount.Add(it.LineTotal())
	}
	return count, amount
}
