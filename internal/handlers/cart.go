package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/models"
)

func cartError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}
	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart update failed, please try again"})
}

// cartView is the session cart as sent to the client. Lines keep the stored
// image key; the response carries the resolved URL.
func (h *Handlers) cartView(ctx context.Context, snap cart.Snapshot) cart.Snapshot {
	if h.Catalog != nil {
		snap.Items = h.Catalog.CartImages(ctx, snap.Items)
	}
	return snap
}

// GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.cartView(c.Request.Context(), sess.Cart.Snapshot()))
}

// POST /api/cart/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	// price and name always come from the catalog, never from the client
	p, err := h.Catalog.Product(c.Request.Context(), input.ProductID)
	if err != nil {
		storeError(c, "Product", err)
		return
	}
	if input.Quantity > p.Stock {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Only %d left in stock", p.Stock)})
		return
	}

	err = sess.Cart.AddToCart(c.Request.Context(), models.CartItem{
		ID:        p.ID,
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  input.Quantity,
	})
	if err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartView(c.Request.Context(), sess.Cart.Snapshot()))
}

// PUT /api/cart/items/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	if err := sess.Cart.UpdateCartItem(c.Request.Context(), c.Param("id"), input.Quantity); err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartView(c.Request.Context(), sess.Cart.Snapshot()))
}

// DELETE /api/cart/items/:id
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if err := sess.Cart.RemoveFromCart(c.Request.Context(), c.Param("id")); err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartView(c.Request.Context(), sess.Cart.Snapshot()))
}

// DELETE /api/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if err := sess.Cart.ClearCart(c.Request.Context()); err != nil {
		cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.cartView(c.Request.Context(), sess.Cart.Snapshot()))
}
