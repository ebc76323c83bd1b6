package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/orders"
)

// POST /api/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var shipping models.ShippingInfo
	if err := c.ShouldBindJSON(&shipping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shipping information", "details": err.Error()})
		return
	}

	order, err := h.Orders.Checkout(c.Request.Context(), sess.User.UID, sess.Cart, shipping)
	if err != nil {
		if errors.Is(err, orders.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
			return
		}
		log.Printf("❌ Checkout for %s: %v", sess.User.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	list, err := h.Orders.ListOrders(c.Request.Context(), sess.User.UID)
	if err != nil {
		storeError(c, "Orders", err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), sess.User.UID, c.Param("id"))
	if err != nil {
		storeError(c, "Order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}
