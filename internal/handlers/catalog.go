package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/store"
)

// GET /api/products?cursor=&limit=
func (h *Handlers) ListProducts(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	page, err := h.Catalog.ListProducts(c.Request.Context(), c.Query("cursor"), limit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
			return
		}
		storeError(c, "Products", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeError(c, "Product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		storeError(c, "Categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// GET /api/categories/:slug
func (h *Handlers) GetCategory(c *gin.Context) {
	page, err := h.Catalog.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		storeError(c, "Category", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/search?q=
func (h *Handlers) Search(c *gin.Context) {
	q := c.Query("q")
	products, err := h.Catalog.Search(c.Request.Context(), q)
	if err != nil {
		storeError(c, "Products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "products": products, "count": len(products)})
}
