// Package handlers exposes the storefront over HTTP.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/orders"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

// Handlers holds the dependencies of every route.
type Handlers struct {
	Catalog  *catalog.Service
	Sessions *auth.Manager
	Orders   *orders.Service
	Users    store.UserStore
	Redis    *cache.Redis
	Mailer   utils.Mailer
	// ContactEmail receives contact form messages.
	ContactEmail string
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.Sessions.Active(),
		"redis":    h.Redis.Enabled(),
	})
}

// session returns the authenticated session or writes a 401.
func session(c *gin.Context) (*auth.Session, bool) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return sess, true
}

// storeError writes 404 for a missing document and a generic 500 otherwise.
func storeError(c *gin.Context, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again"})
}
