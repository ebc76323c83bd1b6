package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

func (h *Handlers) sessionResponse(ctx context.Context, sess *auth.Session, token string) gin.H {
	return gin.H{
		"token":     token,
		"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
		"user":      sess.User,
		"cart":      h.cartView(ctx, sess.Cart.Snapshot()),
	}
}

// POST /api/auth/signin
func (h *Handlers) SignIn(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	sess, token, err := h.Sessions.SignIn(c.Request.Context(), strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("❌ Sign-in failed for %s: %v", input.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in failed, please try again"})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(c.Request.Context(), sess, token))
}

// POST /api/auth/session
func (h *Handlers) ExchangeSession(c *gin.Context) {
	var input struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken is required"})
		return
	}

	sess, token, err := h.Sessions.Exchange(c.Request.Context(), input.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid ID token"})
			return
		}
		log.Printf("❌ Token exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-in failed, please try again"})
		return
	}
	c.JSON(http.StatusOK, h.sessionResponse(c.Request.Context(), sess, token))
}

// POST /api/auth/signout
func (h *Handlers) SignOut(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if err := h.Sessions.SignOut(c.Request.Context(), sess); err != nil {
		log.Printf("❌ Sign-out for %s: %v", sess.User.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sign-out failed, please try again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	profile, err := h.Users.GetUserProfile(c.Request.Context(), sess.User.UID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		storeError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.User, "profile": profile})
}

// PUT /api/me/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var input models.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile data"})
		return
	}
	profile, err := h.Users.UpdateUserProfile(c.Request.Context(), sess.User.UID, input)
	if err != nil {
		storeError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
