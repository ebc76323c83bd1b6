package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/cache"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute

	SearchMaxRequests = 30
	SearchWindow      = time.Minute
)

// LoginRateLimit blocks an email for LoginCooldown after LoginMaxAttempts
// failed sign-ins. Without Redis it lets everything through.
func LoginRateLimit(r *cache.Redis) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Enabled() {
			c.Next()
			return
		}

		// read the body without consuming it
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}
		email := strings.ToLower(strings.TrimSpace(input.Email))
		ctx := c.Request.Context()

		if ttl, blocked := r.LoginCooldown(ctx, email); blocked {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Too many failed attempts. Try again in %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts := r.LoginAttempts(ctx, email)
		if attempts >= LoginMaxAttempts {
			if err := r.StartLoginCooldown(ctx, email, LoginCooldown); err != nil {
				log.Printf("⚠️ Login cooldown for %s: %v", email, err)
			}
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Too many failed attempts. Account locked for %d minutes", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			if _, err := r.RecordLoginFailure(ctx, email, LoginCooldown); err != nil {
				log.Printf("⚠️ Login attempt for %s not recorded: %v", email, err)
			}
		case http.StatusOK:
			if err := r.ResetLogin(ctx, email); err != nil {
				log.Printf("⚠️ Login counters for %s not reset: %v", email, err)
			}
		}
	}
}

// SearchRateLimit caps search requests per client IP.
func SearchRateLimit(r *cache.Redis) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := r.Hit(c.Request.Context(), "search_requests:"+c.ClientIP(), SearchWindow)
		if err != nil {
			log.Printf("⚠️ Search rate limit: %v", err)
			c.Next()
			return
		}
		if n > SearchMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many searches. Try again in 1 minute",
				"retry_after": int(SearchWindow.Seconds()),
			})
			c.Abort()
			return
		}
		if r.Enabled() {
			c.Header("X-RateLimit-Limit", fmt.Sprint(SearchMaxRequests))
			c.Header("X-RateLimit-Remaining", fmt.Sprint(SearchMaxRequests-n))
		}
		c.Next()
	}
}
