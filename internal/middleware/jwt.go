package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
)

const (
	SessionKey = "session"
	UserIDKey  = "user_id"
)

// AuthRequired resolves the Bearer token to a live session.
func AuthRequired(sessions auth.SessionResolver) gin.HandlerFunc {
	return authenticate(sessions, false)
}

// WebSocketAuth is AuthRequired that also accepts the token as ?token=, since
// browsers cannot set headers on the upgrade request. Use it on the WebSocket
// route only.
func WebSocketAuth(sessions auth.SessionResolver) gin.HandlerFunc {
	return authenticate(sessions, true)
}

func authenticate(sessions auth.SessionResolver, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && allowQuery && c.GetHeader("Authorization") == "" {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			c.Abort()
			return
		}

		sess, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				log.Printf("❌ Session lookup failed: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(SessionKey, sess)
		c.Set(UserIDKey, sess.User.UID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentSession returns the session set by AuthRequired.
func CurrentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}
