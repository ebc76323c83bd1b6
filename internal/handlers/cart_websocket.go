package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"storefront_back_end/internal/cart"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// CORS is enforced by the middleware; the token is what authenticates here
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /api/cart/ws streams the session's cart notifications.
func (h *Handlers) CartWebSocket(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if !h.Redis.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live cart updates are unavailable"})
		return
	}

	ctx := c.Request.Context()
	sub, err := h.Redis.Subscribe(ctx, cart.Channel(sess.User.UID))
	if err != nil {
		log.Printf("❌ Cart subscription for %s: %v", sess.User.UID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live cart updates are unavailable"})
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// reader: answers control frames and notices the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(gin.H{"type": "connected", "cart": h.cartView(ctx, sess.Cart.Snapshot())}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	messages := sub.Channel()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, h.notificationView(ctx, msg.Payload)); err != nil {
				log.Printf("⚠️ WebSocket write for %s: %v", sess.User.UID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// notificationView resolves the image keys of the cart carried by a
// published notification. Payloads that do not decode are forwarded as is.
func (h *Handlers) notificationView(ctx context.Context, payload string) []byte {
	var n cart.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil || n.Cart == nil {
		return []byte(payload)
	}
	view := h.cartView(ctx, *n.Cart)
	n.Cart = &view
	out, err := json.Marshal(n)
	if err != nil {
		return []byte(payload)
	}
	return out
}
