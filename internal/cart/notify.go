package cart

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"storefront_back_end/internal/cache"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	// LevelSync carries a fresh snapshot without a user-facing message.
	LevelSync Level = "sync"
)

// Notification is one cart event for the user's live channel.
type Notification struct {
	UserID  string    `json:"userId"`
	Level   Level     `json:"level"`
	Message string    `json:"message,omitempty"`
	Cart    *Snapshot `json:"cart,omitempty"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Notifiers fans a notification out to every member.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// LogNotifier writes user-facing messages to the server log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	switch n.Level {
	case LevelError:
		log.Printf("❌ [cart %s] %s", n.UserID, n.Message)
	case LevelSuccess:
		log.Printf("✅ [cart %s] %s", n.UserID, n.Message)
	}
}

// Channel is the pub/sub channel of a user's cart events.
func Channel(userID string) string {
	return "cart:" + userID
}

// RedisNotifier publishes notifications as JSON on Channel(userID).
type RedisNotifier struct {
	Redis *cache.Redis
}

func (r RedisNotifier) Notify(ctx context.Context, n Notification) {
	if !r.Redis.Enabled() {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("⚠️ Cart notification encode: %v", err)
		return
	}
	if err := r.Redis.Publish(ctx, Channel(n.UserID), payload); err != nil {
		log.Printf("⚠️ Cart notification publish: %v", err)
	}
}
