// Package app wires configuration and external clients into the services
// used by the server and the ops CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/cart"
	"storefront_back_end/internal/catalog"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/orders"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

type App struct {
	Config  *config.Config
	Clients *database.Clients

	Store   store.Store
	Redis   *cache.Redis
	Search  *services.SearchIndex
	Images  *services.ImageStore
	Mailer  utils.Mailer
	Catalog *catalog.Service
	Orders  *orders.Service
}

// New connects to the configured services and builds the shared components.
func New(cfg *config.Config) (*App, error) {
	clients, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, clients)
}

// Assemble builds the components on top of already opened clients.
func Assemble(cfg *config.Config, clients *database.Clients) (*App, error) {
	a := &App{Config: cfg, Clients: clients}

	switch cfg.StoreBackend {
	case "memory":
		log.Println("⚠️  Using the in-memory store, data is lost on restart")
		a.Store = store.NewMemory()
	default:
		if clients.Firestore == nil {
			return nil, errors.New("firestore backend selected but Firestore is not connected")
		}
		a.Store = store.NewFirestore(clients.Firestore)
	}

	a.Redis = cache.New(clients.Redis)
	if clients.Elastic != nil {
		a.Search = services.NewSearchIndex(clients.Elastic, cfg.ElasticIndex)
	}
	if clients.MinIO != nil {
		a.Images = services.NewImageStore(clients.MinIO, cfg.MinIOBucket, cfg.ImageURLTTL)
	}

	if cfg.SMTPHost != "" {
		a.Mailer = &utils.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	} else {
		log.Println("⚠️  SMTP_HOST not set, emails are only logged")
		a.Mailer = utils.LogMailer{}
	}

	a.Catalog = &catalog.Service{
		Products:   a.Store,
		Categories: a.Store,
		Cache:      a.Redis,
		PageSize:   cfg.ProductsPageSize,
	}
	// typed nils must not end up in the interfaces
	if a.Search != nil {
		a.Catalog.Index = a.Search
	}
	if a.Images != nil {
		a.Catalog.Images = a.Images
	}

	a.Orders = orders.NewService(a.Store, cfg.TaxRate, a.Mailer, cfg.BaseURL)
	return a, nil
}

// Handlers builds the HTTP layer, including the session manager backed by
// Firebase Authentication.
func (a *App) Handlers(ctx context.Context) (*handlers.Handlers, error) {
	if a.Clients.FirebaseAuth == nil {
		return nil, errors.New("sign-in needs Firebase Authentication (set FIREBASE_PROJECT_ID)")
	}
	provider, err := auth.NewFirebaseProvider(ctx, a.Clients.FirebaseAuth, a.Config.FirebaseAPIKey)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	notifier := cart.Notifiers{cart.LogNotifier{}, cart.RedisNotifier{Redis: a.Redis}}
	opts := cart.Options{MaxQuantity: a.Config.CartMaxQuantity, ClearRemote: a.Config.CartClearRemote}
	factory := func(uid string) *cart.Synchronizer {
		return cart.New(uid, a.Store, notifier, opts)
	}

	return &handlers.Handlers{
		Catalog:      a.Catalog,
		Sessions:     auth.NewManager(provider, []byte(a.Config.JWTSecret), a.Config.SessionTTL, a.Redis, factory),
		Orders:       a.Orders,
		Users:        a.Store,
		Redis:        a.Redis,
		Mailer:       a.Mailer,
		ContactEmail: a.Config.ContactEmail,
	}, nil
}

// Close releases the external clients; the Firestore store shares its client.
func (a *App) Close() {
	a.Clients.Close()
}
