package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/app"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/routes"
)

func main() {
	config.LoadEnv(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ Could not connect external services: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := a.Handlers(ctx)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	warmupCatalogCache(ctx, a)

	r := gin.Default()
	routes.RegisterRoutes(r, h, routes.Options{CORSOrigins: cfg.CORSOrigins})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("🚀 Storefront server listening on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("👋 Shutdown signal received")
	case err := <-errCh:
		log.Fatalf("❌ Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Graceful shutdown: %v", err)
	}
}

// warmupCatalogCache loads the category list so the first visitor does not
// pay for the Firestore round trip.
func warmupCatalogCache(ctx context.Context, a *app.App) {
	if !a.Redis.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := a.Catalog.ListCategories(ctx); err != nil {
		log.Printf("⚠️  Catalog cache warmup: %v", err)
		return
	}
	log.Println("✅ Catalog cache warmed up")
}
