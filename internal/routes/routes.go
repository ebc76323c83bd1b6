package routes

import (
	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/middleware"
)

// Options configures the router.
type Options struct {
	CORSOrigins []string
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.GET("/health", h.Health)

	api := r.Group("/api")

	// Catalog
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/categories", h.ListCategories)
	api.GET("/categories/:slug", h.GetCategory)
	api.GET("/search", middleware.SearchRateLimit(h.Redis), h.Search)

	// Auth
	api.POST("/auth/signin", middleware.LoginRateLimit(h.Redis), h.SignIn)
	api.POST("/auth/session", h.ExchangeSession)

	api.POST("/contact", h.Contact)

	authed := api.Group("", middleware.AuthRequired(h.Sessions))
	authed.POST("/auth/signout", h.SignOut)
	authed.GET("/me", h.Me)
	authed.PUT("/me/profile", h.UpdateProfile)

	// Cart
	authed.GET("/cart", h.GetCart)
	authed.POST("/cart/items", h.AddCartItem)
	authed.PUT("/cart/items/:id", h.UpdateCartItem)
	authed.DELETE("/cart/items/:id", h.RemoveCartItem)
	authed.DELETE("/cart", h.ClearCart)
	api.GET("/cart/ws", middleware.WebSocketAuth(h.Sessions), h.CartWebSocket)

	// Orders
	authed.POST("/checkout", h.Checkout)
	authed.GET("/orders", h.ListOrders)
	authed.GET("/orders/:id", h.GetOrder)
}
