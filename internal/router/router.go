package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/qes00/allahuv3/internal/config"
	"github.com/qes00/allahuv3/internal/handler"    // import the handlers that implement business logic
	"github.com/qes00/allahuv3/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Deps bundles everything the route table needs. main constructs the
// handlers; this package only decides which middleware guards which path.
type Deps struct {
	Cfg      config.Config
	Redis    *redis.Client
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Account  *handler.AccountHandler
	Admin    *handler.AdminProductHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, d Deps) {
	// Operations that do not require an existing session: registration,
	// password login and the Google redirect pair.  The callback is hit by
	// the provider, never by an authenticated client.
	g := e.Group("/v1/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.GET("/google", d.Auth.GoogleStart)
	g.GET("/google/callback", d.Auth.GoogleCallback)
	// Logout clears local session state unconditionally, so it lives outside
	// the protected group and always answers 204.
	g.POST("/logout", d.Auth.Logout)

	// Routes that require a valid access token.  All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	auth.Use(middleware.RequireRole("customer", "admin"))
	auth.GET("/me", d.Auth.Me)
	auth.GET("/account", d.Account.Get)
	auth.PUT("/account", d.Account.Update)
	auth.POST("/checkout", d.Checkout.Checkout)
	auth.GET("/orders", d.Checkout.ListOrders)

	// Admin catalog management.  Same JWT gate, but only the admin role
	// passes RequireRole here.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("/products", d.Admin.Create)
	admin.PUT("/products/:id", d.Admin.Update)
	admin.POST("/products/describe", d.Admin.Describe)
}

// RegisterPublic registers unauthenticated browse and cart endpoints.  The
// catalog routes sit behind the Redis response cache; cart routes never do,
// their payload depends on the caller's cart token.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)

	// Expose the product catalog.  ?category= filters the list.
	e.GET("/v1/products", d.Catalog.List, cache)
	e.GET("/v1/products/:id", d.Catalog.Get, cache)

	// Cart endpoints work for guests and signed-in users alike: an optional
	// JWT upgrades the owner key from the X-Cart-Token header to the user id.
	cartGroup := e.Group("/v1/cart")
	cartGroup.Use(middleware.OptionalJWT(d.Cfg.JWTSecret))
	cartGroup.GET("", d.Cart.Get)
	cartGroup.POST("/items", d.Cart.AddItem)
	cartGroup.DELETE("/items/:id", d.Cart.RemoveItem)
}
