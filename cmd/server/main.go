package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/qes00/allahuv3/internal/auth"
	"github.com/qes00/allahuv3/internal/cart"
	"github.com/qes00/allahuv3/internal/config" // Internal config loader
	"github.com/qes00/allahuv3/internal/database"
	"github.com/qes00/allahuv3/internal/describe"
	"github.com/qes00/allahuv3/internal/handler"
	"github.com/qes00/allahuv3/internal/middleware"
	"github.com/qes00/allahuv3/internal/queue"
	"github.com/qes00/allahuv3/internal/repository"
	"github.com/qes00/allahuv3/internal/router" // Internal router setup
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter, the catalog response cache and the auth
	// snapshot. NewRedisClient returns nil when Redis is unreachable and
	// every consumer degrades to a pass-through.
	rdb := config.NewRedisClient()

	ctx := context.Background()

	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)

	backend := auth.NewSQLBackend(db, cfg)
	defer backend.Close()

	manager := auth.NewManager(backend, profiles, auth.NewSnapshotCache(rdb), cfg.AppBaseURL)
	manager.Initialize(ctx)
	defer manager.Dispose()

	store := cart.NewStore()

	// Gemini-backed product descriptions are optional. Without a key the
	// admin endpoint answers 503 and everything else keeps working.
	var gen *describe.Generator
	if cfg.GeminiAPIKey != "" {
		gen, err = describe.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("describe: generator unavailable: %v", err)
			gen = nil
		}
	}

	// The order consumer reconnects on its own; it only ever returns after
	// giving up entirely, so a failure here must not take the server down.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("queue: consumer stopped: %v", err)
		}
	}()

	deps := router.Deps{
		Cfg:      cfg,
		Redis:    rdb,
		Auth:     handler.NewAuthHandler(cfg, manager, backend, users, profiles),
		Catalog:  handler.NewCatalogHandler(products),
		Cart:     handler.NewCartHandler(store, products, cfg.TaxRate),
		Checkout: handler.NewCheckoutHandler(store, orders, users, cfg.TaxRate),
		Account:  handler.NewAccountHandler(profiles, users),
		Admin:    handler.NewAdminProductHandler(products, gen),
	}

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Register application routes
	router.RegisterPublic(e, deps)
	router.RegisterAuth(e, deps)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
