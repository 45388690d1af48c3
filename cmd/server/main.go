package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rgoyal/smartbasket/internal"
	"github.com/rgoyal/smartbasket/internal/events"
	"github.com/rgoyal/smartbasket/internal/handler/api"
	"github.com/rgoyal/smartbasket/internal/middleware"
	"github.com/rgoyal/smartbasket/internal/postgres"
	"github.com/rgoyal/smartbasket/internal/router"
	"github.com/rgoyal/smartbasket/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	db, err := postgres.Connect(ctx, cfg.DatabaseUrl, cfg.StoreTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize stores
	catalogStore := postgres.NewCatalogStore(db)
	cartStore := postgres.NewCartStore(db)
	orderStore := postgres.NewOrderStore(db)
	userStore := postgres.NewUserStore(db)
	checkoutStore := postgres.NewCheckoutStore(db)

	// Initialize event publisher
	var publisher events.Publisher
	if cfg.NatsUrl != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsUrl)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS event publisher initialized", "url", cfg.NatsUrl)
	} else {
		publisher = events.NewLogPublisher(logger)
		logger.Info("NATS_URL not set, order events will only be logged")
	}

	// Initialize services
	userService := service.NewUserService(userStore)
	catalogService := service.NewCatalogService(catalogStore)
	cartService := service.NewCartService(cartStore, catalogStore)
	orderService := service.NewOrderService(orderStore, logger)
	checkoutService := service.NewCheckoutService(checkoutStore, publisher, logger)

	// Initialize handlers
	authHandler := api.NewAuthHandler(userService)
	productHandler := api.NewProductHandler(catalogService)
	cartHandler := api.NewCartHandler(cartService, checkoutService)
	orderHandler := api.NewOrderHandler(orderService)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("smartbasket")

	// Create router with the global middleware chain
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.CORS([]string{"*"}),
		router.Logger(logger),
		middleware.WithUser(userService),
		middleware.WithRequestLogger(logger),
	)

	// Metrics endpoint (no auth required, protect via firewall in production)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/logout", authHandler.Logout, middleware.RequireAuth)
	r.Get("/api/auth/me", authHandler.Me, middleware.RequireAuth)

	// Catalog (public reads)
	r.Get("/api/products", productHandler.List)
	r.Get("/api/products/search", productHandler.Search)
	r.Get("/api/products/{id}", productHandler.Get)

	// Catalog administration
	r.Post("/api/products", productHandler.Create, middleware.RequireAdmin)
	r.Put("/api/products/{id}", productHandler.Update, middleware.RequireAdmin)
	r.Delete("/api/products/{id}", productHandler.Delete, middleware.RequireAdmin)

	// Cart and checkout (authenticated)
	authed := r.Group(middleware.RequireAuth)
	authed.Get("/api/cart", cartHandler.Get)
	authed.Post("/api/cart/items", cartHandler.AddItem)
	authed.Delete("/api/cart/items/{product_id}", cartHandler.RemoveItem)
	authed.Post("/api/cart/checkout", cartHandler.Checkout)

	// Orders
	authed.Get("/api/orders", orderHandler.ListMine)
	authed.Get("/api/orders/{id}", orderHandler.Get)
	r.Get("/api/admin/orders", orderHandler.ListAll, middleware.RequireAdmin)
	r.Patch("/api/admin/orders/{id}/status", orderHandler.UpdateStatus, middleware.RequireAdmin)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
