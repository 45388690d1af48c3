// Command seed populates the database with an initial admin user and a
// small grocery catalog for local development.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rgoyal/smartbasket/internal"
	"github.com/rgoyal/smartbasket/internal/domain"
	"github.com/rgoyal/smartbasket/internal/postgres"
	"github.com/rgoyal/smartbasket/internal/service"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseUrl, cfg.StoreTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userStore := postgres.NewUserStore(db)
	catalogStore := postgres.NewCatalogStore(db)
	userService := service.NewUserService(userStore)

	// Admin user
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		logger.Warn("SMARTBASKET_ADMIN_EMAIL or SMARTBASKET_ADMIN_PASSWORD not set, skipping admin user")
	} else {
		admin, err := userService.Register(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		switch {
		case err == nil:
			// Register always creates plain users; promote explicitly.
			if _, err := db.Pool.Exec(ctx, `UPDATE users SET role = 'admin' WHERE id = $1`, admin.ID); err != nil {
				return fmt.Errorf("failed to promote admin user: %w", err)
			}
			logger.Info("Admin user created", "email", admin.Email)
		case domain.IsCode(err, domain.ECONFLICT):
			logger.Info("Admin user already exists", "email", cfg.Admin.Email)
		default:
			return fmt.Errorf("failed to create admin user: %w", err)
		}
	}

	// Starter catalog
	products := []struct {
		title    string
		desc     string
		price    string
		unit     string
		image    string
		category string
		featured bool
		stock    int32
	}{
		{"Organic Bananas", "Sweet organic bananas, sourced locally.", "29.90", "dozen", "https://img.smartbasket.dev/bananas.jpg", "fruit", true, 50},
		{"Fresh Spinach", "Crisp spinach leaves, washed and bagged.", "34.90", "bunch", "https://img.smartbasket.dev/spinach.jpg", "vegetables", false, 40},
		{"Whole Milk", "Full-cream milk from grass-fed cows.", "49.90", "litre", "https://img.smartbasket.dev/milk.jpg", "dairy", true, 30},
		{"Brown Bread", "Whole-wheat loaf, baked daily.", "44.00", "loaf", "https://img.smartbasket.dev/bread.jpg", "bakery", false, 25},
		{"Basmati Rice", "Aged long-grain basmati, 1kg pack.", "129.00", "kg", "https://img.smartbasket.dev/rice.jpg", "staples", false, 60},
	}

	existing, err := catalogStore.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Catalog already seeded, skipping products", "count", len(existing))
		return nil
	}

	for _, seed := range products {
		price, err := domain.ParsePrice(seed.price)
		if err != nil {
			return fmt.Errorf("invalid seed price %q: %w", seed.price, err)
		}

		p := &domain.Product{
			Title:       seed.title,
			Description: seed.desc,
			Price:       price,
			Unit:        seed.unit,
			Images:      []string{seed.image},
			Category:    seed.category,
			Featured:    seed.featured,
			Stock:       seed.stock,
		}
		if err := catalogStore.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create product %q: %w", seed.title, err)
		}
		logger.Info("Product created", "title", p.Title, "price", p.Price.String())
	}

	logger.Info("Seed completed")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
