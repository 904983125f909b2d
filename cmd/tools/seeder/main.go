package main

import (
	"context"
	"log"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ovenline/backend-bakery/internal/config"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// Seeds a development database with the standing bakery catalog and two
// accounts: admin/admin-password and cashier/cashier-password.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if cfg.MigrateOnStart {
		if err := repo.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	queries := repo.New(pool)
	seedUsers(ctx, queries)
	seedCatalog(ctx, pool, queries)
	log.Println("seeding complete")
}

func seedUsers(ctx context.Context, q *repo.Queries) {
	accounts := []struct {
		username, display, password, role string
	}{
		{"admin", "Store Manager", "admin-password", "admin"},
		{"cashier", "Front Counter", "cashier-password", "cashier"},
	}
	for _, a := range accounts {
		if _, err := q.GetUserByUsername(ctx, a.username); err == nil {
			log.Printf("user %s already exists, skipping", a.username)
			continue
		}
		hash, err := argon2id.CreateHash(a.password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("hash password for %s: %v", a.username, err)
		}
		if _, err := q.CreateUser(ctx, repo.CreateUserParams{
			Username:     a.username,
			DisplayName:  a.display,
			PasswordHash: hash,
			Role:         a.role,
		}); err != nil {
			log.Fatalf("create user %s: %v", a.username, err)
		}
		log.Printf("created user %s (%s)", a.username, a.role)
	}
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, q *repo.Queries) {
	categories := map[string]uuid.UUID{}
	for _, name := range []string{"Breads", "Pastries", "Cakes", "Drinks"} {
		var id uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			log.Fatalf("seed category %s: %v", name, err)
		}
		categories[name] = id
	}

	products := []struct {
		category, name, sku, price string
		stock                      int32
	}{
		{"Breads", "Sourdough loaf", "BRD-SOUR", "6.50", 20},
		{"Breads", "Baguette", "BRD-BAG", "3.25", 30},
		{"Breads", "Rye loaf", "BRD-RYE", "5.75", 12},
		{"Pastries", "Croissant", "PST-CROI", "3.20", 40},
		{"Pastries", "Pain au chocolat", "PST-PAC", "3.80", 35},
		{"Pastries", "Cinnamon roll", "PST-CIN", "4.10", 24},
		{"Cakes", "Carrot cake slice", "CKE-CAR", "5.50", 16},
		{"Cakes", "Wedding cake", "CKE-WED", "765.00", 2},
		{"Drinks", "Drip coffee", "DRK-COF", "2.75", 100},
		{"Drinks", "Fresh orange juice", "DRK-OJ", "4.25", 25},
	}
	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			log.Fatalf("parse price for %s: %v", p.sku, err)
		}
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`, p.sku).Scan(&exists); err != nil {
			log.Fatalf("check product %s: %v", p.sku, err)
		}
		if exists {
			log.Printf("product %s already exists, skipping", p.sku)
			continue
		}
		if _, err := q.CreateProduct(ctx, repo.CreateProductParams{
			CategoryID:    uuid.NullUUID{UUID: categories[p.category], Valid: true},
			Name:          p.name,
			SKU:           p.sku,
			Price:         price,
			StockQuantity: p.stock,
		}); err != nil {
			log.Fatalf("create product %s: %v", p.sku, err)
		}
		log.Printf("created product %s", p.sku)
	}
}
