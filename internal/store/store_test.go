// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/database"
	"storefront/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "storefront")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "storefront")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "pgx")
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sqlx.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanCatalog removes test products and categories by slug. Products go
// first so the category foreign keys do not block the delete.
func cleanCatalog(t *testing.T, db *sqlx.DB, productSlugs, categorySlugs []string) {
	t.Helper()
	for _, slug := range productSlugs {
		db.Exec("DELETE FROM order_details WHERE product_id IN (SELECT id FROM products WHERE slug = $1)", slug)
		db.Exec("DELETE FROM products WHERE slug = $1", slug)
	}
	for _, slug := range categorySlugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// mustCategory creates a category or fails the test.
func mustCategory(t *testing.T, s *CategoryStore, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("create category %q: %v", slug, err)
	}
	return c
}

// mustProduct creates a product linked to categoryIDs or fails the test.
func mustProduct(t *testing.T, s *ProductStore, slug, price string, sales int, rating float64, categoryIDs ...uuid.UUID) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       slug,
		Slug:       slug,
		Price:      decimal.RequireFromString(price),
		SalesCount: sales,
		Rating:     rating,
	}
	if err := s.Create(context.Background(), p, categoryIDs); err != nil {
		t.Fatalf("create product %q: %v", slug, err)
	}
	return p
}
