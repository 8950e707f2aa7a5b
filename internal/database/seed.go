package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/slug"
)

// seedUser is a development account created on an empty database.
type seedUser struct {
	name, email, role string
}

var seedUsers = []seedUser{
	{"Admin", "admin@storefront.local", "admin"},
	{"Seller", "seller@storefront.local", "seller"},
	{"Customer", "user@storefront.local", "user"},
}

var seedCategories = []string{"Electronics", "Home & Garden", "Books", "Clothing"}

// Seed populates the database with initial development data: one account
// per role (password "password") and a handful of top-level categories.
// It does nothing if any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	for _, u := range seedUsers {
		_, err = db.Exec(`
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
		`, u.name, u.email, string(hash), u.role)
		if err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.email, err)
		}
	}

	for _, name := range seedCategories {
		_, err = db.Exec(`
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO NOTHING
		`, name, slug.Generate(name))
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", name, err)
		}
	}

	slog.Info("database seeded with development accounts",
		"admin", seedUsers[0].email,
		"seller", seedUsers[1].email,
		"user", seedUsers[2].email,
	)

	return nil
}
