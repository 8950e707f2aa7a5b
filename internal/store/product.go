// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/models"
)

// ProductStore manages products and their category links.
type ProductStore struct {
	db *sqlx.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sqlx.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, slug, description, price, sales_count, rating, image_url, created_at, updated_at`

// productOrderBy maps each sort to a fixed ORDER BY clause. Sort values never
// reach the SQL text directly. id is the tie-breaker so equal keys keep a
// stable order between requests.
var productOrderBy = map[models.ProductSort]string{
	models.SortBestSell:       "p.sales_count DESC, p.id ASC",
	models.SortTopRated:       "p.rating DESC, p.id ASC",
	models.SortPriceHighToLow: "p.price DESC, p.id ASC",
	models.SortPriceLowToHigh: "p.price ASC, p.id ASC",
}

// List returns all products, newest first. Categories are not attached.
func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	items := []models.Product{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// ListByCategory returns the products linked to a category in the given
// order. An unknown sort falls back to best selling first.
func (s *ProductStore) ListByCategory(ctx context.Context, categoryID uuid.UUID, sort models.ProductSort) ([]models.Product, error) {
	orderBy, ok := productOrderBy[sort]
	if !ok {
		orderBy = productOrderBy[models.SortBestSell]
	}

	items := []models.Product{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.sales_count,
		       p.rating, p.image_url, p.created_at, p.updated_at
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = $1
		ORDER BY `+orderBy, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return items, nil
}

// FindBySlug retrieves a product by slug. Returns nil if not found.
func (s *ProductStore) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by slug: %w", err)
	}
	return &p, nil
}

// FindByIDs returns the products with the given ids keyed by id. Missing ids
// are simply absent from the map.
func (s *ProductStore) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build product id query: %w", err)
	}
	var items []models.Product
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

// SlugsWithPrefix returns product slugs equal to base or starting with
// base followed by a hyphen, leaving out the product with excludeID.
func (s *ProductStore) SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error) {
	slugs := []string{}
	err := s.db.SelectContext(ctx, &slugs, `
		SELECT slug FROM products
		WHERE (slug = $1 OR slug LIKE $2) AND id <> $3
	`, base, escapeLike(base)+`-%`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("product slugs with prefix: %w", err)
	}
	return slugs, nil
}

// CategoriesFor returns the categories of each product, keyed by product id
// and sorted by category name.
func (s *ProductStore) CategoriesFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.CategoryRef, error) {
	out := make(map[uuid.UUID][]models.CategoryRef, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT pc.product_id, c.id, c.name, c.slug
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id IN (?)
		ORDER BY c.name, c.id
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}

	var rows []struct {
		ProductID uuid.UUID `db:"product_id"`
		models.CategoryRef
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("categories for products: %w", err)
	}
	for _, r := range rows {
		out[r.ProductID] = append(out[r.ProductID], r.CategoryRef)
	}
	return out, nil
}

// Create inserts a product and links it to categoryIDs in one transaction.
// Returns ErrSlugTaken if the slug is already used.
func (s *ProductStore) Create(ctx context.Context, p *models.Product, categoryIDs []uuid.UUID) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO products (name, slug, description, price, sales_count, rating, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			p.Name, p.Slug, p.Description, p.Price, p.SalesCount, p.Rating, p.ImageURL,
		).StructScan(p)
		if isSlugViolation(err) {
			return ErrSlugTaken
		}
		if err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return replaceCategories(ctx, tx, p.ID, categoryIDs)
	})
}

// Update saves the product's editable fields. When categoryIDs is non-nil
// the product's category set is replaced with it in the same transaction.
// Returns ErrSlugTaken or ErrNotFound.
func (s *ProductStore) Update(ctx context.Context, p *models.Product, categoryIDs *[]uuid.UUID) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			UPDATE products
			SET name = $1, slug = $2, description = $3, price = $4,
			    sales_count = $5, rating = $6, updated_at = NOW()
			WHERE id = $7
			RETURNING `+productColumns,
			p.Name, p.Slug, p.Description, p.Price, p.SalesCount, p.Rating, p.ID,
		).StructScan(p)
		if isSlugViolation(err) {
			return ErrSlugTaken
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if categoryIDs == nil {
			return nil
		}
		return replaceCategories(ctx, tx, p.ID, *categoryIDs)
	})
}

// replaceCategories makes categoryIDs the exact category set of a product.
// It runs inside the caller's tx and writes only the difference between the
// current and wanted sets.
func replaceCategories(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	var current []uuid.UUID
	err := tx.SelectContext(ctx, &current,
		`SELECT category_id FROM product_categories WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("load product categories: %w", err)
	}

	add, remove := diffIDs(current, categoryIDs)
	if len(remove) > 0 {
		query, args, err := sqlx.In(
			`DELETE FROM product_categories WHERE product_id = ? AND category_id IN (?)`,
			productID, remove)
		if err != nil {
			return fmt.Errorf("build unlink query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("unlink categories: %w", err)
		}
	}
	for _, id := range add {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			productID, id)
		if err != nil {
			return fmt.Errorf("link category %s: %w", id, err)
		}
	}
	return nil
}

// SetImageURL stores (or clears, when url is nil) the product's image URL.
func (s *ProductStore) SetImageURL(ctx context.Context, id uuid.UUID, url *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET image_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	return nil
}

// Delete removes a product and its category links. Returns ErrInUse when
// an order line still references the product.
func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
