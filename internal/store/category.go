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

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sqlx.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, parent_id, created_at, updated_at`

// List returns all categories, newest first.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	items := []models.Category{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &c, nil
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return &c, nil
}

// SlugsWithPrefix returns the slugs that equal base or start with base
// followed by a hyphen. The row with excludeID is left out, so a category
// being renamed never collides with itself. Pass uuid.Nil to exclude nothing.
func (s *CategoryStore) SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error) {
	slugs := []string{}
	err := s.db.SelectContext(ctx, &slugs, `
		SELECT slug FROM categories
		WHERE (slug = $1 OR slug LIKE $2) AND id <> $3
	`, base, escapeLike(base)+`-%`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("category slugs with prefix: %w", err)
	}
	return slugs, nil
}

// ExistingIDs returns the subset of ids that name a category.
func (s *CategoryStore) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	found := []uuid.UUID{}
	if len(ids) == 0 {
		return found, nil
	}
	query, args, err := sqlx.In(`SELECT id FROM categories WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build category id query: %w", err)
	}
	if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("existing category ids: %w", err)
	}
	return found, nil
}

// Create inserts a new category and fills in its generated fields.
// Returns ErrSlugTaken if the slug is already used.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, slug, parent_id)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ParentID,
	).StructScan(c)
	if isSlugViolation(err) {
		return ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update saves name, slug and parent of an existing category.
// Returns ErrSlugTaken if the slug is already used by another category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRowxContext(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, parent_id = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.ParentID, c.ID,
	).StructScan(c)
	if isSlugViolation(err) {
		return ErrSlugTaken
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. Returns ErrInUse if products still reference it.
// Deleting a missing category is a no-op.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
