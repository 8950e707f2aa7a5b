// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/models"
)

// ReviewStore manages product reviews.
type ReviewStore struct {
	db *sqlx.DB
}

// NewReviewStore returns a new ReviewStore.
func NewReviewStore(db *sqlx.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const reviewColumns = `id, product_id, user_id, rating, comment, created_at`

// ListByProduct returns a product's reviews, newest first.
func (s *ReviewStore) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	items := []models.Review{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT `+reviewColumns+` FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return items, nil
}

// Create stores a review and sets the product's rating to the average of
// all its reviews, in one transaction. It returns the new rating.
func (s *ReviewStore) Create(ctx context.Context, r *models.Review) (float64, error) {
	var rating float64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO product_reviews (product_id, user_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING `+reviewColumns,
			r.ProductID, r.UserID, r.Rating, r.Comment,
		).StructScan(r)
		if err != nil {
			return fmt.Errorf("create review: %w", err)
		}

		err = tx.GetContext(ctx, &rating, `
			UPDATE products
			SET rating = (SELECT AVG(rating)::DOUBLE PRECISION FROM product_reviews WHERE product_id = $1),
			    updated_at = NOW()
			WHERE id = $1
			RETURNING rating
		`, r.ProductID)
		if err != nil {
			return fmt.Errorf("update product rating: %w", err)
		}
		return nil
	})
	return rating, err
}
