// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// maxCommentLength is the longest review comment accepted, in bytes.
const maxCommentLength = 5000

// ReviewInput carries a new review.
type ReviewInput struct {
	Rating  int
	Comment string
}

// Reviews returns the reviews of the product with the given slug.
func (s *Service) Reviews(ctx context.Context, productSlug string) ([]models.Review, error) {
	p, err := s.findProduct(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	items, err := s.reviews.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, apperr.Internal(err, "list reviews")
	}
	return items, nil
}

// AddReview stores a review by userID and returns it together with the
// product's refreshed rating.
func (s *Service) AddReview(ctx context.Context, productSlug string, userID uuid.UUID, in ReviewInput) (*models.Review, float64, error) {
	in.Comment = strings.TrimSpace(in.Comment)

	fields := apperr.Fields{}
	if in.Rating < 1 || in.Rating > 5 {
		fields.Add("rating", "The rating must be between 1 and 5.")
	}
	if len(in.Comment) > maxCommentLength {
		fields.Add("comment", "The comment may not be greater than 5000 characters.")
	}
	if err := fields.Err(); err != nil {
		return nil, 0, err
	}

	p, err := s.findProduct(ctx, productSlug)
	if err != nil {
		return nil, 0, err
	}

	r := &models.Review{ProductID: p.ID, UserID: userID, Rating: in.Rating, Comment: in.Comment}
	rating, err := s.reviews.Create(ctx, r)
	if err != nil {
		return nil, 0, apperr.Internal(err, "create review")
	}

	s.invalidate(ctx)
	return r, rating, nil
}
