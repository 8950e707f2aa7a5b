// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog implements the category, product and review operations of
// the storefront: unique slug assignment, sorted category listings and
// rating upkeep. It talks to storage only through the repository interfaces
// below and returns *apperr.Error for anything the caller should report.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// maxSlugAttempts bounds how often a write is retried after losing a slug
// race to a concurrent writer.
const maxSlugAttempts = 5

// CategoryRepository is the category storage used by the service.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductRepository is the product storage used by the service.
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, sort models.ProductSort) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error)
	CategoriesFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.CategoryRef, error)
	Create(ctx context.Context, p *models.Product, categoryIDs []uuid.UUID) error
	Update(ctx context.Context, p *models.Product, categoryIDs *[]uuid.UUID) error
	SetImageURL(ctx context.Context, id uuid.UUID, url *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReviewRepository is the review storage used by the service. Create
// returns the product's recomputed rating.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
	Create(ctx context.Context, r *models.Review) (float64, error)
}

// ListingCache caches encoded category listings. Implementations are best
// effort and never fail a request. Generation changes on every
// InvalidateAll; keys built from an older generation are never read again.
type ListingCache interface {
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	InvalidateAll(ctx context.Context)
}

// Service implements the catalog operations.
type Service struct {
	categories CategoryRepository
	products   ProductRepository
	reviews    ReviewRepository
	cache      ListingCache
}

// NewService creates a catalog service. cache may be nil to disable
// listing caching.
func NewService(categories CategoryRepository, products ProductRepository, reviews ReviewRepository, cache ListingCache) *Service {
	return &Service{
		categories: categories,
		products:   products,
		reviews:    reviews,
		cache:      cache,
	}
}

// invalidate drops every cached listing after a catalog write.
func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}

// attachCategories fills the Categories field of each product.
func (s *Service) attachCategories(ctx context.Context, items []models.Product) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	refs, err := s.products.CategoriesFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Categories = refs[items[i].ID]
		if items[i].Categories == nil {
			items[i].Categories = []models.CategoryRef{}
		}
	}
	return nil
}
