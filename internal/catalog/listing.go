// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"encoding/json"
	"log/slog"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/models"
)

// CategoryProducts lists the products of the category with the given slug,
// ordered by sortKey. Unknown or empty sort keys fall back to best selling
// first. Results are served from the listing cache when one is configured.
func (s *Service) CategoryProducts(ctx context.Context, categorySlug, sortKey string) ([]models.Product, error) {
	sort := models.ParseProductSort(sortKey)

	// The generation is read before the database so a write that lands
	// while this listing is built retires the key it is stored under.
	var gen int64
	cached := false
	if s.cache != nil {
		gen, cached = s.cache.Generation(ctx)
	}
	key := cache.ListingKey(gen, categorySlug, string(sort))

	if cached {
		if data, ok := s.cache.Get(ctx, key); ok {
			var items []models.Product
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
			slog.Warn("discarding unreadable cached listing", "key", key)
		}
	}

	c, err := s.categories.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, apperr.Internal(err, "find category")
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}

	items, err := s.products.ListByCategory(ctx, c.ID, sort)
	if err != nil {
		return nil, apperr.Internal(err, "list category products")
	}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, apperr.Internal(err, "load product categories")
	}

	if cached {
		if data, err := json.Marshal(items); err == nil {
			s.cache.Set(ctx, key, data)
		}
	}
	return items, nil
}
