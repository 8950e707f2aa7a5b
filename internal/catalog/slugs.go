// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/slug"
	"storefront/internal/store"
)

// slugLister returns the slugs sharing a base, leaving out one row.
type slugLister func(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error)

// withUniqueSlug picks a slug for name that is free in the collection and
// calls write with it. When write reports store.ErrSlugTaken (another
// writer claimed the slug in between) the candidate is marked as taken and
// the next one is tried, up to maxSlugAttempts times.
func withUniqueSlug(ctx context.Context, name, self string, selfID uuid.UUID, list slugLister, write func(candidate string) error) error {
	base := slug.Generate(name)
	if base == "" {
		return apperr.InvalidInput("name must contain at least one letter or digit")
	}

	existing, err := list(ctx, base, selfID)
	if err != nil {
		return apperr.Internal(err, "load existing slugs")
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate, err := slug.Unique(name, existing, self)
		if err != nil {
			return apperr.InvalidInput("name must contain at least one letter or digit")
		}

		err = write(candidate)
		if !errors.Is(err, store.ErrSlugTaken) {
			return err
		}
		existing = append(existing, candidate)
	}
	return apperr.Conflict("could not find a free slug for %q, try again", name)
}
