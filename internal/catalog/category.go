// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// maxNameLength is the longest category or product name accepted.
const maxNameLength = 255

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name     string
	ParentID *uuid.UUID
}

// Categories returns all categories, newest first.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list categories")
	}
	return items, nil
}

// CreateCategory validates in, assigns a unique slug and stores the category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateCategory(ctx, in, uuid.Nil); err != nil {
		return nil, err
	}

	c := &models.Category{Name: in.Name, ParentID: in.ParentID}
	err := withUniqueSlug(ctx, in.Name, "", uuid.Nil, s.categories.SlugsWithPrefix, func(candidate string) error {
		c.Slug = candidate
		err := s.categories.Create(ctx, c)
		if err != nil && !errors.Is(err, store.ErrSlugTaken) {
			return apperr.Internal(err, "create category")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return c, nil
}

// UpdateCategory renames or re-parents a category. The slug is regenerated
// only when the name actually changes.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "find category")
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateCategory(ctx, in, id); err != nil {
		return nil, err
	}

	nameChanged := in.Name != c.Name
	c.Name = in.Name
	c.ParentID = in.ParentID

	save := func(candidate string) error {
		c.Slug = candidate
		err := s.categories.Update(ctx, c)
		if err != nil && !errors.Is(err, store.ErrSlugTaken) {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Category not found")
			}
			return apperr.Internal(err, "update category")
		}
		return err
	}

	if nameChanged {
		err = withUniqueSlug(ctx, in.Name, c.Slug, c.ID, s.categories.SlugsWithPrefix, save)
	} else {
		err = save(c.Slug)
		if errors.Is(err, store.ErrSlugTaken) {
			err = apperr.Conflict("slug %q is already taken", c.Slug)
		}
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return c, nil
}

// DeleteCategory removes a category. It is blocked while any product still
// belongs to it.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return apperr.Internal(err, "find category")
	}
	if c == nil {
		return apperr.NotFound("Category not found")
	}

	err = s.categories.Delete(ctx, id)
	if errors.Is(err, store.ErrInUse) {
		return apperr.Blocked("Category cannot be deleted because it has associated products.")
	}
	if err != nil {
		return apperr.Internal(err, "delete category")
	}

	s.invalidate(ctx)
	return nil
}

// validateCategory checks name and parent. selfID is uuid.Nil on create.
func (s *Service) validateCategory(ctx context.Context, in CategoryInput, selfID uuid.UUID) error {
	fields := apperr.Fields{}
	switch {
	case in.Name == "":
		fields.Add("name", "The name field is required.")
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		fields.Add("name", "The name may not be greater than 255 characters.")
	}

	if in.ParentID != nil {
		if *in.ParentID == selfID {
			fields.Add("parent_id", "A category cannot be its own parent.")
		} else {
			parent, err := s.categories.FindByID(ctx, *in.ParentID)
			if err != nil {
				return apperr.Internal(err, "find parent category")
			}
			if parent == nil {
				fields.Add("parent_id", "The selected parent id is invalid.")
			} else if selfID != uuid.Nil {
				cycle, err := s.descendsFrom(ctx, parent, selfID)
				if err != nil {
					return apperr.Internal(err, "walk parent categories")
				}
				if cycle {
					fields.Add("parent_id", "A category cannot be nested under one of its own subcategories.")
				}
			}
		}
	}
	return fields.Err()
}

// descendsFrom reports whether ancestor appears in the parent chain of c.
// A chain that already loops is cut at the first repeated category.
func (s *Service) descendsFrom(ctx context.Context, c *models.Category, ancestor uuid.UUID) (bool, error) {
	seen := map[uuid.UUID]bool{}
	for c != nil && c.ParentID != nil && !seen[c.ID] {
		if *c.ParentID == ancestor {
			return true, nil
		}
		seen[c.ID] = true
		next, err := s.categories.FindByID(ctx, *c.ParentID)
		if err != nil {
			return false, err
		}
		c = next
	}
	return false, nil
}
