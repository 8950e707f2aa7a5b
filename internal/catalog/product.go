// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// ProductInput carries the fields of a new product. Price is a pointer so
// a missing value can be told apart from zero.
type ProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Categories  []uuid.UUID
}

// ProductPatch carries a product update. Name and Price are required; the
// other fields are left untouched when nil. A non-nil Categories replaces
// the product's category set.
type ProductPatch struct {
	Name        string
	Price       *decimal.Decimal
	Description *string
	SalesCount  *int
	Rating      *float64
	Categories  *[]uuid.UUID
}

// Products returns all products with their categories.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	items, err := s.products.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list products")
	}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, apperr.Internal(err, "load product categories")
	}
	return items, nil
}

// Product returns one product by slug with its categories.
func (s *Service) Product(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.findProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	items := []models.Product{*p}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, apperr.Internal(err, "load product categories")
	}
	return &items[0], nil
}

// CreateProduct validates in, assigns a unique slug and stores the product
// linked to its categories.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)

	fields := apperr.Fields{}
	validateName(fields, in.Name)
	if strings.TrimSpace(in.Description) == "" {
		fields.Add("description", "The description field is required.")
	}
	validatePrice(fields, in.Price)
	if len(in.Categories) == 0 {
		fields.Add("categories", "The categories field is required.")
	}
	if err := s.validateCategoryIDs(ctx, fields, in.Categories); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
	}
	err := withUniqueSlug(ctx, in.Name, "", uuid.Nil, s.products.SlugsWithPrefix, func(candidate string) error {
		p.Slug = candidate
		err := s.products.Create(ctx, p, in.Categories)
		if err != nil && !errors.Is(err, store.ErrSlugTaken) {
			return apperr.Internal(err, "create product")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.Product(ctx, p.Slug)
}

// UpdateProduct applies patch to the product identified by slug. A new slug
// is assigned only when the name changes.
func (s *Service) UpdateProduct(ctx context.Context, slug string, patch ProductPatch) (*models.Product, error) {
	patch.Name = strings.TrimSpace(patch.Name)

	fields := apperr.Fields{}
	validateName(fields, patch.Name)
	validatePrice(fields, patch.Price)
	if patch.SalesCount != nil && *patch.SalesCount < 0 {
		fields.Add("sales_count", "The sales count must be at least 0.")
	}
	if patch.Rating != nil && (*patch.Rating < 0 || *patch.Rating > 5) {
		fields.Add("rating", "The rating must be between 0 and 5.")
	}
	if patch.Categories != nil {
		if err := s.validateCategoryIDs(ctx, fields, *patch.Categories); err != nil {
			return nil, err
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	p, err := s.findProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	nameChanged := patch.Name != p.Name
	p.Name = patch.Name
	p.Price = *patch.Price
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.SalesCount != nil {
		p.SalesCount = *patch.SalesCount
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}

	save := func(candidate string) error {
		p.Slug = candidate
		err := s.products.Update(ctx, p, patch.Categories)
		if err != nil && !errors.Is(err, store.ErrSlugTaken) {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Product not found")
			}
			return apperr.Internal(err, "update product")
		}
		return err
	}

	if nameChanged {
		err = withUniqueSlug(ctx, patch.Name, p.Slug, p.ID, s.products.SlugsWithPrefix, save)
	} else {
		err = save(p.Slug)
		if errors.Is(err, store.ErrSlugTaken) {
			err = apperr.Conflict("slug %q is already taken", p.Slug)
		}
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.Product(ctx, p.Slug)
}

// DeleteProduct removes a product. Products that appear on an order cannot
// be deleted.
func (s *Service) DeleteProduct(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.findProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	err = s.products.Delete(ctx, p.ID)
	if errors.Is(err, store.ErrInUse) {
		return nil, apperr.Blocked("Product cannot be deleted because it appears on existing orders.")
	}
	if err != nil {
		return nil, apperr.Internal(err, "delete product")
	}

	s.invalidate(ctx)
	return p, nil
}

// SetProductImage stores url as the product's image and returns the product
// as it was before the change, so the caller can clean up the old file.
func (s *Service) SetProductImage(ctx context.Context, slug string, url *string) (*models.Product, error) {
	p, err := s.findProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.products.SetImageURL(ctx, p.ID, url); err != nil {
		return nil, apperr.Internal(err, "set product image")
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *Service) findProduct(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Internal(err, "find product")
	}
	if p == nil {
		return nil, apperr.NotFound("Product not found")
	}
	return p, nil
}

// validateCategoryIDs records a field error for every id that does not name
// an existing category.
func (s *Service) validateCategoryIDs(ctx context.Context, fields apperr.Fields, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.categories.ExistingIDs(ctx, ids)
	if err != nil {
		return apperr.Internal(err, "check categories")
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for i, id := range ids {
		if !known[id] {
			fields.Add(fmt.Sprintf("categories.%d", i), "The selected category is invalid.")
		}
	}
	return nil
}

func validateName(fields apperr.Fields, name string) {
	switch {
	case name == "":
		fields.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		fields.Add("name", "The name may not be greater than 255 characters.")
	}
}

func validatePrice(fields apperr.Fields, price *decimal.Decimal) {
	switch {
	case price == nil:
		fields.Add("price", "The price field is required.")
	case price.IsNegative():
		fields.Add("price", "The price must be at least 0.")
	default:
		if msg := models.AmountProblem(*price); msg != "" {
			fields.Add("price", "The price "+msg+".")
		}
	}
}
