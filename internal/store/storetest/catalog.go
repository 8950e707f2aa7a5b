// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Categories is an in-memory store.CategoryStore.
type Categories struct{ db *DB }

func (s *Categories) List(ctx context.Context) ([]models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	items := make([]models.Category, 0, len(s.db.categories))
	for _, c := range s.db.categories {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return lessID(items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Categories) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c, ok := s.db.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Categories) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Categories) SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []string
	for id, c := range s.db.categories {
		if id != excludeID && matchesPrefix(c.Slug, base) {
			out = append(out, c.Slug)
		}
	}
	return out, nil
}

func (s *Categories) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := s.db.categories[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Categories) Create(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.takeSlugRace() || s.slugTaken(c.Slug, uuid.Nil) {
		return store.ErrSlugTaken
	}
	c.ID = uuid.New()
	c.CreatedAt = s.db.tick()
	c.UpdatedAt = c.CreatedAt
	s.db.categories[c.ID] = *c
	return nil
}

func (s *Categories) Update(ctx context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	old, ok := s.db.categories[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.db.takeSlugRace() || s.slugTaken(c.Slug, c.ID) {
		return store.ErrSlugTaken
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.db.tick()
	s.db.categories[c.ID] = *c
	return nil
}

func (s *Categories) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, cats := range s.db.links {
		if cats[id] {
			return store.ErrInUse
		}
	}
	delete(s.db.categories, id)
	for cid, c := range s.db.categories {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
			s.db.categories[cid] = c
		}
	}
	return nil
}

// Add inserts a category directly, bypassing slug generation.
func (s *Categories) Add(name, slug string) models.Category {
	c := models.Category{Name: name, Slug: slug}
	if err := s.Create(context.Background(), &c); err != nil {
		panic("storetest: " + err.Error())
	}
	return c
}

func (s *Categories) slugTaken(slug string, self uuid.UUID) bool {
	for id, c := range s.db.categories {
		if id != self && c.Slug == slug {
			return true
		}
	}
	return false
}

// Products is an in-memory store.ProductStore.
type Products struct{ db *DB }

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := make([]models.Product, 0, len(s.db.products))
	for _, p := range s.db.products {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return lessID(items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Products) ListByCategory(ctx context.Context, categoryID uuid.UUID, by models.ProductSort) ([]models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := []models.Product{}
	for id, p := range s.db.products {
		if s.db.links[id][categoryID] {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch by {
		case models.SortTopRated:
			c = compareFloat(b.Rating, a.Rating)
		case models.SortPriceHighToLow:
			c = b.Price.Cmp(a.Price)
		case models.SortPriceLowToHigh:
			c = a.Price.Cmp(b.Price)
		default:
			c = b.SalesCount - a.SalesCount
		}
		if c != 0 {
			return c < 0
		}
		return lessID(a.ID, b.ID)
	})
	return items, nil
}

func (s *Products) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.products {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Products) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.db.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (s *Products) SlugsWithPrefix(ctx context.Context, base string, excludeID uuid.UUID) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []string
	for id, p := range s.db.products {
		if id != excludeID && matchesPrefix(p.Slug, base) {
			out = append(out, p.Slug)
		}
	}
	return out, nil
}

func (s *Products) CategoriesFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.CategoryRef, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make(map[uuid.UUID][]models.CategoryRef, len(productIDs))
	for _, pid := range productIDs {
		for cid := range s.db.links[pid] {
			c := s.db.categories[cid]
			out[pid] = append(out[pid], c.Ref())
		}
		refs := out[pid]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Name != refs[j].Name {
				return refs[i].Name < refs[j].Name
			}
			return lessID(refs[i].ID, refs[j].ID)
		})
	}
	return out, nil
}

func (s *Products) Create(ctx context.Context, p *models.Product, categoryIDs []uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.takeSlugRace() || s.slugTaken(p.Slug, uuid.Nil) {
		return store.ErrSlugTaken
	}
	if s.db.takeFailure() {
		return ErrInjected
	}
	if err := s.checkCategories(categoryIDs); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt = s.db.tick()
	p.UpdatedAt = p.CreatedAt
	s.db.products[p.ID] = *p
	s.setLinks(p.ID, categoryIDs)
	return nil
}

func (s *Products) Update(ctx context.Context, p *models.Product, categoryIDs *[]uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	old, ok := s.db.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.db.takeSlugRace() || s.slugTaken(p.Slug, p.ID) {
		return store.ErrSlugTaken
	}
	if s.db.takeFailure() {
		return ErrInjected
	}
	if categoryIDs != nil {
		if err := s.checkCategories(*categoryIDs); err != nil {
			return err
		}
	}
	p.CreatedAt = old.CreatedAt
	p.ImageURL = old.ImageURL
	p.UpdatedAt = s.db.tick()
	s.db.products[p.ID] = *p
	if categoryIDs != nil {
		s.setLinks(p.ID, *categoryIDs)
	}
	return nil
}

func (s *Products) SetImageURL(ctx context.Context, id uuid.UUID, url *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.products[id]; ok {
		p.ImageURL = url
		s.db.products[id] = p
	}
	return nil
}

func (s *Products) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.orders {
		for _, l := range o.Lines {
			if l.ProductID == id {
				return store.ErrInUse
			}
		}
	}
	delete(s.db.products, id)
	delete(s.db.links, id)
	kept := s.db.reviews[:0]
	for _, r := range s.db.reviews {
		if r.ProductID != id {
			kept = append(kept, r)
		}
	}
	s.db.reviews = kept
	return nil
}

// Add inserts a product directly with the given slug and categories.
func (s *Products) Add(p models.Product, categoryIDs ...uuid.UUID) models.Product {
	if p.Name == "" {
		p.Name = p.Slug
	}
	if err := s.Create(context.Background(), &p, categoryIDs); err != nil {
		panic("storetest: " + err.Error())
	}
	return p
}

func (s *Products) slugTaken(slug string, self uuid.UUID) bool {
	for id, p := range s.db.products {
		if id != self && p.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Products) checkCategories(ids []uuid.UUID) error {
	for _, id := range ids {
		if _, ok := s.db.categories[id]; !ok {
			return errors.New("storetest: category " + id.String() + " does not exist")
		}
	}
	return nil
}

func (s *Products) setLinks(productID uuid.UUID, categoryIDs []uuid.UUID) {
	set := make(map[uuid.UUID]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		set[id] = true
	}
	s.db.links[productID] = set
}

// Reviews is an in-memory store.ReviewStore.
type Reviews struct{ db *DB }

func (s *Reviews) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := []models.Review{}
	for i := len(s.db.reviews) - 1; i >= 0; i-- {
		if s.db.reviews[i].ProductID == productID {
			items = append(items, s.db.reviews[i])
		}
	}
	return items, nil
}

func (s *Reviews) Create(ctx context.Context, r *models.Review) (float64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.products[r.ProductID]
	if !ok {
		return 0, errors.New("storetest: product does not exist")
	}
	if s.db.takeFailure() {
		return 0, ErrInjected
	}
	r.ID = uuid.New()
	r.CreatedAt = s.db.tick()
	s.db.reviews = append(s.db.reviews, *r)

	var sum, n int
	for _, rv := range s.db.reviews {
		if rv.ProductID == r.ProductID {
			sum += rv.Rating
			n++
		}
	}
	p.Rating = float64(sum) / float64(n)
	s.db.products[p.ID] = p
	return p.Rating, nil
}

// matchesPrefix mirrors the SQL filter slug = base OR slug LIKE base || '-%'.
func matchesPrefix(slug, base string) bool {
	return slug == base || strings.HasPrefix(slug, base+"-")
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
