// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storetest

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Orders is an in-memory store.OrderStore.
type Orders struct{ db *DB }

func (s *Orders) List(ctx context.Context, userID *uuid.UUID) ([]models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := []models.Order{}
	for _, o := range s.db.orders {
		if userID == nil || o.UserID == *userID {
			items = append(items, cloneOrder(o))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return lessID(items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Orders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orders[id]
	if !ok {
		return nil, nil
	}
	c := cloneOrder(o)
	return &c, nil
}

func (s *Orders) Create(ctx context.Context, o *models.Order) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.takeFailure() {
		return ErrInjected
	}
	if _, ok := s.db.users[o.UserID]; !ok {
		return errors.New("storetest: user does not exist")
	}
	id := uuid.New()
	lines, err := s.buildLines(id, o.Lines)
	if err != nil {
		return err
	}
	o.ID = id
	o.CreatedAt = s.db.tick()
	o.UpdatedAt = o.CreatedAt
	o.Lines = lines
	s.db.orders[id] = cloneOrder(*o)
	return nil
}

func (s *Orders) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch, lines *[]models.OrderLine) (*models.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.db.takeFailure() {
		return nil, ErrInjected
	}

	next := cloneOrder(current)
	patch.Apply(&next)
	if lines != nil {
		built, err := s.buildLines(id, *lines)
		if err != nil {
			return nil, err
		}
		next.Lines = built
	}
	next.UpdatedAt = s.db.tick()
	s.db.orders[id] = next

	out := cloneOrder(next)
	return &out, nil
}

func (s *Orders) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.orders, id)
	return nil
}

// buildLines applies the same checks as the order_details constraints and
// numbers the lines. Nothing is stored if any line is rejected.
func (s *Orders) buildLines(orderID uuid.UUID, in []models.OrderLine) ([]models.OrderLine, error) {
	out := make([]models.OrderLine, 0, len(in))
	for i, l := range in {
		if l.Quantity < 1 {
			return nil, errors.New("storetest: quantity must be at least 1")
		}
		if l.UnitPrice.IsNegative() {
			return nil, errors.New("storetest: unit price must not be negative")
		}
		if _, ok := s.db.products[l.ProductID]; !ok {
			return nil, errors.New("storetest: product does not exist")
		}
		out = append(out, models.OrderLine{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Position:  i,
		})
	}
	return out, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Lines = append([]models.OrderLine{}, o.Lines...)
	return o
}

// Users is an in-memory store.UserStore.
type Users struct{ db *DB }

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Users) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.users[id]
	return ok, nil
}

// Create stores a user. Hashing uses the minimum bcrypt cost to keep tests fast.
func (s *Users) Create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == email {
			return nil, store.ErrEmailTaken
		}
	}
	u := models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	u.CreatedAt = s.db.tick()
	u.UpdatedAt = u.CreatedAt
	s.db.users[u.ID] = u
	return &u, nil
}

func (s *Users) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[userID]; ok {
		u.TOTPSecret = &secret
		s.db.users[userID] = u
	}
	return nil
}

func (s *Users) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[userID]; ok {
		u.TOTPEnabled = true
		s.db.users[userID] = u
	}
	return nil
}

func (s *Users) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// Add creates a user with the given role or panics.
func (s *Users) Add(email string, role models.Role) models.User {
	u, err := s.Create(context.Background(), email, "password", email, role)
	if err != nil {
		panic("storetest: " + err.Error())
	}
	return *u
}
