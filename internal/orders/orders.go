// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package orders writes orders and their lines as one unit. A create stores
// the header and every line or nothing; an update that carries lines
// replaces the whole line set in the same transaction as the header patch.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// Repository persists orders. Update must apply the patch and the line
// replacement atomically and return store.ErrNotFound for a missing order.
type Repository interface {
	List(ctx context.Context, userID *uuid.UUID) ([]models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch, lines *[]models.OrderLine) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductLookup resolves the products referenced by order lines.
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	CategoriesFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.CategoryRef, error)
}

// UserLookup checks that an order's owner exists.
type UserLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// LineInput is one requested order line. Pointer fields distinguish a
// missing value from zero.
type LineInput struct {
	ProductID *uuid.UUID
	UnitPrice *decimal.Decimal
	Quantity  *int
}

// Input carries a new order.
type Input struct {
	GrandTotal   *decimal.Decimal
	ShippingCost *decimal.Decimal
	Discount     *decimal.Decimal
	UserID       uuid.UUID
	Lines        []LineInput
}

// Patch carries an order update. Nil header fields are left untouched. A
// nil Lines keeps the current lines; a non-nil Lines (even empty) replaces
// them all.
type Patch struct {
	GrandTotal   *decimal.Decimal
	ShippingCost *decimal.Decimal
	Discount     *decimal.Decimal
	UserID       *uuid.UUID
	Lines        *[]LineInput
}

// Service implements order operations.
type Service struct {
	orders   Repository
	products ProductLookup
	users    UserLookup
}

// NewService creates an order service.
func NewService(orders Repository, products ProductLookup, users UserLookup) *Service {
	return &Service{orders: orders, products: products, users: users}
}

// List returns orders with their lines and products. A non-nil userID
// limits the result to that user's orders.
func (s *Service) List(ctx context.Context, userID *uuid.UUID) ([]models.Order, error) {
	items, err := s.orders.List(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "list orders")
	}
	if err := s.attachProducts(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one order with its lines and products.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "find order")
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	items := []models.Order{*o}
	if err := s.attachProducts(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create validates in and stores the order with its lines in input order.
// Every problem is reported in one validation error and nothing is written.
func (s *Service) Create(ctx context.Context, in Input) (*models.Order, error) {
	fields := apperr.Fields{}
	required(fields, "grand_total", in.GrandTotal)
	required(fields, "shipping_cost", in.ShippingCost)
	nonNegative(fields, "discount", in.Discount)
	if len(in.Lines) == 0 {
		fields.Add("order_details", "The order details field is required.")
	}
	lines, err := s.validateLines(ctx, fields, in.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.validateUser(ctx, fields, in.UserID); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	o := &models.Order{
		GrandTotal:   *in.GrandTotal,
		ShippingCost: *in.ShippingCost,
		UserID:       in.UserID,
		Lines:        lines,
	}
	if in.Discount != nil {
		o.Discount = *in.Discount
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal(err, "create order")
	}
	return s.Get(ctx, o.ID)
}

// Update patches the order header and, when p.Lines is set, replaces every
// line. A failure leaves the previous header and lines in place.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*models.Order, error) {
	existing, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "find order")
	}
	if existing == nil {
		return nil, apperr.NotFound("Order not found")
	}

	fields := apperr.Fields{}
	nonNegative(fields, "grand_total", p.GrandTotal)
	nonNegative(fields, "shipping_cost", p.ShippingCost)
	nonNegative(fields, "discount", p.Discount)
	if p.UserID != nil {
		if err := s.validateUser(ctx, fields, *p.UserID); err != nil {
			return nil, err
		}
	}
	var lines *[]models.OrderLine
	if p.Lines != nil {
		validated, err := s.validateLines(ctx, fields, *p.Lines)
		if err != nil {
			return nil, err
		}
		if validated == nil {
			validated = []models.OrderLine{}
		}
		lines = &validated
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	patch := models.OrderPatch{
		GrandTotal:   p.GrandTotal,
		ShippingCost: p.ShippingCost,
		Discount:     p.Discount,
		UserID:       p.UserID,
	}
	_, err = s.orders.Update(ctx, id, patch, lines)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "update order")
	}
	return s.Get(ctx, id)
}

// Delete removes an order and its lines.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return apperr.Internal(err, "find order")
	}
	if o == nil {
		return apperr.NotFound("Order not found")
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return apperr.Internal(err, "delete order")
	}
	return nil
}

// validateLines checks every line and that each referenced product exists.
// It returns the lines ready to store, or nil if any line is invalid.
func (s *Service) validateLines(ctx context.Context, fields apperr.Fields, in []LineInput) ([]models.OrderLine, error) {
	var ids []uuid.UUID
	for _, l := range in {
		if l.ProductID != nil {
			ids = append(ids, *l.ProductID)
		}
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err, "look up products")
	}

	valid := true
	lines := make([]models.OrderLine, 0, len(in))
	for i, l := range in {
		prefix := fmt.Sprintf("order_details.%d.", i)
		before := len(fields)

		switch {
		case l.ProductID == nil:
			fields.Add(prefix+"product_id", "The product id field is required.")
		case found[*l.ProductID] == nil:
			fields.Add(prefix+"product_id", "The selected product id is invalid.")
		}
		required(fields, prefix+"unit_price", l.UnitPrice)
		switch {
		case l.Quantity == nil:
			fields.Add(prefix+"quantity", "The quantity field is required.")
		case *l.Quantity < 1:
			fields.Add(prefix+"quantity", "The quantity must be at least 1.")
		}

		if len(fields) != before {
			valid = false
			continue
		}
		lines = append(lines, models.OrderLine{
			ProductID: *l.ProductID,
			UnitPrice: *l.UnitPrice,
			Quantity:  *l.Quantity,
		})
	}
	if !valid {
		return nil, nil
	}
	return lines, nil
}

func (s *Service) validateUser(ctx context.Context, fields apperr.Fields, id uuid.UUID) error {
	if id == uuid.Nil {
		fields.Add("user_id", "The user id field is required.")
		return nil
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return apperr.Internal(err, "look up user")
	}
	if !ok {
		fields.Add("user_id", "The selected user id is invalid.")
	}
	return nil
}

// attachProducts embeds each line's product, with its categories.
func (s *Service) attachProducts(ctx context.Context, items []models.Order) error {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, o := range items {
		for _, l := range o.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return apperr.Internal(err, "load order products")
	}
	refs, err := s.products.CategoriesFor(ctx, ids)
	if err != nil {
		return apperr.Internal(err, "load product categories")
	}
	for id, p := range products {
		p.Categories = refs[id]
		if p.Categories == nil {
			p.Categories = []models.CategoryRef{}
		}
	}
	for i := range items {
		for j := range items[i].Lines {
			items[i].Lines[j].Product = products[items[i].Lines[j].ProductID]
		}
	}
	return nil
}

// required records an error when v is missing or negative.
func required(fields apperr.Fields, name string, v *decimal.Decimal) {
	if v == nil {
		fields.Add(name, fmt.Sprintf("The %s field is required.", humanize(name)))
		return
	}
	nonNegative(fields, name, v)
}

// nonNegative records an error when v is present and is below zero or
// cannot be stored as a money amount.
func nonNegative(fields apperr.Fields, name string, v *decimal.Decimal) {
	switch {
	case v == nil:
	case v.IsNegative():
		fields.Add(name, fmt.Sprintf("The %s must be at least 0.", humanize(name)))
	default:
		if msg := models.AmountProblem(*v); msg != "" {
			fields.Add(name, fmt.Sprintf("The %s %s.", humanize(name), msg))
		}
	}
}

// humanize turns a field path such as "order_details.0.unit_price" into
// "unit price" for messages.
func humanize(field string) string {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	return strings.ReplaceAll(field, "_", " ")
}
