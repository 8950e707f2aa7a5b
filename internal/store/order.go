// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/models"
)

// OrderStore persists orders together with their lines. Every write that
// touches lines runs in a single transaction.
type OrderStore struct {
	db *sqlx.DB
}

// NewOrderStore returns a new OrderStore.
func NewOrderStore(db *sqlx.DB) *OrderStore {
	return &OrderStore{db: db}
}

const (
	orderColumns     = `id, grand_total, shipping_cost, discount, user_id, created_at, updated_at`
	orderLineColumns = `id, order_id, product_id, unit_price, quantity, position`
)

// List returns orders newest first with their lines. A non-nil userID
// restricts the result to that user's orders.
func (s *OrderStore) List(ctx context.Context, userID *uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	var err error
	if userID != nil {
		err = s.db.SelectContext(ctx, &orders,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, *userID)
	} else {
		err = s.db.SelectContext(ctx, &orders,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	query, args, err := sqlx.In(
		`SELECT `+orderLineColumns+` FROM order_details WHERE order_id IN (?) ORDER BY position`, ids)
	if err != nil {
		return nil, fmt.Errorf("build order lines query: %w", err)
	}
	var lines []models.OrderLine
	if err := s.db.SelectContext(ctx, &lines, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	byOrder := make(map[uuid.UUID][]models.OrderLine, len(orders))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
		if orders[i].Lines == nil {
			orders[i].Lines = []models.OrderLine{}
		}
	}
	return orders, nil
}

// FindByID retrieves an order with its lines. Returns nil if not found.
func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o.Lines, err = loadLines(ctx, s.db, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create writes the header and then each line bound to the new order id, in
// input order. Either everything is stored or nothing is.
func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		lines := o.Lines
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (grand_total, shipping_cost, discount, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING `+orderColumns,
			o.GrandTotal, o.ShippingCost, o.Discount, o.UserID,
		).StructScan(o)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		o.Lines, err = insertLines(ctx, tx, o.ID, lines)
		return err
	})
}

// Update patches the order header and, when lines is non-nil, replaces the
// whole line set with *lines (an empty slice removes every line). The row is
// locked for the duration so concurrent updates serialize. Returns
// ErrNotFound if the order does not exist.
func (s *OrderStore) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch, lines *[]models.OrderLine) (*models.Order, error) {
	var o models.Order
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &o,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		patch.Apply(&o)
		err = tx.QueryRowxContext(ctx, `
			UPDATE orders
			SET grand_total = $1, shipping_cost = $2, discount = $3, user_id = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING `+orderColumns,
			o.GrandTotal, o.ShippingCost, o.Discount, o.UserID, o.ID,
		).StructScan(&o)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if lines == nil {
			o.Lines, err = loadLines(ctx, tx, id)
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_details WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		o.Lines, err = insertLines(ctx, tx, id, *lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes an order; its lines go with it.
func (s *OrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// insertLines stores lines for orderID numbering positions from zero and
// returns them with their generated fields.
func insertLines(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, lines []models.OrderLine) ([]models.OrderLine, error) {
	out := make([]models.OrderLine, 0, len(lines))
	for i, l := range lines {
		var saved models.OrderLine
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_details (order_id, product_id, unit_price, quantity, position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+orderLineColumns,
			orderID, l.ProductID, l.UnitPrice, l.Quantity, i,
		).StructScan(&saved)
		if err != nil {
			return nil, fmt.Errorf("insert order line %d: %w", i, err)
		}
		out = append(out, saved)
	}
	return out, nil
}

func loadLines(ctx context.Context, q sqlx.QueryerContext, orderID uuid.UUID) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	err := sqlx.SelectContext(ctx, q, &lines,
		`SELECT `+orderLineColumns+` FROM order_details WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	return lines, nil
}
