// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is an order header. It owns its lines: they are written with the
// header and deleted with it.
type Order struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	GrandTotal   decimal.Decimal `db:"grand_total" json:"grand_total"`
	ShippingCost decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Lines []OrderLine `db:"-" json:"order_details"`
}

// OrderLine is one product/quantity/price entry of an order. Position keeps
// the order in which lines were submitted.
type OrderLine struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	OrderID   uuid.UUID       `db:"order_id" json:"order_id"`
	ProductID uuid.UUID       `db:"product_id" json:"product_id"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Position  int             `db:"position" json:"-"`

	Product *Product `db:"-" json:"product,omitempty"`
}

// OrderPatch lists header fields to change. Nil fields are left untouched.
type OrderPatch struct {
	GrandTotal   *decimal.Decimal
	ShippingCost *decimal.Decimal
	Discount     *decimal.Decimal
	UserID       *uuid.UUID
}

// Apply copies the non-nil fields of p onto o.
func (p OrderPatch) Apply(o *Order) {
	if p.GrandTotal != nil {
		o.GrandTotal = *p.GrandTotal
	}
	if p.ShippingCost != nil {
		o.ShippingCost = *p.ShippingCost
	}
	if p.Discount != nil {
		o.Discount = *p.Discount
	}
	if p.UserID != nil {
		o.UserID = *p.UserID
	}
}
