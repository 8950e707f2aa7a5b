// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. A product belongs to any number of
// categories through the product_categories link table.
type Product struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Slug        string          `db:"slug" json:"slug"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	SalesCount  int             `db:"sales_count" json:"sales_count"`
	Rating      float64         `db:"rating" json:"rating"`
	ImageURL    *string         `db:"image_url" json:"image_url"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	// Populated explicitly via ProductRepository.CategoriesFor.
	Categories []CategoryRef `db:"-" json:"categories"`
}

// ProductSort names an ordering for category product listings.
type ProductSort string

const (
	SortBestSell       ProductSort = "best_sell"
	SortTopRated       ProductSort = "top_rated"
	SortPriceHighToLow ProductSort = "price_high_to_low"
	SortPriceLowToHigh ProductSort = "price_low_to_high"
)

// ParseProductSort maps a query-string key to a ProductSort. Empty and
// unrecognized keys fall back to SortBestSell.
func ParseProductSort(key string) ProductSort {
	switch s := ProductSort(key); s {
	case SortTopRated, SortPriceHighToLow, SortPriceLowToHigh:
		return s
	default:
		return SortBestSell
	}
}
