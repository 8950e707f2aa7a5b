package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParseProductSort(t *testing.T) {
	tests := []struct {
		key  string
		want ProductSort
	}{
		{"", SortBestSell},
		{"best_sell", SortBestSell},
		{"top_rated", SortTopRated},
		{"price_high_to_low", SortPriceHighToLow},
		{"price_low_to_high", SortPriceLowToHigh},
		{"newest", SortBestSell},
		{"TOP_RATED", SortBestSell},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := ParseProductSort(tt.key); got != tt.want {
				t.Errorf("ParseProductSort(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestOrderPatchApply(t *testing.T) {
	userID := uuid.New()
	o := &Order{
		GrandTotal:   decimal.RequireFromString("100"),
		ShippingCost: decimal.RequireFromString("5"),
		Discount:     decimal.RequireFromString("0"),
		UserID:       userID,
	}

	total := decimal.RequireFromString("80.50")
	OrderPatch{GrandTotal: &total}.Apply(o)

	if !o.GrandTotal.Equal(total) {
		t.Errorf("grand_total: got %s, want %s", o.GrandTotal, total)
	}
	if !o.ShippingCost.Equal(decimal.RequireFromString("5")) {
		t.Errorf("shipping_cost changed: %s", o.ShippingCost)
	}
	if o.UserID != userID {
		t.Error("user_id changed by a patch that did not set it")
	}
}
