package models

import "github.com/shopspring/decimal"

// AmountDecimals is the number of decimal places a money amount may carry.
const AmountDecimals = 2

// MaxAmount is the exclusive upper bound of a money amount. Prices and
// order totals are stored as NUMERIC(12, 2).
var MaxAmount = decimal.New(1, 10)

// AmountProblem describes why d cannot be stored as a money amount without
// rounding or overflow, as a sentence fragment ("may not ..."). It returns
// "" when d fits. The sign is left to the caller.
func AmountProblem(d decimal.Decimal) string {
	if !d.Equal(d.Truncate(AmountDecimals)) {
		return "may not have more than 2 decimal places"
	}
	if d.Abs().GreaterThanOrEqual(MaxAmount) {
		return "may not be greater than 9999999999.99"
	}
	return ""
}
