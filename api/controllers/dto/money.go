package dto

import "github.com/shopspring/decimal"

// Money renders amounts as fixed two-place strings so clients never parse
// floats.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func OptionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := Money(*d)
	return &s
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}
