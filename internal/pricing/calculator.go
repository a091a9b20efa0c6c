package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineSubtotal is unit price times quantity, unrounded.
func LineSubtotal(l Line) decimal.Decimal {
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineTax is the line subtotal times its tax rate, unrounded.
func LineTax(l Line) decimal.Decimal {
	return LineSubtotal(l).Mul(l.TaxRate)
}

func CartSubtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineSubtotal(l))
	}
	return total
}

// DiscountAmount returns the unrounded discount for lines, clamped to
// [0, cart subtotal], and why it is zero when it is.
func DiscountAmount(lines []Line, d *Discount, now time.Time) (decimal.Decimal, DiscountStatus) {
	amount, _, status := discountWithWeights(lines, d, now)
	return amount, status
}

// Applicability reports whether d can apply to a cart of the given subtotal
// at now, ignoring scope.
func Applicability(d *Discount, subtotal decimal.Decimal, now time.Time) DiscountStatus {
	if d == nil {
		return DiscountNone
	}
	switch {
	case !d.IsActive:
		return DiscountInactive
	case d.StartsAt != nil && now.Before(*d.StartsAt):
		return DiscountNotStarted
	case d.EndsAt != nil && !now.Before(*d.EndsAt):
		return DiscountExpired
	case d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit:
		return DiscountUsageLimitReached
	case d.MinPurchaseAmount != nil && subtotal.LessThan(*d.MinPurchaseAmount):
		return DiscountMinPurchaseNotMet
	case !wellFormed(d):
		return DiscountMalformed
	}
	return DiscountApplied
}

func wellFormed(d *Discount) bool {
	if d.Value.IsNegative() {
		return false
	}
	switch d.Type {
	case enums.DiscountTypePercentage:
		return d.Value.LessThanOrEqual(hundred)
	case enums.DiscountTypeFixed:
		return true
	case enums.DiscountTypeBuyXGetY:
		return d.BuyQuantity >= 1 && d.GetQuantity >= 1 && d.Value.LessThanOrEqual(hundred)
	}
	return false
}

// qualifies reports whether a line falls inside the discount scope.
func qualifies(l Line, d *Discount) bool {
	switch d.Scope {
	case enums.DiscountScopeSpecificProducts:
		return containsID(d.ProductIDs, l.ProductID)
	case enums.DiscountScopeSpecificCategories:
		return l.CategoryID != nil && containsID(d.CategoryIDs, *l.CategoryID)
	case enums.DiscountScopeEntireOrder, "":
		return true
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// discountWithWeights also returns per-line weights used to prorate the
// discount: qualifying subtotals for percentage and fixed, per-line
// deductions for buy X get Y.
func discountWithWeights(lines []Line, d *Discount, now time.Time) (decimal.Decimal, []decimal.Decimal, DiscountStatus) {
	weights := make([]decimal.Decimal, len(lines))
	for i := range weights {
		weights[i] = decimal.Zero
	}
	if d == nil {
		return decimal.Zero, weights, DiscountNone
	}

	subtotal := CartSubtotal(lines)
	if status := Applicability(d, subtotal, now); status != DiscountApplied {
		return decimal.Zero, weights, status
	}

	qualifying := decimal.Zero
	for i, l := range lines {
		if !qualifies(l, d) || l.Quantity <= 0 {
			continue
		}
		line := LineSubtotal(l)
		qualifying = qualifying.Add(line)
		weights[i] = line
	}
	if !qualifying.IsPositive() {
		return decimal.Zero, weights, DiscountNoQualifyingItems
	}

	var amount decimal.Decimal
	switch d.Type {
	case enums.DiscountTypePercentage:
		amount = qualifying.Mul(d.Value).Div(hundred)
	case enums.DiscountTypeFixed:
		amount = decimal.Min(d.Value, qualifying)
	case enums.DiscountTypeBuyXGetY:
		amount = decimal.Zero
		group := int64(d.BuyQuantity + d.GetQuantity)
		for i, l := range lines {
			if weights[i].IsZero() {
				continue
			}
			free := (int64(l.Quantity) / group) * int64(d.GetQuantity)
			deduction := l.UnitPrice.Mul(decimal.NewFromInt(free)).Mul(d.Value).Div(hundred)
			deduction = decimal.Min(deduction, weights[i])
			weights[i] = deduction
			amount = amount.Add(deduction)
		}
		if amount.IsZero() {
			return decimal.Zero, weights, DiscountNoQualifyingItems
		}
	}

	return clamp(amount, decimal.Zero, subtotal), weights, DiscountApplied
}

// prorate splits amount across weights without rounding.
func prorate(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	for i, w := range weights {
		shares[i] = decimal.Zero
		if w.IsPositive() {
			sum = sum.Add(w)
		}
	}
	if !sum.IsPositive() || amount.IsZero() {
		return shares
	}
	for i, w := range weights {
		if w.IsPositive() {
			shares[i] = amount.Mul(w).Div(sum)
		}
	}
	return shares
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// RoundToNearest rounds total to the nearest multiple of nearest. A
// non-positive nearest leaves total unchanged.
func RoundToNearest(total, nearest decimal.Decimal) decimal.Decimal {
	if !nearest.IsPositive() {
		return total
	}
	return Round2(total.Div(nearest).Round(0).Mul(nearest))
}

// Compute recomputes every amount from scratch. The total is built from the
// unrounded subtotal, discount and tax and rounded once at the end; the
// rounded parts are for display and line allocation, and RoundingAdjustment
// carries whatever separates their sum from the total.
func Compute(in Input, policy Policy) Totals {
	lines := in.Lines
	exactSubtotal := CartSubtotal(lines)
	subtotal := Round2(exactSubtotal)

	rawDiscount, weights, status := discountWithWeights(lines, in.Discount, in.Now)
	exactDiscount := clamp(rawDiscount, decimal.Zero, exactSubtotal)
	discount := clamp(Round2(exactDiscount), decimal.Zero, subtotal)
	lineDiscounts := Allocate(discount, weights)
	exactLineDiscounts := prorate(exactDiscount, weights)

	exempt := policy.HonorTaxExempt && in.TaxExempt
	rawTax := decimal.Zero
	lineRawTax := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		lineRawTax[i] = decimal.Zero
		if exempt {
			continue
		}
		base := LineSubtotal(l)
		if policy.TaxBase == enums.TaxBasePostDiscount {
			base = base.Sub(exactLineDiscounts[i])
		}
		if base.IsNegative() {
			base = decimal.Zero
		}
		lineRawTax[i] = base.Mul(l.TaxRate)
		rawTax = rawTax.Add(lineRawTax[i])
	}
	tax := Round2(rawTax)
	lineTaxes := Allocate(tax, lineRawTax)

	exact := exactSubtotal.Sub(exactDiscount).Add(rawTax)
	total := Round2(exact)
	if policy.NearestValue.IsPositive() {
		total = RoundToNearest(exact, policy.NearestValue)
	}

	out := Totals{
		Subtotal:           subtotal,
		Discount:           discount,
		Tax:                tax,
		Total:              total,
		RoundingAdjustment: total.Sub(subtotal.Sub(discount).Add(tax)),
		DiscountStatus:     status,
		Lines:              make([]LineTotals, len(lines)),
	}
	for i, l := range lines {
		lineSubtotal := Round2(LineSubtotal(l))
		out.Lines[i] = LineTotals{
			Subtotal: lineSubtotal,
			Discount: lineDiscounts[i],
			Tax:      lineTaxes[i],
			Net:      lineSubtotal.Sub(lineDiscounts[i]).Add(lineTaxes[i]),
		}
	}
	return out
}
