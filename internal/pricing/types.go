package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Line is one priced cart line.
type Line struct {
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	UnitPrice  decimal.Decimal
	Quantity   int
	TaxRate    decimal.Decimal
}

// Discount carries the fields the calculator needs from a stored discount.
type Discount struct {
	Type              enums.DiscountType
	Value             decimal.Decimal
	BuyQuantity       int
	GetQuantity       int
	MinPurchaseAmount *decimal.Decimal
	Scope             enums.DiscountScope
	ProductIDs        []uuid.UUID
	CategoryIDs       []uuid.UUID
	StartsAt          *time.Time
	EndsAt            *time.Time
	UsageLimit        *int
	UsageCount        int
	IsActive          bool
}

// DiscountFromModel maps a persisted discount. A nil model yields nil.
func DiscountFromModel(m *models.Discount) *Discount {
	if m == nil {
		return nil
	}
	return &Discount{
		Type:              m.Type,
		Value:             m.Value,
		BuyQuantity:       m.BuyQuantity,
		GetQuantity:       m.GetQuantity,
		MinPurchaseAmount: m.MinPurchaseAmount,
		Scope:             m.Scope,
		ProductIDs:        m.ProductIDs,
		CategoryIDs:       m.CategoryIDs,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
		UsageLimit:        m.UsageLimit,
		UsageCount:        m.UsageCount,
		IsActive:          m.IsActive,
	}
}

// Policy holds the store-level switches that change how totals are built.
type Policy struct {
	TaxBase        enums.TaxBase
	HonorTaxExempt bool
	NearestValue   decimal.Decimal
}

// DefaultPolicy taxes pre-discount amounts, ignores tax exemption and does
// not round to a cash denomination.
func DefaultPolicy() Policy {
	return Policy{TaxBase: enums.TaxBasePreDiscount, NearestValue: decimal.Zero}
}

// Input is everything Compute looks at.
type Input struct {
	Lines     []Line
	Discount  *Discount
	TaxExempt bool
	Now       time.Time
}

// DiscountStatus explains a zero discount to the cashier. It is data, not an error.
type DiscountStatus string

const (
	DiscountNone              DiscountStatus = ""
	DiscountApplied           DiscountStatus = "applied"
	DiscountInactive          DiscountStatus = "inactive"
	DiscountNotStarted        DiscountStatus = "not_started"
	DiscountExpired           DiscountStatus = "expired"
	DiscountUsageLimitReached DiscountStatus = "usage_limit_reached"
	DiscountMinPurchaseNotMet DiscountStatus = "min_purchase_not_met"
	DiscountNoQualifyingItems DiscountStatus = "no_qualifying_items"
	DiscountMalformed         DiscountStatus = "malformed"
)

// LineTotals is one line's share of the cart totals. Shares sum exactly to
// the cart amounts.
type LineTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Net      decimal.Decimal
}

// Totals are rounded to cents. Total already includes any nearest-value
// rounding; RoundingAdjustment is Total minus Subtotal - Discount + Tax.
type Totals struct {
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	Tax                decimal.Decimal
	Total              decimal.Decimal
	RoundingAdjustment decimal.Decimal
	DiscountStatus     DiscountStatus
	Lines              []LineTotals
}
