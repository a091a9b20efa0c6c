package enums

import (
	"fmt"
	"strings"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeBuyXGetY   DiscountType = "buy_x_get_y"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixed,
	DiscountTypeBuyXGetY,
}

func (d DiscountType) String() string {
	return string(d)
}

func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType accepts either case, e.g. "PERCENTAGE" or "percentage".
func ParseDiscountType(value string) (DiscountType, error) {
	normalized := DiscountType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// DiscountScope restricts which cart lines a discount qualifies.
type DiscountScope string

const (
	DiscountScopeEntireOrder        DiscountScope = "entire_order"
	DiscountScopeSpecificProducts   DiscountScope = "specific_products"
	DiscountScopeSpecificCategories DiscountScope = "specific_categories"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeEntireOrder,
	DiscountScopeSpecificProducts,
	DiscountScopeSpecificCategories,
}

func (s DiscountScope) String() string {
	return string(s)
}

func (s DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseDiscountScope(value string) (DiscountScope, error) {
	normalized := DiscountScope(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}
