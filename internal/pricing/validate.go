package pricing

import (
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// ValidateDiscount enforces creation-time rules. The calculator itself never
// rejects a discount; it just applies nothing.
func ValidateDiscount(d Discount) error {
	problems := map[string]string{}

	if !d.Type.IsValid() {
		problems["type"] = "must be percentage, fixed or buy_x_get_y"
	}
	if d.Value.IsNegative() {
		problems["value"] = "must not be negative"
	}
	if d.Type == enums.DiscountTypePercentage && d.Value.GreaterThan(hundred) {
		problems["value"] = "percentage must be between 0 and 100"
	}
	if d.Type == enums.DiscountTypeBuyXGetY {
		if d.BuyQuantity < 1 {
			problems["buy_quantity"] = "must be at least 1"
		}
		if d.GetQuantity < 1 {
			problems["get_quantity"] = "must be at least 1"
		}
		if d.Value.GreaterThan(hundred) {
			problems["value"] = "percent off free units must be between 0 and 100"
		}
	}
	if d.MinPurchaseAmount != nil && d.MinPurchaseAmount.IsNegative() {
		problems["min_purchase_amount"] = "must not be negative"
	}

	switch d.Scope {
	case enums.DiscountScopeEntireOrder:
	case enums.DiscountScopeSpecificProducts:
		if len(d.ProductIDs) == 0 {
			problems["product_ids"] = "required for specific_products scope"
		}
	case enums.DiscountScopeSpecificCategories:
		if len(d.CategoryIDs) == 0 {
			problems["category_ids"] = "required for specific_categories scope"
		}
	default:
		problems["scope"] = "must be entire_order, specific_products or specific_categories"
	}

	if d.StartsAt != nil && d.EndsAt != nil && !d.EndsAt.After(*d.StartsAt) {
		problems["ends_at"] = "must be after starts_at"
	}
	if d.UsageLimit != nil && *d.UsageLimit < 1 {
		problems["usage_limit"] = "must be at least 1 when set"
	}

	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount").WithDetails(problems)
	}
	return nil
}
