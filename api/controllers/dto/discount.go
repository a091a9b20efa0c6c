package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

type DiscountResponse struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Code              *string     `json:"code,omitempty"`
	Type              string      `json:"type"`
	Value             string      `json:"value"`
	BuyQuantity       int         `json:"buy_quantity,omitempty"`
	GetQuantity       int         `json:"get_quantity,omitempty"`
	MinPurchaseAmount *string     `json:"min_purchase_amount,omitempty"`
	Scope             string      `json:"scope"`
	ProductIDs        []uuid.UUID `json:"product_ids,omitempty"`
	CategoryIDs       []uuid.UUID `json:"category_ids,omitempty"`
	StartsAt          *time.Time  `json:"starts_at,omitempty"`
	EndsAt            *time.Time  `json:"ends_at,omitempty"`
	UsageLimit        *int        `json:"usage_limit,omitempty"`
	UsageCount        int         `json:"usage_count"`
	IsActive          bool        `json:"is_active"`
}

func NewDiscountResponse(d *models.Discount) DiscountResponse {
	if d == nil {
		return DiscountResponse{}
	}
	return DiscountResponse{
		ID:                d.ID,
		Name:              d.Name,
		Code:              d.Code,
		Type:              string(d.Type),
		Value:             Money(d.Value),
		BuyQuantity:       d.BuyQuantity,
		GetQuantity:       d.GetQuantity,
		MinPurchaseAmount: OptionalMoney(d.MinPurchaseAmount),
		Scope:             string(d.Scope),
		ProductIDs:        d.ProductIDs,
		CategoryIDs:       d.CategoryIDs,
		StartsAt:          d.StartsAt,
		EndsAt:            d.EndsAt,
		UsageLimit:        d.UsageLimit,
		UsageCount:        d.UsageCount,
		IsActive:          d.IsActive,
	}
}

func NewDiscountList(discounts []models.Discount) []DiscountResponse {
	out := make([]DiscountResponse, 0, len(discounts))
	for i := range discounts {
		out = append(out, NewDiscountResponse(&discounts[i]))
	}
	return out
}
