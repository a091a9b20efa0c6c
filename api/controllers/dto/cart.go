package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

type CartItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Name       string     `json:"name"`
	UnitPrice  string     `json:"unit_price"`
	Quantity   int        `json:"quantity"`
	TaxRate    string     `json:"tax_rate"`
	LineTotal  string     `json:"line_total"`
}

type CartResponse struct {
	ID             uuid.UUID          `json:"id"`
	BranchID       uuid.UUID          `json:"branch_id"`
	Name           string             `json:"name"`
	IsActive       bool               `json:"is_active"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	DiscountID     *uuid.UUID         `json:"discount_id,omitempty"`
	DiscountStatus string             `json:"discount_status,omitempty"`
	Currency       string             `json:"currency,omitempty"`
	Subtotal       string             `json:"subtotal"`
	DiscountTotal  string             `json:"discount_total"`
	TaxTotal       string             `json:"tax_total"`
	TotalAmount    string             `json:"total_amount"`
	Items          []CartItemResponse `json:"items"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func NewCartResponse(c *models.Cart) CartResponse {
	if c == nil {
		return CartResponse{Items: []CartItemResponse{}}
	}
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			CategoryID: item.CategoryID,
			Name:       item.Name,
			UnitPrice:  Money(item.UnitPrice),
			Quantity:   item.Quantity,
			TaxRate:    item.TaxRate.String(),
			LineTotal:  Money(item.UnitPrice.Mul(decimalFromInt(item.Quantity))),
		})
	}
	return CartResponse{
		ID:            c.ID,
		BranchID:      c.BranchID,
		Name:          c.Name,
		IsActive:      c.IsActive,
		CustomerID:    c.CustomerID,
		DiscountID:    c.DiscountID,
		Subtotal:      Money(c.Subtotal),
		DiscountTotal: Money(c.DiscountTotal),
		TaxTotal:      Money(c.TaxTotal),
		TotalAmount:   Money(c.TotalAmount),
		Items:         items,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewCartViewResponse adds the discount outcome and currency to the cart.
func NewCartViewResponse(view *cart.View) CartResponse {
	if view == nil {
		return NewCartResponse(nil)
	}
	resp := NewCartResponse(view.Cart)
	resp.DiscountStatus = string(view.DiscountStatus)
	resp.Currency = view.Currency
	return resp
}

func NewCartList(carts []models.Cart) []CartResponse {
	out := make([]CartResponse, 0, len(carts))
	for i := range carts {
		out = append(out, NewCartResponse(&carts[i]))
	}
	return out
}
