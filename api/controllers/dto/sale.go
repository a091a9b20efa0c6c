package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

type SaleItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPrice      string    `json:"unit_price"`
	Quantity       int       `json:"quantity"`
	TaxRate        string    `json:"tax_rate"`
	LineSubtotal   string    `json:"line_subtotal"`
	DiscountAmount string    `json:"discount_amount"`
	TaxAmount      string    `json:"tax_amount"`
	LineTotal      string    `json:"line_total"`
}

type SaleResponse struct {
	ID                 uuid.UUID          `json:"id"`
	CartID             uuid.UUID          `json:"cart_id"`
	RegisterID         string             `json:"register_id"`
	BranchID           uuid.UUID          `json:"branch_id"`
	CashierID          uuid.UUID          `json:"cashier_id"`
	CustomerID         *uuid.UUID         `json:"customer_id,omitempty"`
	DiscountID         *uuid.UUID         `json:"discount_id,omitempty"`
	PaymentMethod      string             `json:"payment_method"`
	Currency           string             `json:"currency"`
	Subtotal           string             `json:"subtotal"`
	DiscountTotal      string             `json:"discount_total"`
	TaxTotal           string             `json:"tax_total"`
	RoundingAdjustment string             `json:"rounding_adjustment"`
	TotalAmount        string             `json:"total_amount"`
	AmountTendered     string             `json:"amount_tendered"`
	ChangeDue          string             `json:"change_due"`
	Items              []SaleItemResponse `json:"items"`
	CreatedAt          time.Time          `json:"created_at"`
}

func NewSaleResponse(s *models.Sale) SaleResponse {
	if s == nil {
		return SaleResponse{Items: []SaleItemResponse{}}
	}
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SaleItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPrice:      Money(item.UnitPrice),
			Quantity:       item.Quantity,
			TaxRate:        item.TaxRate.String(),
			LineSubtotal:   Money(item.LineSubtotal),
			DiscountAmount: Money(item.DiscountAmount),
			TaxAmount:      Money(item.TaxAmount),
			LineTotal:      Money(item.LineTotal),
		})
	}
	return SaleResponse{
		ID:                 s.ID,
		CartID:             s.CartID,
		RegisterID:         s.RegisterID,
		BranchID:           s.BranchID,
		CashierID:          s.CashierID,
		CustomerID:         s.CustomerID,
		DiscountID:         s.DiscountID,
		PaymentMethod:      string(s.PaymentMethod),
		Currency:           s.Currency,
		Subtotal:           Money(s.Subtotal),
		DiscountTotal:      Money(s.DiscountTotal),
		TaxTotal:           Money(s.TaxTotal),
		RoundingAdjustment: Money(s.RoundingAdjustment),
		TotalAmount:        Money(s.TotalAmount),
		AmountTendered:     Money(s.AmountTendered),
		ChangeDue:          Money(s.ChangeDue),
		Items:              items,
		CreatedAt:          s.CreatedAt,
	}
}

type SaleListResponse struct {
	Items      []SaleResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func NewSaleList(sales []models.Sale, next string) SaleListResponse {
	out := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, NewSaleResponse(&sales[i]))
	}
	return SaleListResponse{Items: out, NextCursor: next}
}
