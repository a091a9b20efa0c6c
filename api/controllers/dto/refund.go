package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

type RefundItemResponse struct {
	SaleItemID uuid.UUID `json:"sale_item_id"`
	Quantity   int       `json:"quantity"`
	Amount     string    `json:"amount"`
}

type RefundResponse struct {
	ID            uuid.UUID            `json:"id"`
	SaleID        uuid.UUID            `json:"sale_id"`
	RegisterID    string               `json:"register_id"`
	CashierID     uuid.UUID            `json:"cashier_id"`
	Status        string               `json:"status"`
	Reason        string               `json:"reason"`
	RejectReason  *string              `json:"reject_reason,omitempty"`
	PaymentMethod string               `json:"payment_method"`
	Amount        string               `json:"amount"`
	Items         []RefundItemResponse `json:"items"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewRefundResponse(r *models.Refund) RefundResponse {
	if r == nil {
		return RefundResponse{Items: []RefundItemResponse{}}
	}
	items := make([]RefundItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, RefundItemResponse{
			SaleItemID: item.SaleItemID,
			Quantity:   item.Quantity,
			Amount:     Money(item.Amount),
		})
	}
	return RefundResponse{
		ID:            r.ID,
		SaleID:        r.SaleID,
		RegisterID:    r.RegisterID,
		CashierID:     r.CashierID,
		Status:        string(r.Status),
		Reason:        r.Reason,
		RejectReason:  r.RejectReason,
		PaymentMethod: string(r.PaymentMethod),
		Amount:        Money(r.Amount),
		Items:         items,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func NewRefundList(refunds []models.Refund) []RefundResponse {
	out := make([]RefundResponse, 0, len(refunds))
	for i := range refunds {
		out = append(out, NewRefundResponse(&refunds[i]))
	}
	return out
}
