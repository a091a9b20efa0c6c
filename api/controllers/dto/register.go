package dto

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

type RegisterResponse struct {
	ID               string     `json:"id"`
	BranchID         uuid.UUID  `json:"branch_id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	OpeningBalance   string     `json:"opening_balance"`
	ClosingBalance   *string    `json:"closing_balance,omitempty"`
	ExpectedBalance  *string    `json:"expected_balance,omitempty"`
	Variance         *string    `json:"variance,omitempty"`
	OpenedAt         *time.Time `json:"opened_at,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	CurrentCashierID *uuid.UUID `json:"current_cashier_id,omitempty"`
}

func NewRegisterResponse(r *models.Register) RegisterResponse {
	if r == nil {
		return RegisterResponse{}
	}
	return RegisterResponse{
		ID:               r.ID,
		BranchID:         r.BranchID,
		Name:             r.Name,
		Status:           string(r.Status),
		OpeningBalance:   Money(r.OpeningBalance),
		ClosingBalance:   OptionalMoney(r.ClosingBalance),
		ExpectedBalance:  OptionalMoney(r.ExpectedBalance),
		Variance:         OptionalMoney(r.Variance),
		OpenedAt:         r.OpenedAt,
		ClosedAt:         r.ClosedAt,
		CurrentCashierID: r.CurrentCashierID,
	}
}

type TransactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	RegisterID    string     `json:"register_id"`
	Type          string     `json:"type"`
	Origin        string     `json:"origin"`
	Amount        string     `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Description   string     `json:"description"`
	CashierID     uuid.UUID  `json:"cashier_id"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	CorrectsID    *uuid.UUID `json:"corrects_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewTransactionResponse(t *models.RegisterTransaction) TransactionResponse {
	if t == nil {
		return TransactionResponse{}
	}
	return TransactionResponse{
		ID:            t.ID,
		RegisterID:    t.RegisterID,
		Type:          string(t.Type),
		Origin:        string(t.Origin),
		Amount:        Money(t.Amount),
		PaymentMethod: string(t.PaymentMethod),
		Description:   t.Description,
		CashierID:     t.CashierID,
		ReferenceID:   t.ReferenceID,
		CorrectsID:    t.CorrectsID,
		CreatedAt:     t.CreatedAt,
	}
}

type TransactionPageResponse struct {
	Items      []TransactionResponse `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

func NewTransactionPage(page *register.TransactionPage) TransactionPageResponse {
	if page == nil {
		return TransactionPageResponse{Items: []TransactionResponse{}}
	}
	items := make([]TransactionResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewTransactionResponse(&page.Items[i]))
	}
	return TransactionPageResponse{Items: items, NextCursor: page.NextCursor}
}

type MethodTotal struct {
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
}

// methodTotals renders the per-method breakdown in a stable order.
func methodTotals(in map[enums.PaymentMethod]decimal.Decimal) []MethodTotal {
	out := make([]MethodTotal, 0, len(in))
	for method, amount := range in {
		out = append(out, MethodTotal{PaymentMethod: string(method), Amount: Money(amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentMethod < out[j].PaymentMethod })
	return out
}

type CloseResponse struct {
	Register        RegisterResponse `json:"register"`
	ExpectedBalance string           `json:"expected_balance"`
	Difference      string           `json:"difference"`
	Status          string           `json:"status"`
	ByPaymentMethod []MethodTotal    `json:"by_payment_method"`
}

func NewCloseResponse(res *register.CloseResult) CloseResponse {
	if res == nil {
		return CloseResponse{ByPaymentMethod: []MethodTotal{}}
	}
	return CloseResponse{
		Register:        NewRegisterResponse(res.Register),
		ExpectedBalance: Money(res.ExpectedBalance),
		Difference:      Money(res.Difference),
		Status:          string(res.Status),
		ByPaymentMethod: methodTotals(res.ByPaymentMethod),
	}
}

type SummaryResponse struct {
	Register         RegisterResponse `json:"register"`
	ExpectedBalance  string           `json:"expected_balance"`
	ByPaymentMethod  []MethodTotal    `json:"by_payment_method"`
	TransactionCount int              `json:"transaction_count"`
}

func NewSummaryResponse(res *register.SummaryResult) SummaryResponse {
	if res == nil {
		return SummaryResponse{ByPaymentMethod: []MethodTotal{}}
	}
	return SummaryResponse{
		Register:         NewRegisterResponse(res.Register),
		ExpectedBalance:  Money(res.ExpectedBalance),
		ByPaymentMethod:  methodTotals(res.ByPaymentMethod),
		TransactionCount: res.TransactionCount,
	}
}

type CorrectionResponse struct {
	ID            uuid.UUID           `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Reason        string              `json:"reason"`
	RequestedBy   uuid.UUID           `json:"requested_by"`
	ApprovedBy    uuid.UUID           `json:"approved_by"`
	Reversal      TransactionResponse `json:"reversal"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewCorrectionResponse(res *register.CorrectionResult) CorrectionResponse {
	if res == nil || res.Correction == nil {
		return CorrectionResponse{}
	}
	c := res.Correction
	return CorrectionResponse{
		ID:            c.ID,
		TransactionID: c.TransactionID,
		Reason:        c.Reason,
		RequestedBy:   c.RequestedBy,
		ApprovedBy:    c.ApprovedBy,
		Reversal:      NewTransactionResponse(res.Reversal),
		CreatedAt:     c.CreatedAt,
	}
}
