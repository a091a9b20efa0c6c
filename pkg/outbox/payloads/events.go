package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// SaleCompletedEvent is emitted when a cart is checked out into a sale.
type SaleCompletedEvent struct {
	SaleID        uuid.UUID           `json:"sale_id"`
	CartID        uuid.UUID           `json:"cart_id"`
	RegisterID    string              `json:"register_id"`
	BranchID      uuid.UUID           `json:"branch_id"`
	CashierID     uuid.UUID           `json:"cashier_id"`
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	DiscountID    *uuid.UUID          `json:"discount_id,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	DiscountTotal decimal.Decimal     `json:"discount_total"`
	TaxTotal      decimal.Decimal     `json:"tax_total"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Currency      string              `json:"currency"`
	ItemCount     int                 `json:"item_count"`
}

// RefundCompletedEvent is emitted once a pending refund is paid out.
type RefundCompletedEvent struct {
	RefundID      uuid.UUID           `json:"refund_id"`
	SaleID        uuid.UUID           `json:"sale_id"`
	RegisterID    string              `json:"register_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal     `json:"amount"`
	CompletedAt   time.Time           `json:"completed_at"`
}

// RegisterOpenedEvent starts a cash session.
type RegisterOpenedEvent struct {
	RegisterID     string          `json:"register_id"`
	BranchID       uuid.UUID       `json:"branch_id"`
	CashierID      uuid.UUID       `json:"cashier_id"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpenedAt       time.Time       `json:"opened_at"`
}

// RegisterClosedEvent carries the reconciliation outcome of a session.
type RegisterClosedEvent struct {
	RegisterID      string               `json:"register_id"`
	BranchID        uuid.UUID            `json:"branch_id"`
	ClosingBalance  decimal.Decimal      `json:"closing_balance"`
	ExpectedBalance decimal.Decimal      `json:"expected_balance"`
	Difference      decimal.Decimal      `json:"difference"`
	Status          enums.VarianceStatus `json:"status"`
	OpenedAt        time.Time            `json:"opened_at"`
	ClosedAt        time.Time            `json:"closed_at"`
}

// LedgerCorrectedEvent records an approved reversal of a ledger entry.
type LedgerCorrectedEvent struct {
	RegisterID    string                        `json:"register_id"`
	TransactionID uuid.UUID                     `json:"transaction_id"`
	ReversalID    uuid.UUID                     `json:"reversal_id"`
	Type          enums.RegisterTransactionType `json:"type"`
	Amount        decimal.Decimal               `json:"amount"`
	Reason        string                        `json:"reason"`
	RequestedBy   uuid.UUID                     `json:"requested_by"`
	ApprovedBy    uuid.UUID                     `json:"approved_by"`
}
