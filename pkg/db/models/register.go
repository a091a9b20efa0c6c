package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Register is a cash drawer bound to a physical device; its id is the device
// identifier.
type Register struct {
	ID               string               `gorm:"column:id;type:varchar(64);primaryKey"`
	BranchID         uuid.UUID            `gorm:"column:branch_id;type:uuid;not null;index"`
	Name             string               `gorm:"column:name;not null"`
	Status           enums.RegisterStatus `gorm:"column:status;type:varchar(16);not null;default:'closed'"`
	OpeningBalance   decimal.Decimal      `gorm:"column:opening_balance;type:numeric(12,2);not null;default:0"`
	ClosingBalance   *decimal.Decimal     `gorm:"column:closing_balance;type:numeric(12,2)"`
	ExpectedBalance  *decimal.Decimal     `gorm:"column:expected_balance;type:numeric(12,2)"`
	Variance         *decimal.Decimal     `gorm:"column:variance;type:numeric(12,2)"`
	OpenedAt         *time.Time           `gorm:"column:opened_at"`
	ClosedAt         *time.Time           `gorm:"column:closed_at"`
	CurrentCashierID *uuid.UUID           `gorm:"column:current_cashier_id;type:uuid"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// RegisterTransaction is one append-only ledger entry. Amount is a positive
// magnitude; Type carries the direction.
type RegisterTransaction struct {
	ID            uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	RegisterID    string                        `gorm:"column:register_id;type:varchar(64);not null;index:idx_register_transactions_register_created"`
	Type          enums.RegisterTransactionType `gorm:"column:type;type:varchar(16);not null"`
	Origin        enums.TransactionOrigin       `gorm:"column:origin;type:varchar(32);not null"`
	Amount        decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod           `gorm:"column:payment_method;type:varchar(16);not null"`
	Description   string                        `gorm:"column:description;not null;default:''"`
	CashierID     uuid.UUID                     `gorm:"column:cashier_id;type:uuid;not null"`
	ReferenceID   *uuid.UUID                    `gorm:"column:reference_id;type:uuid"`
	CorrectsID    *uuid.UUID                    `gorm:"column:corrects_id;type:uuid;uniqueIndex"`
	CreatedAt     time.Time                     `gorm:"column:created_at;not null;index:idx_register_transactions_register_created"`
}

func (t *RegisterTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// LedgerCorrection audits a manager-approved reversal of a ledger entry.
type LedgerCorrection struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RegisterID    string    `gorm:"column:register_id;type:varchar(64);not null;index"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex"`
	ReversalID    uuid.UUID `gorm:"column:reversal_id;type:uuid;not null"`
	Reason        string    `gorm:"column:reason;not null"`
	RequestedBy   uuid.UUID `gorm:"column:requested_by;type:uuid;not null"`
	ApprovedBy    uuid.UUID `gorm:"column:approved_by;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (c *LedgerCorrection) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
