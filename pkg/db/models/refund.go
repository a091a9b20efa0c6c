package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Refund returns part or all of a Sale. Only completed refunds move cash.
type Refund struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SaleID        uuid.UUID           `gorm:"column:sale_id;type:uuid;not null;index"`
	RegisterID    string              `gorm:"column:register_id;type:varchar(64);not null"`
	CashierID     uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	Status        enums.RefundStatus  `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	Reason        string              `gorm:"column:reason;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	RejectReason  *string             `gorm:"column:reject_reason"`
	Items         []RefundItem        `gorm:"foreignKey:RefundID;constraint:OnDelete:CASCADE"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

type RefundItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RefundID   uuid.UUID       `gorm:"column:refund_id;type:uuid;not null;index"`
	SaleItemID uuid.UUID       `gorm:"column:sale_item_id;type:uuid;not null;index"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
}

func (i *RefundItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
