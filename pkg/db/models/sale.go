package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Sale is the immutable snapshot produced by checkout.
type Sale struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CartID             uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	RegisterID         string              `gorm:"column:register_id;type:varchar(64);not null;index"`
	BranchID           uuid.UUID           `gorm:"column:branch_id;type:uuid;not null"`
	CashierID          uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	CustomerID         *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	DiscountID         *uuid.UUID          `gorm:"column:discount_id;type:uuid"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal      decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null"`
	TaxTotal           decimal.Decimal     `gorm:"column:tax_total;type:numeric(12,2);not null"`
	RoundingAdjustment decimal.Decimal     `gorm:"column:rounding_adjustment;type:numeric(12,2);not null;default:0"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AmountTendered     decimal.Decimal     `gorm:"column:amount_tendered;type:numeric(12,2);not null"`
	ChangeDue          decimal.Decimal     `gorm:"column:change_due;type:numeric(12,2);not null;default:0"`
	Currency           string              `gorm:"column:currency;type:varchar(3);not null"`
	Items              []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;not null"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// SaleItem copies a cart line plus its share of the cart discount and tax.
type SaleItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID         uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	CartItemID     uuid.UUID       `gorm:"column:cart_item_id;type:uuid;not null"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	CategoryID     *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name           string          `gorm:"column:name;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	LineSubtotal   decimal.Decimal `gorm:"column:line_subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
