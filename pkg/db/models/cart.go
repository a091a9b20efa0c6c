package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is a cashier's in-progress sale. Totals are derived and rewritten on
// every mutation.
type Cart struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:idx_carts_user_branch"`
	BranchID      uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index:idx_carts_user_branch"`
	Name          string          `gorm:"column:name;not null"`
	CustomerID    *uuid.UUID      `gorm:"column:customer_id;type:uuid"`
	DiscountID    *uuid.UUID      `gorm:"column:discount_id;type:uuid"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	TaxTotal      decimal.Decimal `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:false"`
	Items         []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CartItem snapshots price and tax rate at the moment the product was added.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID     uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	CategoryID *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Name       string          `gorm:"column:name;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	TaxRate    decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0"`
	Position   int             `gorm:"column:position;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
