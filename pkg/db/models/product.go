package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the catalog entry the POS sells from.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU        string          `gorm:"column:sku;not null;uniqueIndex"`
	Name       string          `gorm:"column:name;not null"`
	CategoryID *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	TaxRate    decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductPrice overrides price and optionally tax rate for one branch.
type ProductPrice struct {
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;primaryKey"`
	BranchID  uuid.UUID        `gorm:"column:branch_id;type:uuid;primaryKey"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	TaxRate   *decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4)"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
