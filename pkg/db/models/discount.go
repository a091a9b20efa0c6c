package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Discount is a reusable promotion referenced by at most one slot per cart.
type Discount struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name              string              `gorm:"column:name;not null"`
	Code              *string             `gorm:"column:code;uniqueIndex"`
	Type              enums.DiscountType  `gorm:"column:type;type:varchar(32);not null"`
	Value             decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null"`
	BuyQuantity       int                 `gorm:"column:buy_quantity;not null;default:0"`
	GetQuantity       int                 `gorm:"column:get_quantity;not null;default:0"`
	MinPurchaseAmount *decimal.Decimal    `gorm:"column:min_purchase_amount;type:numeric(12,2)"`
	Scope             enums.DiscountScope `gorm:"column:scope;type:varchar(32);not null;default:'entire_order'"`
	ProductIDs        []uuid.UUID         `gorm:"column:product_ids;type:jsonb;serializer:json"`
	CategoryIDs       []uuid.UUID         `gorm:"column:category_ids;type:jsonb;serializer:json"`
	StartsAt          *time.Time          `gorm:"column:starts_at"`
	EndsAt            *time.Time          `gorm:"column:ends_at"`
	UsageLimit        *int                `gorm:"column:usage_limit"`
	UsageCount        int                 `gorm:"column:usage_count;not null;default:0"`
	IsActive          bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Discount) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
