package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// StoreSettingID is the single row holding store-wide settings.
const StoreSettingID = 1

type StoreSetting struct {
	ID             int             `gorm:"column:id;primaryKey;autoIncrement:false"`
	Currency       string          `gorm:"column:currency;type:varchar(3);not null"`
	NearestValue   decimal.Decimal `gorm:"column:nearest_value;type:numeric(12,2);not null;default:0"`
	TaxBase        enums.TaxBase   `gorm:"column:tax_base;type:varchar(16);not null"`
	HonorTaxExempt bool            `gorm:"column:honor_tax_exempt;not null;default:false"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
