package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Repository persists the single store settings row.
type Repository interface {
	Get(ctx context.Context) (*models.StoreSetting, error)
	Upsert(ctx context.Context, row *models.StoreSetting) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Get returns gorm.ErrRecordNotFound when settings were never saved.
func (r *repository) Get(ctx context.Context) (*models.StoreSetting, error) {
	var row models.StoreSetting
	if err := r.db.WithContext(ctx).First(&row, "id = ?", models.StoreSettingID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Upsert(ctx context.Context, row *models.StoreSetting) error {
	row.ID = models.StoreSettingID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"currency", "nearest_value", "tax_base", "honor_tax_exempt", "updated_at"}),
		}).
		Create(row).Error
}
