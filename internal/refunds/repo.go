package refunds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, refund *models.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.Refund, error)
	ReservedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.Refund, error) {
	var rows []models.Refund
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

type reservedRow struct {
	SaleItemID uuid.UUID
	Quantity   int
}

// ReservedQuantities sums quantities per sale item across pending and
// completed refunds. Rejected refunds release their quantities.
func (r *repository) ReservedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []reservedRow
	err := r.db.WithContext(ctx).
		Table("refund_items").
		Select("refund_items.sale_item_id AS sale_item_id, SUM(refund_items.quantity) AS quantity").
		Joins("JOIN refunds ON refunds.id = refund_items.refund_id").
		Where("refunds.sale_id = ? AND refunds.status IN ?", saleID, enums.QuantityHoldingRefundStatuses()).
		Group("refund_items.sale_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.SaleItemID] = row.Quantity
	}
	return out, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, enums.RefundStatusPending).
		Updates(map[string]any{
			"status":       enums.RefundStatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) MarkRejected(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, enums.RefundStatusPending).
		Updates(map[string]any{
			"status":        enums.RefundStatusRejected,
			"reject_reason": reason,
			"updated_at":    at,
		})
	return res.RowsAffected == 1, res.Error
}
