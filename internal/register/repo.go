package register

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/pagination"
)

// Repository persists registers and their append-only ledger. Status changes
// are compare-and-swap updates; callers inspect the affected row count.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reg *models.Register) error
	FindByID(ctx context.Context, id string) (*models.Register, error)
	MarkOpen(ctx context.Context, id string, opening decimal.Decimal, cashierID uuid.UUID, at time.Time) (bool, error)
	MarkClosed(ctx context.Context, id string, closing decimal.Decimal, at time.Time) (bool, error)
	SaveReconciliation(ctx context.Context, id string, expected, variance decimal.Decimal) error
	TouchOpen(ctx context.Context, id string, at time.Time) (bool, error)
	ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]models.Register, error)

	AppendTransaction(ctx context.Context, entry *models.RegisterTransaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.RegisterTransaction, error)
	TransactionsSince(ctx context.Context, registerID string, since time.Time) ([]models.RegisterTransaction, error)
	ListTransactions(ctx context.Context, registerID string, limit int, cursor *pagination.Cursor) ([]models.RegisterTransaction, error)
	CreateCorrection(ctx context.Context, correction *models.LedgerCorrection) error
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

func (r *repository) Create(ctx context.Context, reg *models.Register) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Register, error) {
	var reg models.Register
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// MarkOpen moves closed -> open and resets the previous session's figures.
func (r *repository) MarkOpen(ctx context.Context, id string, opening decimal.Decimal, cashierID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Register{}).
		Where("id = ? AND status = ?", id, enums.RegisterStatusClosed).
		Updates(map[string]any{
			"status":             enums.RegisterStatusOpen,
			"opening_balance":    opening,
			"opened_at":          at,
			"current_cashier_id": cashierID,
			"closing_balance":    nil,
			"expected_balance":   nil,
			"variance":           nil,
			"closed_at":          nil,
			"updated_at":         at,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkClosed moves open -> closed. Once it succeeds no further ledger
// appends can land in the session.
func (r *repository) MarkClosed(ctx context.Context, id string, closing decimal.Decimal, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Register{}).
		Where("id = ? AND status = ?", id, enums.RegisterStatusOpen).
		Updates(map[string]any{
			"status":             enums.RegisterStatusClosed,
			"closing_balance":    closing,
			"closed_at":          at,
			"current_cashier_id": nil,
			"updated_at":         at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) SaveReconciliation(ctx context.Context, id string, expected, variance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Register{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"expected_balance": expected,
			"variance":         variance,
		}).Error
}

// TouchOpen locks the register row for the rest of the transaction and
// reports whether it is open. Appends serialise on this row.
func (r *repository) TouchOpen(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Register{}).
		Where("id = ? AND status = ?", id, enums.RegisterStatusOpen).
		Update("updated_at", at)
	return res.RowsAffected == 1, res.Error
}

func (r *repository) ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]models.Register, error) {
	var regs []models.Register
	err := r.db.WithContext(ctx).
		Where("status = ? AND opened_at < ?", enums.RegisterStatusOpen, cutoff).
		Order("opened_at ASC").
		Find(&regs).Error
	return regs, err
}

func (r *repository) AppendTransaction(ctx context.Context, entry *models.RegisterTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.RegisterTransaction, error) {
	var entry models.RegisterTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) TransactionsSince(ctx context.Context, registerID string, since time.Time) ([]models.RegisterTransaction, error) {
	var rows []models.RegisterTransaction
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND created_at >= ?", registerID, since).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListTransactions pages newest first. limit is passed through unchanged so
// callers can ask for one extra row to detect a next page.
func (r *repository) ListTransactions(ctx context.Context, registerID string, limit int, cursor *pagination.Cursor) ([]models.RegisterTransaction, error) {
	q := r.db.WithContext(ctx).Where("register_id = ?", registerID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.RegisterTransaction
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateCorrection(ctx context.Context, correction *models.LedgerCorrection) error {
	return r.db.WithContext(ctx).Create(correction).Error
}
