package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// BranchPrice is the price and tax rate a branch sells a product at.
type BranchPrice struct {
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	Name       string
	UnitPrice  decimal.Decimal
	TaxRate    decimal.Decimal
}

// Repository reads catalog prices. Only active products are sellable.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetBranchPrice(ctx context.Context, price *models.ProductPrice) error
	PriceForBranch(ctx context.Context, productID, branchID uuid.UUID) (*BranchPrice, error)
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

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// SetBranchPrice inserts or replaces the override for (product, branch).
func (r *repository) SetBranchPrice(ctx context.Context, price *models.ProductPrice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "branch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "tax_rate", "updated_at"}),
		}).
		Create(price).Error
}

// PriceForBranch prefers the branch override and falls back to the base
// price. Override tax rate wins only when set. Inactive products are reported
// as gorm.ErrRecordNotFound.
func (r *repository) PriceForBranch(ctx context.Context, productID, branchID uuid.UUID) (*BranchPrice, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}

	out := &BranchPrice{
		ProductID:  product.ID,
		CategoryID: product.CategoryID,
		Name:       product.Name,
		UnitPrice:  product.Price,
		TaxRate:    product.TaxRate,
	}

	var override models.ProductPrice
	err = r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		First(&override).Error
	switch {
	case err == nil:
		out.UnitPrice = override.Price
		if override.TaxRate != nil {
			out.TaxRate = *override.TaxRate
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return out, nil
}
