package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// ActiveCartIndex is the partial unique index allowing one active cart per
// (user, branch).
const ActiveCartIndex = "ux_carts_one_active_per_user_branch"

// Repository persists carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.Cart) error
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Cart, error)
	ListForUserBranch(ctx context.Context, userID, branchID uuid.UUID) ([]models.Cart, error)
	FindActive(ctx context.Context, userID, branchID uuid.UUID) (*models.Cart, error)
	MostRecent(ctx context.Context, userID, branchID uuid.UUID, exclude uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	DeactivateAll(ctx context.Context, userID, branchID uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

// Create inserts the cart row and any lines it carries.
func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	items := cart.Items
	cart.Items = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error; err != nil {
		cart.Items = items
		return err
	}
	cart.Items = items
	if len(items) == 0 {
		return nil
	}
	return r.ReplaceItems(ctx, cart.ID, cart.Items)
}

func (r *repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListForUserBranch returns carts oldest first.
func (r *repository) ListForUserBranch(ctx context.Context, userID, branchID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("user_id = ? AND branch_id = ?", userID, branchID).
		Order("created_at ASC").
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *repository) FindActive(ctx context.Context, userID, branchID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("user_id = ? AND branch_id = ? AND is_active = ?", userID, branchID, true).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// MostRecent returns the newest cart for the pair other than exclude.
func (r *repository) MostRecent(ctx context.Context, userID, branchID uuid.UUID, exclude uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND branch_id = ? AND id <> ?", userID, branchID, exclude).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save writes the cart row without touching its lines.
func (r *repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{ID: cart.ID}).
		Omit(clause.Associations).
		Select("name", "customer_id", "discount_id", "subtotal", "discount_total", "tax_total", "total_amount", "updated_at").
		Updates(cart).Error
}

// ReplaceItems rewrites the cart lines, keeping their ids.
func (r *repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.CartItem, len(items))
	for i := range items {
		rows[i] = items[i]
		rows[i].CartID = cartID
	}
	return tx.Create(&rows).Error
}

func (r *repository) DeactivateAll(ctx context.Context, userID, branchID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("user_id = ? AND branch_id = ? AND is_active = ?", userID, branchID, true).
		Update("is_active", false).Error
}

func (r *repository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Update("is_active", true).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Cart{}).Error
}
