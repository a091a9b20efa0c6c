package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// CreateInput describes a new discount. Type and Scope accept either case.
type CreateInput struct {
	Name              string
	Code              *string
	Type              string
	Value             decimal.Decimal
	BuyQuantity       int
	GetQuantity       int
	MinPurchaseAmount *decimal.Decimal
	Scope             string
	ProductIDs        []uuid.UUID
	CategoryIDs       []uuid.UUID
	StartsAt          *time.Time
	EndsAt            *time.Time
	UsageLimit        *int
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Discount, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	List(ctx context.Context, activeOnly bool) ([]models.Discount, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Discount, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name is required")
	}

	discountType, err := enums.ParseDiscountType(input.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	scope := enums.DiscountScopeEntireOrder
	if strings.TrimSpace(input.Scope) != "" {
		if scope, err = enums.ParseDiscountScope(input.Scope); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount scope")
		}
	}

	candidate := pricing.Discount{
		Type:              discountType,
		Value:             input.Value,
		BuyQuantity:       input.BuyQuantity,
		GetQuantity:       input.GetQuantity,
		MinPurchaseAmount: input.MinPurchaseAmount,
		Scope:             scope,
		ProductIDs:        input.ProductIDs,
		CategoryIDs:       input.CategoryIDs,
		StartsAt:          input.StartsAt,
		EndsAt:            input.EndsAt,
		UsageLimit:        input.UsageLimit,
	}
	if err := pricing.ValidateDiscount(candidate); err != nil {
		return nil, err
	}

	var code *string
	if input.Code != nil {
		if trimmed := strings.ToUpper(strings.TrimSpace(*input.Code)); trimmed != "" {
			code = &trimmed
		}
	}

	discount := &models.Discount{
		Name:              name,
		Code:              code,
		Type:              discountType,
		Value:             input.Value,
		BuyQuantity:       input.BuyQuantity,
		GetQuantity:       input.GetQuantity,
		MinPurchaseAmount: input.MinPurchaseAmount,
		Scope:             scope,
		ProductIDs:        input.ProductIDs,
		CategoryIDs:       input.CategoryIDs,
		StartsAt:          utcPtr(input.StartsAt),
		EndsAt:            utcPtr(input.EndsAt),
		UsageLimit:        input.UsageLimit,
		IsActive:          true,
	}
	if err := s.repo.Create(ctx, discount); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return discount, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	return discount, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Discount, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	return rows, nil
}

// Deactivate stops future applications. Carts already referencing the
// discount simply stop receiving it on their next recompute.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate discount")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
