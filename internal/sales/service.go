package sales

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/pagination"
)

var ErrSaleNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")

// Service is the read side of completed sales.
type Service interface {
	Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	ListByRegister(ctx context.Context, registerID string, params pagination.Params) ([]models.Sale, string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	return Load(ctx, s.repo, saleID)
}

func (s *service) ListByRegister(ctx context.Context, registerID string, params pagination.Params) ([]models.Sale, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByRegister(ctx, registerID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	page, next := pagination.Trim(rows, params.Limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	return page, next, nil
}

// Load maps a missing sale to ErrSaleNotFound.
func Load(ctx context.Context, repo Repository, saleID uuid.UUID) (*models.Sale, error) {
	sale, err := repo.FindByID(ctx, saleID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}
