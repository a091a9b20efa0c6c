// Package cartsession keeps several parked carts per cashier and branch, with
// exactly one of them active at a time.
package cartsession

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

const (
	DefaultCartName = "Main Cart"
	copySuffix      = " (Copy)"
	maxNameLength   = 100
)

var ErrInvalidName = pkgerrors.New(pkgerrors.CodeValidation, "cart name must be 1-100 characters")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Manager is stateless; the active cart is always derived from the database.
type Manager interface {
	ListCarts(ctx context.Context, userID, branchID uuid.UUID) ([]models.Cart, error)
	Active(ctx context.Context, userID, branchID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, userID, branchID uuid.UUID, name string) (*models.Cart, error)
	SwitchActive(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
	Duplicate(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
	Remove(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error)
}

type manager struct {
	carts    cart.Repository
	pricer   *cart.Pricer
	settings cart.SettingsSource
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewManager(carts cart.Repository, pricer *cart.Pricer, settings cart.SettingsSource, tx txRunner, logg *logger.Logger) (Manager, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings source required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &manager{
		carts:    carts,
		pricer:   pricer,
		settings: settings,
		tx:       tx,
		logg:     logg,
		now:      pricer.Now,
	}, nil
}

// ListCarts returns the pair's carts oldest first. A pair with no carts gets
// a default active one; a pair with no active cart has its newest promoted.
// A concurrent first request can lose the unique-index race; that attempt is
// retried once and then sees the winner's cart.
func (m *manager) ListCarts(ctx context.Context, userID, branchID uuid.UUID) ([]models.Cart, error) {
	carts, err := m.listOrHeal(ctx, userID, branchID)
	if err != nil && db.IsUniqueViolation(err, cart.ActiveCartIndex) {
		if m.logg != nil {
			m.logg.Warn(ctx, "active cart race on list, retrying")
		}
		carts, err = m.listOrHeal(ctx, userID, branchID)
	}
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carts")
	}
	return carts, nil
}

func (m *manager) listOrHeal(ctx context.Context, userID, branchID uuid.UUID) ([]models.Cart, error) {
	var carts []models.Cart
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.carts.WithTx(tx)
		var err error
		carts, err = repo.ListForUserBranch(ctx, userID, branchID)
		if err != nil {
			return err
		}

		if len(carts) == 0 {
			created, err := m.createActive(ctx, repo, userID, branchID, DefaultCartName)
			if err != nil {
				return err
			}
			carts = []models.Cart{*created}
			return nil
		}

		for _, c := range carts {
			if c.IsActive {
				return nil
			}
		}
		newest := len(carts) - 1
		if err := repo.Activate(ctx, carts[newest].ID); err != nil {
			return err
		}
		carts[newest].IsActive = true
		return nil
	})
	return carts, err
}

func (m *manager) Active(ctx context.Context, userID, branchID uuid.UUID) (*models.Cart, error) {
	carts, err := m.ListCarts(ctx, userID, branchID)
	if err != nil {
		return nil, err
	}
	for i := range carts {
		if carts[i].IsActive {
			return &carts[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "no active cart after list")
}

func (m *manager) Create(ctx context.Context, userID, branchID uuid.UUID, name string) (*models.Cart, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCartName
	}
	if len(name) > maxNameLength {
		return nil, ErrInvalidName
	}

	var created *models.Cart
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.carts.WithTx(tx)
		if err := repo.DeactivateAll(ctx, userID, branchID); err != nil {
			return err
		}
		var err error
		created, err = m.createActive(ctx, repo, userID, branchID, name)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (m *manager) SwitchActive(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	var target *models.Cart
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.carts.WithTx(tx)
		var err error
		target, err = cart.LoadForUser(ctx, repo, userID, cartID)
		if err != nil {
			return err
		}
		if err := repo.DeactivateAll(ctx, userID, target.BranchID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate carts")
		}
		if err := repo.Activate(ctx, target.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate cart")
		}
		target.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Duplicate copies lines, discount and customer into a new active cart.
// Discount usage is only counted at checkout, so nothing is consumed here.
func (m *manager) Duplicate(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	current, err := m.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var dup *models.Cart
	err = m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.carts.WithTx(tx)
		source, err := cart.LoadForUser(ctx, repo, userID, cartID)
		if err != nil {
			return err
		}

		dup = &models.Cart{
			ID:         uuid.New(),
			UserID:     source.UserID,
			BranchID:   source.BranchID,
			Name:       copyName(source.Name),
			CustomerID: source.CustomerID,
			DiscountID: source.DiscountID,
			IsActive:   true,
		}
		for _, item := range source.Items {
			item.ID = uuid.New()
			item.CartID = dup.ID
			dup.Items = append(dup.Items, item)
		}
		if _, err := m.pricer.WithTx(tx).Price(ctx, cart.NewAggregate(dup, m.now), current.Policy()); err != nil {
			return err
		}

		if err := repo.DeactivateAll(ctx, userID, source.BranchID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate carts")
		}
		if err := repo.Create(ctx, dup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart copy")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

// Remove deletes the cart and returns the pair's active cart afterwards.
func (m *manager) Remove(ctx context.Context, userID, cartID uuid.UUID) (*models.Cart, error) {
	var active *models.Cart
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.carts.WithTx(tx)
		target, err := cart.LoadForUser(ctx, repo, userID, cartID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, target.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}

		if !target.IsActive {
			active, err = repo.FindActive(ctx, userID, target.BranchID)
			if err == nil || !db.IsNotFound(err) {
				return wrapDependency(err, "load active cart")
			}
		}

		next, err := repo.MostRecent(ctx, userID, target.BranchID, target.ID)
		switch {
		case err == nil:
			if err := repo.Activate(ctx, next.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote cart")
			}
			next.IsActive = true
			active = next
			return nil
		case db.IsNotFound(err):
			active, err = m.createActive(ctx, repo, userID, target.BranchID, DefaultCartName)
			return wrapDependency(err, "create default cart")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load remaining carts")
		}
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

func (m *manager) createActive(ctx context.Context, repo cart.Repository, userID, branchID uuid.UUID, name string) (*models.Cart, error) {
	c := &models.Cart{
		UserID:   userID,
		BranchID: branchID,
		Name:     name,
		IsActive: true,
	}
	cart.ZeroTotals(c)
	if err := repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func copyName(name string) string {
	out := name + copySuffix
	if len(out) > maxNameLength {
		out = name[:maxNameLength-len(copySuffix)] + copySuffix
	}
	return out
}

func wrapDependency(err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
