package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SettingsSource supplies the store policy used to price carts.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// View is a cart after a read or mutation, with the discount outcome the
// cashier should see.
type View struct {
	Cart           *models.Cart
	DiscountStatus pricing.DiscountStatus
	Currency       string
}

// Service mutates carts owned by a user. Every mutation runs in one
// transaction and fully recomputes totals.
type Service interface {
	Get(ctx context.Context, userID, cartID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, cartID, productID uuid.UUID) (*View, error)
	UpdateQuantity(ctx context.Context, userID, cartID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*View, error)
	ApplyDiscount(ctx context.Context, userID, cartID, discountID uuid.UUID) (*View, error)
	RemoveDiscount(ctx context.Context, userID, cartID uuid.UUID) (*View, error)
	SetCustomer(ctx context.Context, userID, cartID uuid.UUID, customerID *uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID, cartID uuid.UUID) (*View, error)
}

// Deps groups the collaborators NewService needs.
type Deps struct {
	Carts     Repository
	Products  products.Repository
	Discounts discounts.Repository
	Customers customers.Repository
	Settings  SettingsSource
	Pricer    *Pricer
	Tx        txRunner
}

type service struct {
	carts     Repository
	products  products.Repository
	discounts discounts.Repository
	customers customers.Repository
	settings  SettingsSource
	pricer    *Pricer
	tx        txRunner
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case deps.Discounts == nil:
		return nil, fmt.Errorf("discount repository required")
	case deps.Customers == nil:
		return nil, fmt.Errorf("customer repository required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings source required")
	case deps.Pricer == nil:
		return nil, fmt.Errorf("pricer required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		carts:     deps.Carts,
		products:  deps.Products,
		discounts: deps.Discounts,
		customers: deps.Customers,
		settings:  deps.Settings,
		pricer:    deps.Pricer,
		tx:        deps.Tx,
	}, nil
}

// LoadForUser maps a missing or foreign cart to ErrCartNotFound.
func LoadForUser(ctx context.Context, repo Repository, userID, cartID uuid.UUID) (*models.Cart, error) {
	c, err := repo.FindForUser(ctx, cartID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrCartNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, userID, cartID uuid.UUID) (*View, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	c, err := LoadForUser(ctx, s.carts, userID, cartID)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricer.Price(ctx, NewAggregate(c, s.pricer.now), current.Policy())
	if err != nil {
		return nil, err
	}
	return &View{Cart: c, DiscountStatus: quote.Totals.DiscountStatus, Currency: current.Currency}, nil
}

// mutate loads the cart, applies fn, recomputes and persists, all in one
// transaction.
func (s *service) mutate(ctx context.Context, userID, cartID uuid.UUID, fn func(ctx context.Context, tx *gorm.DB, agg *Aggregate) error) (*View, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var view *View
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		c, err := LoadForUser(ctx, carts, userID, cartID)
		if err != nil {
			return err
		}
		agg := NewAggregate(c, s.pricer.now)
		if err := fn(ctx, tx, agg); err != nil {
			return err
		}

		quote, err := s.pricer.WithTx(tx).Price(ctx, agg, current.Policy())
		if err != nil {
			return err
		}
		if err := carts.ReplaceItems(ctx, c.ID, c.Items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart items")
		}
		if err := carts.Save(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}
		view = &View{Cart: c, DiscountStatus: quote.Totals.DiscountStatus, Currency: current.Currency}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) AddItem(ctx context.Context, userID, cartID, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(ctx context.Context, tx *gorm.DB, agg *Aggregate) error {
		price, err := s.products.WithTx(tx).PriceForBranch(ctx, productID, agg.Cart().BranchID)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrProductNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product price")
		}
		agg.AddItem(*price)
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, userID, cartID, itemID uuid.UUID, quantity int) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(_ context.Context, _ *gorm.DB, agg *Aggregate) error {
		return agg.UpdateQuantity(itemID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, cartID, itemID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(_ context.Context, _ *gorm.DB, agg *Aggregate) error {
		return agg.RemoveItem(itemID)
	})
}

// ApplyDiscount only checks the discount exists. Whether it currently
// applies is reported through View.DiscountStatus.
func (s *service) ApplyDiscount(ctx context.Context, userID, cartID, discountID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(ctx context.Context, tx *gorm.DB, agg *Aggregate) error {
		if _, err := s.discounts.WithTx(tx).FindByID(ctx, discountID); err != nil {
			if db.IsNotFound(err) {
				return ErrDiscountMissing
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
		}
		agg.ApplyDiscount(discountID)
		return nil
	})
}

func (s *service) RemoveDiscount(ctx context.Context, userID, cartID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(_ context.Context, _ *gorm.DB, agg *Aggregate) error {
		agg.RemoveDiscount()
		return nil
	})
}

func (s *service) SetCustomer(ctx context.Context, userID, cartID uuid.UUID, customerID *uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(ctx context.Context, tx *gorm.DB, agg *Aggregate) error {
		if customerID != nil {
			if _, err := s.customers.WithTx(tx).FindByID(ctx, *customerID); err != nil {
				if db.IsNotFound(err) {
					return ErrCustomerMissing
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
			}
		}
		agg.SetCustomer(customerID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID, cartID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, cartID, func(_ context.Context, _ *gorm.DB, agg *Aggregate) error {
		agg.Clear()
		return nil
	})
}
