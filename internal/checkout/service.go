package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/pkg/checkout"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a cart into a sale.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

// Input captures the payment for one checkout. AmountTendered is required
// for cash only.
type Input struct {
	UserID         uuid.UUID
	BranchID       *uuid.UUID
	CartID         uuid.UUID
	RegisterID     string
	PaymentMethod  enums.PaymentMethod
	AmountTendered *decimal.Decimal
}

// Result is the stored sale plus what happened to the cart discount.
type Result struct {
	Sale            *models.Sale
	DiscountStatus  pricing.DiscountStatus
	DiscountDropped bool
}

// Deps groups the collaborators NewService needs.
type Deps struct {
	Carts     cart.Repository
	Sales     sales.Repository
	Discounts discounts.Repository
	Pricer    *cart.Pricer
	Settings  cart.SettingsSource
	Ledger    register.Ledger
	Tx        txRunner
	Outbox    outbox.Emitter
	Metrics   *metrics.POSMetrics
	Logger    *logger.Logger
}

type service struct {
	carts     cart.Repository
	sales     sales.Repository
	discounts discounts.Repository
	pricer    *cart.Pricer
	settings  cart.SettingsSource
	ledger    register.Ledger
	tx        txRunner
	outbox    outbox.Emitter
	metrics   *metrics.POSMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Sales == nil:
		return nil, fmt.Errorf("sales repository required")
	case deps.Discounts == nil:
		return nil, fmt.Errorf("discount repository required")
	case deps.Pricer == nil:
		return nil, fmt.Errorf("cart pricer required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings source required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("register ledger required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     deps.Carts,
		sales:     deps.Sales,
		discounts: deps.Discounts,
		pricer:    deps.Pricer,
		settings:  deps.Settings,
		ledger:    deps.Ledger,
		tx:        deps.Tx,
		outbox:    deps.Outbox,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.RegisterID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	policy := current.Policy()

	var result *Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		pricer := s.pricer.WithTx(tx)

		c, err := cart.LoadForUser(ctx, carts, input.UserID, input.CartID)
		if err != nil {
			return err
		}
		if input.BranchID != nil && c.BranchID != *input.BranchID {
			return cart.ErrCartNotFound
		}
		if len(c.Items) == 0 {
			return cart.ErrEmptyCart
		}

		agg := cart.NewAggregate(c, pricer.Now)
		quote, err := pricer.Price(ctx, agg, policy)
		if err != nil {
			return err
		}

		dropped := false
		if quote.Discount != nil && quote.Totals.Discount.IsPositive() {
			ok, err := s.discounts.WithTx(tx).IncrementUsage(ctx, quote.Discount.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment discount usage")
			}
			if !ok {
				// cap reached since the cart was priced
				agg.RemoveDiscount()
				dropped = true
				if quote, err = pricer.Price(ctx, agg, policy); err != nil {
					return err
				}
			}
		}
		totals := quote.Totals

		tender, err := checkout.ValidateTender(input.PaymentMethod, totals.Total, input.AmountTendered)
		if err != nil {
			return err
		}

		sale := buildSale(c, input, totals, tender, current.Currency, pricer.Now())
		if err := s.sales.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}

		if sale.TotalAmount.IsPositive() {
			saleID := sale.ID
			err = s.ledger.AppendTx(ctx, tx, c.BranchID, &models.RegisterTransaction{
				RegisterID:    input.RegisterID,
				Type:          enums.RegisterTransactionSale,
				Origin:        enums.OriginSale,
				Amount:        sale.TotalAmount,
				PaymentMethod: sale.PaymentMethod,
				Description:   fmt.Sprintf("Sale %s", saleID),
				CashierID:     input.UserID,
				ReferenceID:   &saleID,
				CreatedAt:     sale.CreatedAt,
			})
		} else {
			err = s.ledger.EnsureOpenTx(ctx, tx, c.BranchID, input.RegisterID)
		}
		if err != nil {
			return err
		}

		agg.Clear()
		agg.SetCustomer(nil)
		cart.ZeroTotals(c)
		if err := carts.ReplaceItems(ctx, c.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		if err := carts.Save(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		if err := s.emitSaleCompleted(ctx, tx, sale, input); err != nil {
			return err
		}

		result = &Result{Sale: sale, DiscountStatus: totals.DiscountStatus, DiscountDropped: dropped}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCheckout(string(result.Sale.PaymentMethod), result.Sale.Currency, result.Sale.TotalAmount)
	if result.Sale.TotalAmount.IsPositive() {
		s.metrics.IncLedgerAppend(string(enums.RegisterTransactionSale))
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":        result.Sale.ID.String(),
		"register_id":    result.Sale.RegisterID,
		"payment_method": string(result.Sale.PaymentMethod),
		"total":          result.Sale.TotalAmount.StringFixed(2),
	})
	if result.DiscountDropped {
		s.logg.Warn(logCtx, "checkout completed without discount, usage limit reached")
	} else {
		s.logg.Info(logCtx, "checkout completed")
	}
	return result, nil
}

func (s *service) emitSaleCompleted(ctx context.Context, tx *gorm.DB, sale *models.Sale, input Input) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID.String(),
		Actor:         &outbox.ActorRef{UserID: input.UserID, BranchID: input.BranchID},
		Data: payloads.SaleCompletedEvent{
			SaleID:        sale.ID,
			CartID:        sale.CartID,
			RegisterID:    sale.RegisterID,
			BranchID:      sale.BranchID,
			CashierID:     sale.CashierID,
			CustomerID:    sale.CustomerID,
			DiscountID:    sale.DiscountID,
			PaymentMethod: sale.PaymentMethod,
			Subtotal:      sale.Subtotal,
			DiscountTotal: sale.DiscountTotal,
			TaxTotal:      sale.TaxTotal,
			TotalAmount:   sale.TotalAmount,
			Currency:      sale.Currency,
			ItemCount:     len(sale.Items),
		},
		OccurredAt: sale.CreatedAt,
	})
}

// buildSale snapshots the cart lines with their share of the discount and
// tax. Line shares sum exactly to the sale amounts.
func buildSale(c *models.Cart, input Input, totals pricing.Totals, tender checkout.Tender, currency string, at time.Time) *models.Sale {
	sale := &models.Sale{
		ID:                 uuid.New(),
		CartID:             c.ID,
		RegisterID:         input.RegisterID,
		BranchID:           c.BranchID,
		CashierID:          input.UserID,
		CustomerID:         c.CustomerID,
		PaymentMethod:      tender.Method,
		Subtotal:           totals.Subtotal,
		DiscountTotal:      totals.Discount,
		TaxTotal:           totals.Tax,
		RoundingAdjustment: totals.RoundingAdjustment,
		TotalAmount:        totals.Total,
		AmountTendered:     tender.Tendered,
		ChangeDue:          tender.Change,
		Currency:           currency,
		CreatedAt:          at,
	}
	if totals.Discount.IsPositive() {
		sale.DiscountID = c.DiscountID
	}

	sale.Items = make([]models.SaleItem, 0, len(c.Items))
	for i, item := range c.Items {
		subtotal := pricing.Round2(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		share := pricing.LineTotals{Subtotal: subtotal, Net: subtotal}
		if i < len(totals.Lines) {
			share = totals.Lines[i]
		}
		sale.Items = append(sale.Items, models.SaleItem{
			SaleID:         sale.ID,
			CartItemID:     item.ID,
			ProductID:      item.ProductID,
			CategoryID:     item.CategoryID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			TaxRate:        item.TaxRate,
			LineSubtotal:   share.Subtotal,
			DiscountAmount: share.Discount,
			TaxAmount:      share.Tax,
			LineTotal:      share.Net,
		})
	}
	return sale
}
