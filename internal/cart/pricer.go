package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Quote is a freshly recomputed cart together with what it was priced with.
type Quote struct {
	Totals   pricing.Totals
	Discount *models.Discount
	Customer *models.Customer
}

// Pricer loads the discount and customer a cart references and recomputes it.
type Pricer struct {
	discounts discounts.Repository
	customers customers.Repository
	now       func() time.Time
}

func NewPricer(discountRepo discounts.Repository, customerRepo customers.Repository, now func() time.Time) *Pricer {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Pricer{discounts: discountRepo, customers: customerRepo, now: now}
}

// WithTx binds lookups to tx so reads see the caller's transaction.
func (p *Pricer) WithTx(tx *gorm.DB) *Pricer {
	return &Pricer{
		discounts: p.discounts.WithTx(tx),
		customers: p.customers.WithTx(tx),
		now:       p.now,
	}
}

// Price recomputes agg in place. A discount or customer that no longer
// exists is treated as absent.
func (p *Pricer) Price(ctx context.Context, agg *Aggregate, policy pricing.Policy) (Quote, error) {
	c := agg.Cart()
	var quote Quote

	if c.DiscountID != nil {
		discount, err := p.discounts.FindByID(ctx, *c.DiscountID)
		switch {
		case err == nil:
			quote.Discount = discount
		case !db.IsNotFound(err):
			return Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart discount")
		}
	}

	if c.CustomerID != nil {
		customer, err := p.customers.FindByID(ctx, *c.CustomerID)
		switch {
		case err == nil:
			quote.Customer = customer
		case !db.IsNotFound(err):
			return Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart customer")
		}
	}

	taxExempt := quote.Customer != nil && quote.Customer.TaxExempt
	quote.Totals = agg.Recompute(pricing.DiscountFromModel(quote.Discount), taxExempt, policy)
	return quote, nil
}

func (p *Pricer) Now() time.Time {
	return p.now()
}
