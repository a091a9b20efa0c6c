package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
)

type staticSettings struct {
	value settings.Settings
}

func (s staticSettings) Get(context.Context) (settings.Settings, error) {
	return s.value, nil
}

type fixture struct {
	client    *db.Client
	svc       Service
	carts     cart.Service
	cartRepo  cart.Repository
	registers register.Service
	sales     sales.Repository
	discounts discounts.Repository
	products  products.Repository
	userID    uuid.UUID
	branchID  uuid.UUID
	cart      *models.Cart
	reg       *models.Register
	promReg   *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	ctx := context.Background()

	tick := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	source := staticSettings{value: settings.Settings{Currency: "USD", TaxBase: enums.TaxBasePreDiscount}}

	f := &fixture{
		client:    client,
		cartRepo:  cart.NewRepository(conn),
		sales:     sales.NewRepository(conn),
		discounts: discounts.NewRepository(conn),
		products:  products.NewRepository(conn),
		userID:    uuid.New(),
		branchID:  uuid.New(),
		promReg:   prometheus.NewRegistry(),
	}
	customerRepo := customers.NewRepository(conn)
	pricer := cart.NewPricer(f.discounts, customerRepo, now)

	var err error
	f.carts, err = cart.NewService(cart.Deps{
		Carts:     f.cartRepo,
		Products:  f.products,
		Discounts: f.discounts,
		Customers: customerRepo,
		Settings:  source,
		Pricer:    pricer,
		Tx:        client,
	})
	require.NoError(t, err)

	f.registers, err = register.NewService(register.Deps{
		Repo:   register.NewRepository(conn),
		Tx:     client,
		Outbox: emitter,
		Logger: logg,
		Now:    now,
	})
	require.NoError(t, err)

	f.svc, err = NewService(Deps{
		Carts:     f.cartRepo,
		Sales:     f.sales,
		Discounts: f.discounts,
		Pricer:    pricer,
		Settings:  source,
		Ledger:    f.registers,
		Tx:        client,
		Outbox:    emitter,
		Metrics:   metrics.NewPOSMetrics(f.promReg),
		Logger:    logg,
	})
	require.NoError(t, err)

	f.cart = &models.Cart{UserID: f.userID, BranchID: f.branchID, Name: "Main Cart", IsActive: true}
	require.NoError(t, f.cartRepo.Create(ctx, f.cart))

	f.reg, err = f.registers.Create(ctx, register.CreateInput{ID: "till-07", BranchID: f.branchID})
	require.NoError(t, err)
	_, err = f.registers.Open(ctx, register.OpenInput{RegisterID: f.reg.ID, OpeningBalance: decimal.NewFromInt(100), CashierID: f.userID})
	require.NoError(t, err)
	return f
}

func (f *fixture) add(t *testing.T, price, rate string, qty int) {
	t.Helper()
	ctx := context.Background()
	p := &models.Product{
		SKU:      uuid.NewString(),
		Name:     "Item " + price,
		Price:    decimal.RequireFromString(price),
		TaxRate:  decimal.RequireFromString(rate),
		IsActive: true,
	}
	require.NoError(t, f.products.Create(ctx, p))
	for i := 0; i < qty; i++ {
		_, err := f.carts.AddItem(ctx, f.userID, f.cart.ID, p.ID)
		require.NoError(t, err)
	}
}

func (f *fixture) discount(t *testing.T, d *models.Discount) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.discounts.Create(ctx, d))
	_, err := f.carts.ApplyDiscount(ctx, f.userID, f.cart.ID, d.ID)
	require.NoError(t, err)
}

func fiveOff() *models.Discount {
	return &models.Discount{
		Name:     "Five off",
		Type:     enums.DiscountTypeFixed,
		Value:    decimal.RequireFromString("5.00"),
		Scope:    enums.DiscountScopeEntireOrder,
		IsActive: true,
	}
}

func tendered(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func (f *fixture) input(method enums.PaymentMethod, amount *decimal.Decimal) Input {
	return Input{
		UserID:         f.userID,
		BranchID:       &f.branchID,
		CartID:         f.cart.ID,
		RegisterID:     f.reg.ID,
		PaymentMethod:  method,
		AmountTendered: amount,
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(Deps{})
	require.Error(t, err)
}

func TestCashCheckoutRecordsSaleAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "10.00", "0.07", 3)
	promo := fiveOff()
	f.discount(t, promo)

	res, err := f.svc.Checkout(ctx, f.input(enums.PaymentMethodCash, tendered("30")))
	require.NoError(t, err)
	assert.False(t, res.DiscountDropped)
	assert.Equal(t, pricing.DiscountApplied, res.DiscountStatus)

	sale, err := f.sales.FindByID(ctx, res.Sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "30.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", sale.DiscountTotal.StringFixed(2))
	assert.Equal(t, "2.10", sale.TaxTotal.StringFixed(2))
	assert.Equal(t, "27.10", sale.TotalAmount.StringFixed(2))
	assert.Equal(t, "2.90", sale.ChangeDue.StringFixed(2))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, "27.10", sale.Items[0].LineTotal.StringFixed(2))
	require.NotNil(t, sale.DiscountID)

	summary, err := f.registers.Summary(ctx, f.reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "127.10", summary.ExpectedBalance.StringFixed(2))

	view, err := f.carts.Get(ctx, f.userID, f.cart.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
	assert.Nil(t, view.Cart.DiscountID)
	assert.True(t, view.Cart.TotalAmount.IsZero())

	stored, err := f.discounts.FindByID(ctx, promo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)

	var events []models.OutboxEvent
	require.NoError(t, f.client.DB().Where("event_type = ?", enums.EventSaleCompleted).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, sale.ID.String(), events[0].AggregateID)
}

func TestCheckoutAllocatesDiscountAcrossLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "10.00", "0.07", 1)
	f.add(t, "20.00", "0.07", 1)
	f.discount(t, fiveOff())

	res, err := f.svc.Checkout(ctx, f.input(enums.PaymentMethodCard, nil))
	require.NoError(t, err)

	sale, err := f.sales.FindByID(ctx, res.Sale.ID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)

	discount, lineTotal, tax := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range sale.Items {
		discount = discount.Add(item.DiscountAmount)
		lineTotal = lineTotal.Add(item.LineTotal)
		tax = tax.Add(item.TaxAmount)
	}
	assert.True(t, discount.Equal(sale.DiscountTotal), "discount shares %s", discount)
	assert.True(t, tax.Equal(sale.TaxTotal), "tax shares %s", tax)
	assert.True(t, lineTotal.Equal(sale.TotalAmount), "line totals %s", lineTotal)
	assert.True(t, sale.ChangeDue.IsZero())
	assert.Equal(t, enums.PaymentMethodCard, sale.PaymentMethod)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), f.input(enums.PaymentMethodCard, nil))
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestCheckoutClosedRegisterRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "10.00", "0", 1)
	promo := fiveOff()
	f.discount(t, promo)

	counted := decimal.NewFromInt(100)
	_, err := f.registers.Close(ctx, register.CloseInput{RegisterID: f.reg.ID, ClosingBalance: &counted})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.input(enums.PaymentMethodCash, tendered("10")))
	require.ErrorIs(t, err, register.ErrNotOpen)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Sale{}).Count(&count).Error)
	assert.Zero(t, count)

	view, err := f.carts.Get(ctx, f.userID, f.cart.ID)
	require.NoError(t, err)
	assert.Len(t, view.Cart.Items, 1)

	stored, err := f.discounts.FindByID(ctx, promo.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.UsageCount)
}

func TestCheckoutRejectsRegisterOfAnotherBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "10.00", "0", 1)

	foreign, err := f.registers.Create(ctx, register.CreateInput{ID: "till-remote", BranchID: uuid.New()})
	require.NoError(t, err)
	_, err = f.registers.Open(ctx, register.OpenInput{RegisterID: foreign.ID, OpeningBalance: decimal.NewFromInt(50), CashierID: uuid.New()})
	require.NoError(t, err)

	in := f.input(enums.PaymentMethodCard, nil)
	in.RegisterID = foreign.ID
	_, err = f.svc.Checkout(ctx, in)
	require.ErrorIs(t, err, register.ErrRegisterNotFound)

	summary, err := f.registers.Summary(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", summary.ExpectedBalance.StringFixed(2))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutRejectsCartOfAnotherBranch(t *testing.T) {
	f := newFixture(t)
	f.add(t, "10.00", "0", 1)

	other := uuid.New()
	in := f.input(enums.PaymentMethodCard, nil)
	in.BranchID = &other
	_, err := f.svc.Checkout(context.Background(), in)
	require.ErrorIs(t, err, cart.ErrCartNotFound)
}

func (f *fixture) ledgerAppends(t *testing.T, txType string) float64 {
	t.Helper()
	families, err := f.promReg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tillpoint_ledger_appends_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "type" && label.GetValue() == txType {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestLedgerAppendCountedOnlyWhenSaleMovesMoney(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "5.00", "0", 1)
	f.discount(t, fiveOff())

	result, err := f.svc.Checkout(ctx, f.input(enums.PaymentMethodCard, nil))
	require.NoError(t, err)
	require.True(t, result.Sale.TotalAmount.IsZero())
	assert.Zero(t, f.ledgerAppends(t, "sale"))

	f.add(t, "4.00", "0", 1)
	_, err = f.svc.Checkout(ctx, f.input(enums.PaymentMethodCard, nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), f.ledgerAppends(t, "sale"))
}

func TestCheckoutCashShortfall(t *testing.T) {
	f := newFixture(t)
	f.add(t, "10.00", "0.07", 3)

	_, err := f.svc.Checkout(context.Background(), f.input(enums.PaymentMethodCash, tendered("20")))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCheckoutSkipsExhaustedDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "10.00", "0", 2)
	limit := 1
	promo := fiveOff()
	promo.UsageLimit = &limit
	f.discount(t, promo)

	require.NoError(t, f.client.DB().Model(&models.Discount{}).
		Where("id = ?", promo.ID).
		Update("usage_count", 1).Error)

	res, err := f.svc.Checkout(ctx, f.input(enums.PaymentMethodCash, tendered("20")))
	require.NoError(t, err)
	assert.Equal(t, pricing.DiscountUsageLimitReached, res.DiscountStatus)
	assert.Equal(t, "20.00", res.Sale.TotalAmount.StringFixed(2))
	assert.Nil(t, res.Sale.DiscountID)
}

func TestCheckoutForeignCart(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1.00", "0", 1)
	in := f.input(enums.PaymentMethodCard, nil)
	in.UserID = uuid.New()

	_, err := f.svc.Checkout(context.Background(), in)
	require.ErrorIs(t, err, cart.ErrCartNotFound)
}
