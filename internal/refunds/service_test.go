package refunds

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

	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
)

type fixture struct {
	client    *db.Client
	svc       Service
	registers register.Service
	sale      *models.Sale
	cashierID uuid.UUID
	promReg   *prometheus.Registry
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	ctx := context.Background()

	tick := time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	salesRepo := sales.NewRepository(conn)

	f := &fixture{client: client, cashierID: uuid.New(), promReg: prometheus.NewRegistry()}
	var err error
	f.registers, err = register.NewService(register.Deps{
		Repo:   register.NewRepository(conn),
		Tx:     client,
		Outbox: emitter,
		Logger: logg,
		Now:    now,
	})
	require.NoError(t, err)
	f.svc, err = NewService(Deps{
		Refunds: NewRepository(conn),
		Sales:   salesRepo,
		Ledger:  f.registers,
		Tx:      client,
		Outbox:  emitter,
		Metrics: metrics.NewPOSMetrics(f.promReg),
		Logger:  logg,
		Now:     now,
	})
	require.NoError(t, err)

	branchID := uuid.New()
	_, err = f.registers.Create(ctx, register.CreateInput{ID: "till-09", BranchID: branchID})
	require.NoError(t, err)
	_, err = f.registers.Open(ctx, register.OpenInput{RegisterID: "till-09", OpeningBalance: dec("100"), CashierID: f.cashierID})
	require.NoError(t, err)

	f.sale = &models.Sale{
		CartID:        uuid.New(),
		RegisterID:    "till-09",
		BranchID:      branchID,
		CashierID:     f.cashierID,
		PaymentMethod: enums.PaymentMethodCash,
		Subtotal:      dec("40.00"),
		DiscountTotal: dec("5.00"),
		TaxTotal:      dec("2.10"),
		TotalAmount:   dec("37.10"),
		Currency:      "USD",
		CreatedAt:     now(),
		Items: []models.SaleItem{
			{ProductID: uuid.New(), CartItemID: uuid.New(), Name: "Coffee", UnitPrice: dec("10.00"), Quantity: 3,
				TaxRate: dec("0.07"), LineSubtotal: dec("30.00"), DiscountAmount: dec("5.00"), TaxAmount: dec("2.10"), LineTotal: dec("27.10")},
			{ProductID: uuid.New(), CartItemID: uuid.New(), Name: "Mug", UnitPrice: dec("10.00"), Quantity: 1,
				TaxRate: dec("0"), LineSubtotal: dec("10.00"), DiscountAmount: dec("0"), TaxAmount: dec("0"), LineTotal: dec("10.00")},
			{ProductID: uuid.New(), CartItemID: uuid.New(), Name: "Sticker", UnitPrice: dec("0"), Quantity: 1,
				TaxRate: dec("0"), LineSubtotal: dec("0"), DiscountAmount: dec("0"), TaxAmount: dec("0"), LineTotal: dec("0")},
		},
	}
	require.NoError(t, salesRepo.Create(ctx, f.sale))
	return f
}

func (f *fixture) item(name string) models.SaleItem {
	for _, item := range f.sale.Items {
		if item.Name == name {
			return item
		}
	}
	return models.SaleItem{}
}

func (f *fixture) request(qty int, name string) (*models.Refund, error) {
	return f.svc.Request(context.Background(), RequestInput{
		SaleID:    f.sale.ID,
		CashierID: f.cashierID,
		Reason:    "damaged",
		Lines:     []LineInput{{SaleItemID: f.item(name).ID, Quantity: qty}},
	})
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(Deps{})
	require.Error(t, err)
}

func TestLineRefundAmountSumsToLineTotal(t *testing.T) {
	item := models.SaleItem{Quantity: 3, LineTotal: dec("27.10")}

	total := decimal.Zero
	for already := 0; already < 3; already++ {
		total = total.Add(LineRefundAmount(item, already, 1))
	}
	assert.Equal(t, "27.10", total.StringFixed(2))
	assert.Equal(t, "9.03", LineRefundAmount(item, 0, 1).StringFixed(2))
}

func TestRequestPricesPartialRefund(t *testing.T) {
	f := newFixture(t)

	refund, err := f.request(1, "Coffee")
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusPending, refund.Status)
	assert.Equal(t, "9.03", refund.Amount.StringFixed(2))
	assert.Equal(t, "till-09", refund.RegisterID)
	assert.Equal(t, enums.PaymentMethodCash, refund.PaymentMethod)

	rest, err := f.request(2, "Coffee")
	require.NoError(t, err)
	assert.Equal(t, "18.07", rest.Amount.StringFixed(2))
}

func TestRequestRejectsOverRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.request(2, "Coffee")
	require.NoError(t, err)

	_, err = f.request(2, "Coffee")
	require.ErrorIs(t, err, ErrQuantityExceeded)

	_, err = f.svc.Reject(ctx, DecisionInput{RefundID: pending.ID, Reason: "customer kept it"})
	require.NoError(t, err)

	_, err = f.request(3, "Coffee")
	require.NoError(t, err)
}

func TestRequestValidatesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, RequestInput{SaleID: f.sale.ID, Reason: "x"})
	require.ErrorIs(t, err, ErrNoLines)

	_, err = f.svc.Request(ctx, RequestInput{SaleID: f.sale.ID, Reason: "x", Lines: []LineInput{{SaleItemID: uuid.New(), Quantity: 1}}})
	require.ErrorIs(t, err, ErrUnknownSaleItem)

	_, err = f.svc.Request(ctx, RequestInput{SaleID: uuid.New(), Reason: "x", Lines: []LineInput{{SaleItemID: uuid.New(), Quantity: 1}}})
	require.ErrorIs(t, err, sales.ErrSaleNotFound)
}

func TestCompleteAppendsRefundToLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	refund, err := f.request(1, "Mug")
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, DecisionInput{RefundID: refund.ID, ActorID: f.cashierID})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	summary, err := f.registers.Summary(ctx, "till-09")
	require.NoError(t, err)
	assert.Equal(t, "90.00", summary.ExpectedBalance.StringFixed(2))

	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: refund.ID})
	require.ErrorIs(t, err, ErrNotPending)

	var events []models.OutboxEvent
	require.NoError(t, f.client.DB().Where("event_type = ?", enums.EventRefundCompleted).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, refund.ID.String(), events[0].AggregateID)
}

func TestCompleteOnClosedRegisterStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	refund, err := f.request(1, "Mug")
	require.NoError(t, err)

	counted := dec("100")
	_, err = f.registers.Close(ctx, register.CloseInput{RegisterID: "till-09", ClosingBalance: &counted})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: refund.ID})
	require.ErrorIs(t, err, register.ErrNotOpen)

	stored, err := f.svc.Get(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusPending, stored.Status)
}

func TestRefundsStayInsideTheSaleBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := uuid.New()

	_, err := f.svc.Request(ctx, RequestInput{
		SaleID:    f.sale.ID,
		BranchID:  &other,
		CashierID: f.cashierID,
		Reason:    "damaged",
		Lines:     []LineInput{{SaleItemID: f.item("Mug").ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, sales.ErrSaleNotFound)

	refund, err := f.request(1, "Mug")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: refund.ID, BranchID: &other})
	require.ErrorIs(t, err, ErrRefundNotFound)
	_, err = f.svc.Reject(ctx, DecisionInput{RefundID: refund.ID, BranchID: &other, Reason: "nope"})
	require.ErrorIs(t, err, ErrRefundNotFound)

	_, err = f.registers.Create(ctx, register.CreateInput{ID: "till-remote", BranchID: other})
	require.NoError(t, err)
	_, err = f.registers.Open(ctx, register.OpenInput{RegisterID: "till-remote", OpeningBalance: dec("50"), CashierID: uuid.New()})
	require.NoError(t, err)
	redirected, err := f.svc.Request(ctx, RequestInput{
		SaleID:     f.sale.ID,
		RegisterID: "till-remote",
		CashierID:  f.cashierID,
		Reason:     "damaged",
		Lines:      []LineInput{{SaleItemID: f.item("Coffee").ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: redirected.ID})
	require.ErrorIs(t, err, register.ErrRegisterNotFound)

	summary, err := f.registers.Summary(ctx, "till-remote")
	require.NoError(t, err)
	assert.Equal(t, "50.00", summary.ExpectedBalance.StringFixed(2))
}

func TestFreeRefundIsNotCountedAsLedgerAppend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appends := func() float64 {
		families, err := f.promReg.Gather()
		require.NoError(t, err)
		for _, mf := range families {
			if mf.GetName() != "tillpoint_ledger_appends_total" {
				continue
			}
			for _, m := range mf.GetMetric() {
				for _, label := range m.GetLabel() {
					if label.GetName() == "type" && label.GetValue() == "refund" {
						return m.GetCounter().GetValue()
					}
				}
			}
		}
		return 0
	}

	free, err := f.request(1, "Sticker")
	require.NoError(t, err)
	require.True(t, free.Amount.IsZero())
	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: free.ID})
	require.NoError(t, err)
	assert.Zero(t, appends())

	paid, err := f.request(1, "Mug")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: paid.ID})
	require.NoError(t, err)
	assert.Equal(t, float64(1), appends())
}

func TestRejectRequiresReasonAndPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	refund, err := f.request(1, "Mug")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, DecisionInput{RefundID: refund.ID})
	require.Error(t, err)

	rejected, err := f.svc.Reject(ctx, DecisionInput{RefundID: refund.ID, Reason: "no receipt"})
	require.NoError(t, err)
	assert.Equal(t, enums.RefundStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)

	_, err = f.svc.Complete(ctx, DecisionInput{RefundID: refund.ID})
	require.ErrorIs(t, err, ErrNotPending)

	_, err = f.svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrRefundNotFound)
}

func TestListBySale(t *testing.T) {
	f := newFixture(t)
	_, err := f.request(1, "Mug")
	require.NoError(t, err)
	_, err = f.request(1, "Coffee")
	require.NoError(t, err)

	rows, err := f.svc.ListBySale(context.Background(), f.sale.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
