package refunds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
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

// Service moves refunds through pending -> completed | rejected. Only a
// completed refund touches the register ledger.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Refund, error)
	Complete(ctx context.Context, input DecisionInput) (*models.Refund, error)
	Reject(ctx context.Context, input DecisionInput) (*models.Refund, error)
	Get(ctx context.Context, refundID uuid.UUID) (*models.Refund, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.Refund, error)
}

type LineInput struct {
	SaleItemID uuid.UUID
	Quantity   int
}

// RequestInput describes a refund. RegisterID and PaymentMethod default to
// the sale's.
type RequestInput struct {
	SaleID        uuid.UUID
	BranchID      *uuid.UUID
	RegisterID    string
	CashierID     uuid.UUID
	Lines         []LineInput
	Reason        string
	PaymentMethod enums.PaymentMethod
}

type DecisionInput struct {
	RefundID uuid.UUID
	ActorID  uuid.UUID
	BranchID *uuid.UUID
	Reason   string
}

type Deps struct {
	Refunds Repository
	Sales   sales.Repository
	Ledger  register.Ledger
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics *metrics.POSMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	refunds Repository
	sales   sales.Repository
	ledger  register.Ledger
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.POSMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Refunds == nil:
		return nil, fmt.Errorf("refund repository required")
	case deps.Sales == nil:
		return nil, fmt.Errorf("sales repository required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("register ledger required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		refunds: deps.Refunds,
		sales:   deps.Sales,
		ledger:  deps.Ledger,
		tx:      deps.Tx,
		outbox:  deps.Outbox,
		metrics: deps.Metrics,
		logg:    deps.Logger,
		now:     now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.Refund, error) {
	if len(input.Lines) == 0 {
		return nil, ErrNoLines
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason is required")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	requested := map[uuid.UUID]int{}
	order := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund quantity must be positive")
		}
		if _, seen := requested[line.SaleItemID]; !seen {
			order = append(order, line.SaleItemID)
		}
		requested[line.SaleItemID] += line.Quantity
	}

	var refund *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.sales.WithTx(tx).FindForUpdate(ctx, input.SaleID)
		if err != nil {
			if db.IsNotFound(err) {
				return sales.ErrSaleNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
		}
		if input.BranchID != nil && sale.BranchID != *input.BranchID {
			return sales.ErrSaleNotFound
		}
		refunds := s.refunds.WithTx(tx)
		reserved, err := refunds.ReservedQuantities(ctx, sale.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refunded quantities")
		}

		items := make(map[uuid.UUID]models.SaleItem, len(sale.Items))
		for _, item := range sale.Items {
			items[item.ID] = item
		}

		at := s.now()
		refund = &models.Refund{
			SaleID:        sale.ID,
			RegisterID:    firstNonEmpty(input.RegisterID, sale.RegisterID),
			CashierID:     input.CashierID,
			Status:        enums.RefundStatusPending,
			Reason:        reason,
			PaymentMethod: input.PaymentMethod,
			Amount:        decimal.Zero,
			CreatedAt:     at,
			UpdatedAt:     at,
		}
		if refund.PaymentMethod == "" {
			refund.PaymentMethod = sale.PaymentMethod
		}

		for _, saleItemID := range order {
			item, ok := items[saleItemID]
			if !ok {
				return ErrUnknownSaleItem.WithDetails(map[string]any{"sale_item_id": saleItemID})
			}
			qty := requested[saleItemID]
			already := reserved[saleItemID]
			if already+qty > item.Quantity {
				return ErrQuantityExceeded.WithDetails(map[string]any{
					"sale_item_id": saleItemID,
					"sold":         item.Quantity,
					"refunded":     already,
					"requested":    qty,
				})
			}
			amount := LineRefundAmount(item, already, qty)
			refund.Items = append(refund.Items, models.RefundItem{
				SaleItemID: saleItemID,
				Quantity:   qty,
				Amount:     amount,
			})
			refund.Amount = refund.Amount.Add(amount)
		}

		if err := refunds.Create(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncRefund(string(enums.RefundStatusPending))
	return refund, nil
}

// LineRefundAmount prices qty units of a sale line after already units were
// refunded. Amounts are taken from the cumulative share of the line total so
// refunding a line unit by unit sums exactly to its total.
func LineRefundAmount(item models.SaleItem, already, qty int) decimal.Decimal {
	if item.Quantity <= 0 {
		return decimal.Zero
	}
	sold := decimal.NewFromInt(int64(item.Quantity))
	share := func(units int) decimal.Decimal {
		return pricing.Round2(item.LineTotal.Mul(decimal.NewFromInt(int64(units))).Div(sold))
	}
	return share(already + qty).Sub(share(already))
}

func (s *service) Complete(ctx context.Context, input DecisionInput) (*models.Refund, error) {
	var refund *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		refunds := s.refunds.WithTx(tx)
		sale, err := s.scopedSale(ctx, tx, input.RefundID, input.BranchID)
		if err != nil {
			return err
		}
		at := s.now()
		ok, err := refunds.MarkCompleted(ctx, input.RefundID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete refund")
		}
		if !ok {
			return s.decisionConflict(ctx, refunds, input.RefundID)
		}
		refund, err = s.load(ctx, refunds, input.RefundID)
		if err != nil {
			return err
		}

		if refund.Amount.IsPositive() {
			refundID := refund.ID
			err = s.ledger.AppendTx(ctx, tx, sale.BranchID, &models.RegisterTransaction{
				RegisterID:    refund.RegisterID,
				Type:          enums.RegisterTransactionRefund,
				Origin:        enums.OriginRefund,
				Amount:        refund.Amount,
				PaymentMethod: refund.PaymentMethod,
				Description:   fmt.Sprintf("Refund %s", refundID),
				CashierID:     actorOr(input.ActorID, refund.CashierID),
				ReferenceID:   &refundID,
				CreatedAt:     at,
			})
		} else {
			err = s.ledger.EnsureOpenTx(ctx, tx, sale.BranchID, refund.RegisterID)
		}
		if err != nil {
			return err
		}

		var actor *outbox.ActorRef
		if input.ActorID != uuid.Nil {
			actor = &outbox.ActorRef{UserID: input.ActorID, BranchID: input.BranchID}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundCompleted,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID.String(),
			Actor:         actor,
			Data: payloads.RefundCompletedEvent{
				RefundID:      refund.ID,
				SaleID:        refund.SaleID,
				RegisterID:    refund.RegisterID,
				PaymentMethod: refund.PaymentMethod,
				Amount:        refund.Amount,
				CompletedAt:   at,
			},
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRefund(string(enums.RefundStatusCompleted))
	if refund.Amount.IsPositive() {
		s.metrics.IncLedgerAppend(string(enums.RegisterTransactionRefund))
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"refund_id":   refund.ID.String(),
		"sale_id":     refund.SaleID.String(),
		"register_id": refund.RegisterID,
		"amount":      refund.Amount.StringFixed(2),
	})
	s.logg.Info(logCtx, "refund completed")
	return refund, nil
}

func (s *service) Reject(ctx context.Context, input DecisionInput) (*models.Refund, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reject reason is required")
	}
	var refund *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		refunds := s.refunds.WithTx(tx)
		if _, err := s.scopedSale(ctx, tx, input.RefundID, input.BranchID); err != nil {
			return err
		}
		ok, err := refunds.MarkRejected(ctx, input.RefundID, reason, s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject refund")
		}
		if !ok {
			return s.decisionConflict(ctx, refunds, input.RefundID)
		}
		refund, err = s.load(ctx, refunds, input.RefundID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncRefund(string(enums.RefundStatusRejected))
	return refund, nil
}

// scopedSale loads the sale behind a refund. Refunds of another branch read
// as not found.
func (s *service) scopedSale(ctx context.Context, tx *gorm.DB, refundID uuid.UUID, branchID *uuid.UUID) (*models.Sale, error) {
	refund, err := s.load(ctx, s.refunds.WithTx(tx), refundID)
	if err != nil {
		return nil, err
	}
	sale, err := sales.Load(ctx, s.sales.WithTx(tx), refund.SaleID)
	if err != nil {
		return nil, err
	}
	if branchID != nil && sale.BranchID != *branchID {
		return nil, ErrRefundNotFound
	}
	return sale, nil
}

// decisionConflict explains why a conditional status update touched no row.
func (s *service) decisionConflict(ctx context.Context, refunds Repository, refundID uuid.UUID) error {
	current, err := s.load(ctx, refunds, refundID)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return ErrNotPending
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "refund %s changed concurrently", refundID)
}

func (s *service) Get(ctx context.Context, refundID uuid.UUID) (*models.Refund, error) {
	return s.load(ctx, s.refunds, refundID)
}

func (s *service) ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.Refund, error) {
	if _, err := sales.Load(ctx, s.sales, saleID); err != nil {
		return nil, err
	}
	rows, err := s.refunds.ListBySale(ctx, saleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return rows, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Refund, error) {
	refund, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrRefundNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}
	return refund, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func actorOr(actor, fallback uuid.UUID) uuid.UUID {
	if actor != uuid.Nil {
		return actor
	}
	return fallback
}
