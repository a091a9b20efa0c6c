package register

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/metrics"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tillpoint-backend/pkg/pagination"
)

const (
	openDescription  = "Register opened"
	closeDescription = "Register closed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the cash drawer lifecycle and its append-only ledger.
type Service interface {
	Ledger

	Create(ctx context.Context, input CreateInput) (*models.Register, error)
	Get(ctx context.Context, registerID string) (*models.Register, error)
	Open(ctx context.Context, input OpenInput) (*models.Register, error)
	Close(ctx context.Context, input CloseInput) (*CloseResult, error)
	RecordTransaction(ctx context.Context, input RecordInput) (*models.RegisterTransaction, error)
	ListTransactions(ctx context.Context, registerID string, params pagination.Params) (*TransactionPage, error)
	Summary(ctx context.Context, registerID string) (*SummaryResult, error)
	Correct(ctx context.Context, input CorrectInput) (*CorrectionResult, error)
	ListStale(ctx context.Context, openedBefore time.Time) ([]models.Register, error)
}

type CreateInput struct {
	ID       string
	BranchID uuid.UUID
	Name     string
}

type OpenInput struct {
	RegisterID     string
	OpeningBalance decimal.Decimal
	CashierID      uuid.UUID
	BranchID       *uuid.UUID
}

type CloseInput struct {
	RegisterID     string
	ClosingBalance *decimal.Decimal
	CashierID      uuid.UUID
	BranchID       *uuid.UUID
}

type RecordInput struct {
	RegisterID    string
	BranchID      *uuid.UUID
	Type          enums.RegisterTransactionType
	Amount        decimal.Decimal
	PaymentMethod enums.PaymentMethod
	Description   string
	CashierID     uuid.UUID
}

type CorrectInput struct {
	RegisterID    string
	TransactionID uuid.UUID
	Reason        string
	RequestedBy   uuid.UUID
	ApprovedBy    uuid.UUID
	ManagerPIN    string
	BranchID      *uuid.UUID
}

// CloseResult is the reconciliation of a finished session. Variance is
// reported, never rejected.
type CloseResult struct {
	Register        *models.Register
	ExpectedBalance decimal.Decimal
	Difference      decimal.Decimal
	Status          enums.VarianceStatus
	ByPaymentMethod map[enums.PaymentMethod]decimal.Decimal
}

type SummaryResult struct {
	Register         *models.Register
	ExpectedBalance  decimal.Decimal
	ByPaymentMethod  map[enums.PaymentMethod]decimal.Decimal
	TransactionCount int
}

type TransactionPage struct {
	Items      []models.RegisterTransaction
	NextCursor string
}

type CorrectionResult struct {
	Correction *models.LedgerCorrection
	Reversal   *models.RegisterTransaction
}

// Deps groups the collaborators NewService needs.
type Deps struct {
	Repo           Repository
	Tx             txRunner
	Outbox         outbox.Emitter
	Metrics        *metrics.POSMetrics
	Logger         *logger.Logger
	ManagerPINHash string
	Now            func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.POSMetrics
	logg    *logger.Logger
	pinHash string
	now     func() time.Time
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("register repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
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
		repo:    deps.Repo,
		tx:      deps.Tx,
		outbox:  deps.Outbox,
		metrics: deps.Metrics,
		logg:    deps.Logger,
		pinHash: strings.TrimSpace(deps.ManagerPINHash),
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Register, error) {
	id := strings.TrimSpace(input.ID)
	name := strings.TrimSpace(input.Name)
	if id == "" || len(id) > 64 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id must be 1-64 characters")
	}
	if input.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	if name == "" {
		name = id
	}
	reg := &models.Register{
		ID:             id,
		BranchID:       input.BranchID,
		Name:           name,
		Status:         enums.RegisterStatusClosed,
		OpeningBalance: decimal.Zero,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrRegisterExists
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create register")
	}
	return reg, nil
}

func (s *service) Get(ctx context.Context, registerID string) (*models.Register, error) {
	return s.load(ctx, s.repo, registerID)
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.Register, error) {
	if input.OpeningBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	opening := input.OpeningBalance.Round(2)
	at := s.now()

	var opened *models.Register
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.inBranch(ctx, repo, input.RegisterID, input.BranchID); err != nil {
			return err
		}
		ok, err := repo.MarkOpen(ctx, input.RegisterID, opening, input.CashierID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open register")
		}
		if !ok {
			if _, err := s.load(ctx, repo, input.RegisterID); err != nil {
				return err
			}
			return ErrAlreadyOpen
		}

		if opening.IsPositive() {
			entry := &models.RegisterTransaction{
				RegisterID:    input.RegisterID,
				Type:          enums.RegisterTransactionCashIn,
				Origin:        enums.OriginRegisterOpen,
				Amount:        opening,
				PaymentMethod: enums.PaymentMethodCash,
				Description:   openDescription,
				CashierID:     input.CashierID,
				CreatedAt:     at,
			}
			if err := s.insert(ctx, repo, entry); err != nil {
				return err
			}
		}

		reg, err := s.load(ctx, repo, input.RegisterID)
		if err != nil {
			return err
		}
		opened = reg

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegisterOpened,
			AggregateType: enums.AggregateRegister,
			AggregateID:   reg.ID,
			Actor:         actor(input.CashierID, input.BranchID),
			Data: payloads.RegisterOpenedEvent{
				RegisterID:     reg.ID,
				BranchID:       reg.BranchID,
				CashierID:      input.CashierID,
				OpeningBalance: opening,
				OpenedAt:       at,
			},
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithRegisterID(ctx, opened.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"cashier_id":      input.CashierID.String(),
		"opening_balance": opening.StringFixed(2),
	})
	s.logg.Info(logCtx, "register opened")
	return opened, nil
}

func (s *service) Close(ctx context.Context, input CloseInput) (*CloseResult, error) {
	if input.ClosingBalance == nil {
		return nil, ErrMissingBalance
	}
	if input.ClosingBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	closing := input.ClosingBalance.Round(2)
	at := s.now()

	var result *CloseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.inBranch(ctx, repo, input.RegisterID, input.BranchID); err != nil {
			return err
		}
		ok, err := repo.MarkClosed(ctx, input.RegisterID, closing, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close register")
		}
		if !ok {
			if _, err := s.load(ctx, repo, input.RegisterID); err != nil {
				return err
			}
			return ErrNotOpen
		}

		reg, err := s.load(ctx, repo, input.RegisterID)
		if err != nil {
			return err
		}
		recon, err := s.reconcileTx(ctx, repo, reg)
		if err != nil {
			return err
		}
		difference := closing.Sub(recon.Expected).Round(2)
		if err := repo.SaveReconciliation(ctx, reg.ID, recon.Expected, difference); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save reconciliation")
		}

		if closing.IsPositive() {
			entry := &models.RegisterTransaction{
				RegisterID:    reg.ID,
				Type:          enums.RegisterTransactionCashOut,
				Origin:        enums.OriginRegisterClose,
				Amount:        closing,
				PaymentMethod: enums.PaymentMethodCash,
				Description:   closeDescription,
				CashierID:     input.CashierID,
				CreatedAt:     at,
			}
			if err := s.insert(ctx, repo, entry); err != nil {
				return err
			}
		}

		expected := recon.Expected
		reg.ExpectedBalance = &expected
		reg.Variance = &difference
		status := Classify(difference)
		result = &CloseResult{
			Register:        reg,
			ExpectedBalance: recon.Expected,
			Difference:      difference,
			Status:          status,
			ByPaymentMethod: recon.ByPaymentMethod,
		}

		openedAt := at
		if reg.OpenedAt != nil {
			openedAt = *reg.OpenedAt
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRegisterClosed,
			AggregateType: enums.AggregateRegister,
			AggregateID:   reg.ID,
			Actor:         actor(input.CashierID, input.BranchID),
			Data: payloads.RegisterClosedEvent{
				RegisterID:      reg.ID,
				BranchID:        reg.BranchID,
				ClosingBalance:  closing,
				ExpectedBalance: recon.Expected,
				Difference:      difference,
				Status:          status,
				OpenedAt:        openedAt,
				ClosedAt:        at,
			},
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveCloseVariance(string(result.Status), result.Difference)
	logCtx := s.logg.WithRegisterID(ctx, result.Register.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"expected":    result.ExpectedBalance.StringFixed(2),
		"counted":     closing.StringFixed(2),
		"difference":  result.Difference.StringFixed(2),
		"status":      string(result.Status),
	})
	if result.Status == enums.VarianceBalanced {
		s.logg.Info(logCtx, "register closed")
	} else {
		s.logg.Warn(logCtx, "register closed with variance")
	}
	return result, nil
}

func (s *service) RecordTransaction(ctx context.Context, input RecordInput) (*models.RegisterTransaction, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	entry := &models.RegisterTransaction{
		RegisterID:    input.RegisterID,
		Type:          input.Type,
		Origin:        enums.OriginManual,
		Amount:        input.Amount,
		PaymentMethod: method,
		Description:   strings.TrimSpace(input.Description),
		CashierID:     input.CashierID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.appendEntry(ctx, s.repo.WithTx(tx), input.BranchID, entry)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncLedgerAppend(string(entry.Type))
	return entry, nil
}

func (s *service) ListTransactions(ctx context.Context, registerID string, params pagination.Params) (*TransactionPage, error) {
	if _, err := s.load(ctx, s.repo, registerID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListTransactions(ctx, registerID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list register transactions")
	}

	items, next := pagination.Trim(rows, params.Limit, func(entry models.RegisterTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
	})
	return &TransactionPage{Items: items, NextCursor: next}, nil
}

// Summary reports the live expected balance of the current session, or the
// last session's figures when the register is closed.
func (s *service) Summary(ctx context.Context, registerID string) (*SummaryResult, error) {
	reg, err := s.load(ctx, s.repo, registerID)
	if err != nil {
		return nil, err
	}
	if reg.OpenedAt == nil {
		return &SummaryResult{
			Register:        reg,
			ExpectedBalance: decimal.Zero,
			ByPaymentMethod: map[enums.PaymentMethod]decimal.Decimal{},
		}, nil
	}
	recon, err := s.reconcileTx(ctx, s.repo, reg)
	if err != nil {
		return nil, err
	}
	expected := recon.Expected
	if reg.Status == enums.RegisterStatusClosed && reg.ExpectedBalance != nil {
		expected = *reg.ExpectedBalance
	}
	return &SummaryResult{
		Register:         reg,
		ExpectedBalance:  expected,
		ByPaymentMethod:  recon.ByPaymentMethod,
		TransactionCount: recon.Count,
	}, nil
}

func (s *service) ListStale(ctx context.Context, openedBefore time.Time) ([]models.Register, error) {
	regs, err := s.repo.ListOpenedBefore(ctx, openedBefore.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale registers")
	}
	return regs, nil
}

func (s *service) load(ctx context.Context, repo Repository, registerID string) (*models.Register, error) {
	reg, err := repo.FindByID(ctx, registerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrRegisterNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load register")
	}
	return reg, nil
}

func actor(userID uuid.UUID, branchID *uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, BranchID: branchID}
}
