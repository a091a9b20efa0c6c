package register

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Ledger is the slice of the register other flows append through, inside
// their own transaction. A register outside branchID reads as not found.
type Ledger interface {
	EnsureOpenTx(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, registerID string) error
	AppendTx(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, entry *models.RegisterTransaction) error
}

// Reconciliation is the expected drawer balance for the current session.
type Reconciliation struct {
	Expected        decimal.Decimal
	ByPaymentMethod map[enums.PaymentMethod]decimal.Decimal
	Count           int
}

// Reconcile folds ledger entries into an expected balance:
// opening + sales + cash in - refunds - expenses - cash out. The register's
// own opening and closing count entries record the drawer, not a movement,
// and are skipped.
func Reconcile(opening decimal.Decimal, entries []models.RegisterTransaction) Reconciliation {
	out := Reconciliation{
		Expected:        opening,
		ByPaymentMethod: map[enums.PaymentMethod]decimal.Decimal{},
	}
	for _, entry := range entries {
		if entry.Origin.IsBalanceEntry() {
			continue
		}
		delta := entry.Amount
		if !entry.Type.IsInflow() {
			delta = delta.Neg()
		}
		out.Expected = out.Expected.Add(delta)
		out.ByPaymentMethod[entry.PaymentMethod] = out.ByPaymentMethod[entry.PaymentMethod].Add(delta)
		out.Count++
	}
	out.Expected = out.Expected.Round(2)
	return out
}

// Classify compares counted cash with the expected balance.
func Classify(difference decimal.Decimal) enums.VarianceStatus {
	switch difference.Round(2).Sign() {
	case 1:
		return enums.VarianceOver
	case -1:
		return enums.VarianceShort
	default:
		return enums.VarianceBalanced
	}
}

func (s *service) EnsureOpenTx(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, registerID string) error {
	repo := s.repo.WithTx(tx)
	if err := s.inBranch(ctx, repo, registerID, &branchID); err != nil {
		return err
	}
	return s.touchOpen(ctx, repo, registerID)
}

// AppendTx writes one ledger entry inside tx. The register must be open.
func (s *service) AppendTx(ctx context.Context, tx *gorm.DB, branchID uuid.UUID, entry *models.RegisterTransaction) error {
	return s.appendEntry(ctx, s.repo.WithTx(tx), &branchID, entry)
}

func (s *service) appendEntry(ctx context.Context, repo Repository, branchID *uuid.UUID, entry *models.RegisterTransaction) error {
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger entry required")
	}
	if !entry.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !entry.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if err := s.inBranch(ctx, repo, entry.RegisterID, branchID); err != nil {
		return err
	}
	if err := s.touchOpen(ctx, repo, entry.RegisterID); err != nil {
		return err
	}
	return s.insert(ctx, repo, entry)
}

// inBranch hides registers of other branches behind ErrRegisterNotFound. A
// nil branch skips the check.
func (s *service) inBranch(ctx context.Context, repo Repository, registerID string, branchID *uuid.UUID) error {
	if branchID == nil {
		return nil
	}
	reg, err := s.load(ctx, repo, registerID)
	if err != nil {
		return err
	}
	if reg.BranchID != *branchID {
		return ErrRegisterNotFound
	}
	return nil
}

func (s *service) touchOpen(ctx context.Context, repo Repository, registerID string) error {
	ok, err := repo.TouchOpen(ctx, registerID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock register")
	}
	if ok {
		return nil
	}
	if _, err := repo.FindByID(ctx, registerID); err != nil {
		if db.IsNotFound(err) {
			return ErrRegisterNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load register")
	}
	return ErrNotOpen
}

func (s *service) insert(ctx context.Context, repo Repository, entry *models.RegisterTransaction) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.PaymentMethod == "" {
		entry.PaymentMethod = enums.PaymentMethodCash
	}
	entry.Amount = entry.Amount.Round(2)
	if err := repo.AppendTransaction(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "") && entry.CorrectsID != nil {
			return ErrAlreadyCorrected
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return nil
}

func (s *service) reconcileTx(ctx context.Context, repo Repository, reg *models.Register) (Reconciliation, error) {
	since := reg.CreatedAt
	if reg.OpenedAt != nil {
		since = *reg.OpenedAt
	}
	entries, err := repo.TransactionsSince(ctx, reg.ID, since.UTC().Truncate(time.Microsecond))
	if err != nil {
		return Reconciliation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session ledger")
	}
	return Reconcile(reg.OpeningBalance, entries), nil
}
