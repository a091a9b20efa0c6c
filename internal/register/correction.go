package register

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox"
	"github.com/angelmondragon/tillpoint-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tillpoint-backend/pkg/security"
)

// Correct reverses a ledger entry of the current session with a
// manager-approved opposite entry. Entries are never edited or deleted.
func (s *service) Correct(ctx context.Context, input CorrectInput) (*CorrectionResult, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "correction reason is required")
	}
	if input.TransactionID == uuid.Nil || input.ApprovedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction and approver are required")
	}
	if err := s.verifyManagerPIN(input.ManagerPIN); err != nil {
		return nil, err
	}
	at := s.now()

	var result *CorrectionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		original, err := repo.FindTransaction(ctx, input.TransactionID)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrTransactionNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if input.RegisterID != "" && original.RegisterID != input.RegisterID {
			return ErrTransactionNotFound
		}
		if err := s.inBranch(ctx, repo, original.RegisterID, input.BranchID); err != nil {
			if errors.Is(err, ErrRegisterNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if original.Origin.IsBalanceEntry() || original.Origin == enums.OriginCorrection {
			return ErrNotCorrectable
		}

		if err := s.touchOpen(ctx, repo, original.RegisterID); err != nil {
			if errors.Is(err, ErrNotOpen) {
				return ErrOutsideSession
			}
			return err
		}
		reg, err := s.load(ctx, repo, original.RegisterID)
		if err != nil {
			return err
		}
		if reg.OpenedAt == nil || original.CreatedAt.Before(*reg.OpenedAt) {
			return ErrOutsideSession
		}

		reversal := &models.RegisterTransaction{
			RegisterID:    original.RegisterID,
			Type:          reverseType(original.Type),
			Origin:        enums.OriginCorrection,
			Amount:        original.Amount,
			PaymentMethod: original.PaymentMethod,
			Description:   fmt.Sprintf("Correction: %s", reason),
			CashierID:     input.RequestedBy,
			ReferenceID:   original.ReferenceID,
			CorrectsID:    &original.ID,
			CreatedAt:     at,
		}
		if err := s.insert(ctx, repo, reversal); err != nil {
			return err
		}

		correction := &models.LedgerCorrection{
			RegisterID:    original.RegisterID,
			TransactionID: original.ID,
			ReversalID:    reversal.ID,
			Reason:        reason,
			RequestedBy:   input.RequestedBy,
			ApprovedBy:    input.ApprovedBy,
			CreatedAt:     at,
		}
		if err := repo.CreateCorrection(ctx, correction); err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrAlreadyCorrected
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record correction")
		}
		result = &CorrectionResult{Correction: correction, Reversal: reversal}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLedgerCorrected,
			AggregateType: enums.AggregateRegister,
			AggregateID:   original.RegisterID,
			Actor:         actor(input.ApprovedBy, input.BranchID),
			Data: payloads.LedgerCorrectedEvent{
				RegisterID:    original.RegisterID,
				TransactionID: original.ID,
				ReversalID:    reversal.ID,
				Type:          reversal.Type,
				Amount:        reversal.Amount,
				Reason:        reason,
				RequestedBy:   input.RequestedBy,
				ApprovedBy:    input.ApprovedBy,
			},
			OccurredAt: at,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncLedgerAppend(string(result.Reversal.Type))
	logCtx := s.logg.WithRegisterID(ctx, result.Correction.RegisterID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"transaction_id": result.Correction.TransactionID.String(),
		"approved_by":    input.ApprovedBy.String(),
	})
	s.logg.Info(logCtx, "ledger entry corrected")
	return result, nil
}

func (s *service) verifyManagerPIN(pin string) error {
	if s.pinHash == "" {
		return ErrPINNotConfigured
	}
	ok, err := security.VerifyPIN(pin, s.pinHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify manager pin")
	}
	if !ok {
		return ErrInvalidPIN
	}
	return nil
}

func reverseType(t enums.RegisterTransactionType) enums.RegisterTransactionType {
	if t.IsInflow() {
		return enums.RegisterTransactionCashOut
	}
	return enums.RegisterTransactionCashIn
}
