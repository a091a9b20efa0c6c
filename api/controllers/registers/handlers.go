package registers

import (
	"net/http"

	"github.com/angelmondragon/tillpoint-backend/api/controllers/dto"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/register"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

const maxRegisterIDLen = 64

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable")

// Create registers a device as a drawer in the caller's branch.
func Create(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), register.CreateInput{
			ID:       validators.SanitizeString(payload.ID, maxRegisterIDLen),
			BranchID: actor.BranchID,
			Name:     validators.SanitizeString(payload.Name, 80),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewRegisterResponse(created))
	}
}

func Get(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		registerID, err := validators.ParseStringParam(r, "registerId", maxRegisterIDLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reg, err := svc.Get(r.Context(), registerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRegisterResponse(reg))
	}
}

func Open(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		actor, registerID, ok := actorAndRegister(w, r, logg)
		if !ok {
			return
		}

		var payload openRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		opening, err := validators.ParseDecimal("opening_balance", payload.OpeningBalance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reg, err := svc.Open(r.Context(), register.OpenInput{
			RegisterID:     registerID,
			OpeningBalance: opening,
			CashierID:      actor.UserID,
			BranchID:       &actor.BranchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRegisterResponse(reg))
	}
}

// Close counts the drawer. A variance is part of the response, never an error.
func Close(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		actor, registerID, ok := actorAndRegister(w, r, logg)
		if !ok {
			return
		}

		var payload closeRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		closing, err := validators.ParseOptionalDecimal("closing_balance", payload.ClosingBalance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Close(r.Context(), register.CloseInput{
			RegisterID:     registerID,
			ClosingBalance: closing,
			CashierID:      actor.UserID,
			BranchID:       &actor.BranchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCloseResponse(result))
	}
}

func RecordTransaction(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		actor, registerID, ok := actorAndRegister(w, r, logg)
		if !ok {
			return
		}

		var payload recordTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseDecimal("amount", payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseRegisterTransactionType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}
		var method enums.PaymentMethod
		if payload.PaymentMethod != "" {
			if method, err = enums.ParsePaymentMethod(payload.PaymentMethod); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
		}

		entry, err := svc.RecordTransaction(r.Context(), register.RecordInput{
			RegisterID:    registerID,
			BranchID:      &actor.BranchID,
			Type:          txType,
			Amount:        amount,
			PaymentMethod: method,
			Description:   validators.SanitizeString(payload.Description, 255),
			CashierID:     actor.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewTransactionResponse(entry))
	}
}

func ListTransactions(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		registerID, err := validators.ParseStringParam(r, "registerId", maxRegisterIDLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListTransactions(r.Context(), registerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewTransactionPage(page))
	}
}

func Summary(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		registerID, err := validators.ParseStringParam(r, "registerId", maxRegisterIDLen)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), registerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewSummaryResponse(summary))
	}
}

// Correct reverses a ledger entry. The approving manager's PIN travels in
// the body; the caller is recorded as the requester.
func Correct(svc register.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		actor, registerID, ok := actorAndRegister(w, r, logg)
		if !ok {
			return
		}

		var payload correctionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Correct(r.Context(), register.CorrectInput{
			RegisterID:    registerID,
			TransactionID: payload.TransactionID,
			Reason:        validators.SanitizeString(payload.Reason, 255),
			RequestedBy:   actor.UserID,
			ApprovedBy:    payload.ApprovedBy,
			ManagerPIN:    payload.ManagerPIN,
			BranchID:      &actor.BranchID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewCorrectionResponse(result))
	}
}

func actorAndRegister(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (middleware.Actor, string, bool) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return middleware.Actor{}, "", false
	}
	registerID, err := validators.ParseStringParam(r, "registerId", maxRegisterIDLen)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return middleware.Actor{}, "", false
	}
	return actor, registerID, true
}
