package refunds

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/api/controllers/dto"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	refundsvc "github.com/angelmondragon/tillpoint-backend/internal/refunds"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable")

type refundLineRequest struct {
	SaleItemID uuid.UUID `json:"sale_item_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,gt=0"`
}

type requestRefundRequest struct {
	SaleID        uuid.UUID           `json:"sale_id" validate:"required"`
	RegisterID    string              `json:"register_id" validate:"max=64"`
	Lines         []refundLineRequest `json:"lines" validate:"required,min=1,dive"`
	Reason        string              `json:"reason" validate:"required,max=255"`
	PaymentMethod string              `json:"payment_method" validate:"omitempty,oneof=cash card mobile other"`
}

type decisionRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Request opens a pending refund against a sale. Register and payment method
// default to the sale's when omitted.
func Request(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload requestRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]refundsvc.LineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, refundsvc.LineInput{SaleItemID: line.SaleItemID, Quantity: line.Quantity})
		}

		refund, err := svc.Request(r.Context(), refundsvc.RequestInput{
			SaleID:        payload.SaleID,
			BranchID:      &actor.BranchID,
			RegisterID:    validators.SanitizeString(payload.RegisterID, 64),
			CashierID:     actor.UserID,
			Lines:         lines,
			Reason:        validators.SanitizeString(payload.Reason, 255),
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewRefundResponse(refund))
	}
}

// Complete pays out a pending refund through the register ledger.
func Complete(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(svc, logg, func(r *http.Request, input refundsvc.DecisionInput) (*models.Refund, error) {
		return svc.Complete(r.Context(), input)
	})
}

func Reject(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(svc, logg, func(r *http.Request, input refundsvc.DecisionInput) (*models.Refund, error) {
		return svc.Reject(r.Context(), input)
	})
}

func decisionHandler(svc refundsvc.Service, logg *logger.Logger, decide func(*http.Request, refundsvc.DecisionInput) (*models.Refund, error)) http.HandlerFunc {
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
		refundID, err := validators.ParseUUIDParam(r, "refundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		refund, err := decide(r, refundsvc.DecisionInput{
			RefundID: refundID,
			ActorID:  actor.UserID,
			BranchID: &actor.BranchID,
			Reason:   validators.SanitizeString(payload.Reason, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRefundResponse(refund))
	}
}

func Get(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		refundID, err := validators.ParseUUIDParam(r, "refundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Get(r.Context(), refundID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewRefundResponse(refund))
	}
}

// ListBySale returns the refunds raised against a sale. An optional ?status=
// narrows the list to one refund status.
func ListBySale(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		saleID, err := validators.ParseUUIDParam(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status enums.RefundStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err = enums.ParseRefundStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund status"))
				return
			}
		}

		list, err := svc.ListBySale(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if status != "" {
			filtered := make([]models.Refund, 0, len(list))
			for _, refund := range list {
				if refund.Status == status {
					filtered = append(filtered, refund)
				}
			}
			list = filtered
		}
		responses.WriteSuccess(w, dto.NewRefundList(list))
	}
}
