package controllers

import (
	"net/http"

	"github.com/angelmondragon/tillpoint-backend/api/controllers/dto"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

// Checkout converts a cart into a sale on the given register.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cartID, err := validators.ParseUUIDParam(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tendered, err := validators.ParseOptionalDecimal("amount_tendered", payload.AmountTendered)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			UserID:         actor.UserID,
			BranchID:       &actor.BranchID,
			CartID:         cartID,
			RegisterID:     payload.RegisterID,
			PaymentMethod:  enums.PaymentMethod(payload.PaymentMethod),
			AmountTendered: tendered,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutRequest struct {
	RegisterID     string  `json:"register_id" validate:"required,max=64"`
	PaymentMethod  string  `json:"payment_method" validate:"required,oneof=cash card mobile other"`
	AmountTendered *string `json:"amount_tendered,omitempty" validate:"omitempty,money"`
}

type checkoutResponse struct {
	Sale            dto.SaleResponse `json:"sale"`
	DiscountStatus  string           `json:"discount_status,omitempty"`
	DiscountDropped bool             `json:"discount_dropped"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	if result == nil {
		return checkoutResponse{Sale: dto.NewSaleResponse(nil)}
	}
	return checkoutResponse{
		Sale:            dto.NewSaleResponse(result.Sale),
		DiscountStatus:  string(result.DiscountStatus),
		DiscountDropped: result.DiscountDropped,
	}
}
