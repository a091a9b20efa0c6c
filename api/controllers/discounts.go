package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/api/controllers/dto"
	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type createDiscountRequest struct {
	Name              string      `json:"name" validate:"required,max=120"`
	Code              *string     `json:"code,omitempty" validate:"omitempty,max=40"`
	Type              string      `json:"type" validate:"required"`
	Value             string      `json:"value" validate:"required,decimal"`
	BuyQuantity       int         `json:"buy_quantity" validate:"min=0"`
	GetQuantity       int         `json:"get_quantity" validate:"min=0"`
	MinPurchaseAmount *string     `json:"min_purchase_amount,omitempty" validate:"omitempty,money"`
	Scope             string      `json:"scope"`
	ProductIDs        []uuid.UUID `json:"product_ids,omitempty"`
	CategoryIDs       []uuid.UUID `json:"category_ids,omitempty"`
	StartsAt          *time.Time  `json:"starts_at,omitempty"`
	EndsAt            *time.Time  `json:"ends_at,omitempty"`
	UsageLimit        *int        `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
}

// DiscountCreate validates the request shape; the service enforces the
// per-type rules.
func DiscountCreate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload createDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		value, err := validators.ParseDecimal("value", payload.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		minPurchase, err := validators.ParseOptionalDecimal("min_purchase_amount", payload.MinPurchaseAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), discounts.CreateInput{
			Name:              validators.SanitizeString(payload.Name, 120),
			Code:              validators.SanitizeOptional(payload.Code, 40),
			Type:              payload.Type,
			Value:             value,
			BuyQuantity:       payload.BuyQuantity,
			GetQuantity:       payload.GetQuantity,
			MinPurchaseAmount: minPurchase,
			Scope:             payload.Scope,
			ProductIDs:        payload.ProductIDs,
			CategoryIDs:       payload.CategoryIDs,
			StartsAt:          payload.StartsAt,
			EndsAt:            payload.EndsAt,
			UsageLimit:        payload.UsageLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewDiscountResponse(created))
	}
}

// DiscountList returns active discounts unless ?active=false is passed.
func DiscountList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewDiscountList(list))
	}
}

func DiscountGet(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewDiscountResponse(discount))
	}
}

func DiscountDeactivate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "is_active": false})
	}
}
