package controllers

import (
	"net/http"

	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type settingsResponse struct {
	Currency       string `json:"currency"`
	NearestValue   string `json:"nearest_value"`
	TaxBase        string `json:"tax_base"`
	HonorTaxExempt bool   `json:"honor_tax_exempt"`
}

func newSettingsResponse(s settings.Settings) settingsResponse {
	return settingsResponse{
		Currency:       s.Currency,
		NearestValue:   s.NearestValue.String(),
		TaxBase:        string(s.TaxBase),
		HonorTaxExempt: s.HonorTaxExempt,
	}
}

// updateSettingsRequest is a patch; omitted fields keep their value.
type updateSettingsRequest struct {
	Currency       *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	NearestValue   *string `json:"nearest_value,omitempty" validate:"omitempty,decimal"`
	TaxBase        *string `json:"tax_base,omitempty"`
	HonorTaxExempt *bool   `json:"honor_tax_exempt,omitempty"`
}

func SettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		current, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSettingsResponse(current))
	}
}

func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}

		var payload updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		nearest, err := validators.ParseOptionalDecimal("nearest_value", payload.NearestValue)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), settings.UpdateInput{
			Currency:       payload.Currency,
			NearestValue:   nearest,
			TaxBase:        payload.TaxBase,
			HonorTaxExempt: payload.HonorTaxExempt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSettingsResponse(updated))
	}
}
