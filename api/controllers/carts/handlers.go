package carts

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/api/controllers/dto"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/api/responses"
	"github.com/angelmondragon/tillpoint-backend/api/validators"
	cartsvc "github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/cartsession"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

const maxCartNameLen = 80

// List returns every cart the cashier holds in their branch, creating the
// default cart on first use.
func List(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		carts, err := sessions.ListCarts(r.Context(), actor.UserID, actor.BranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCartList(carts))
	}
}

func Active(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := sessions.Active(r.Context(), actor.UserID, actor.BranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCartResponse(active))
	}
}

// Create opens a new cart and makes it the active one.
func Create(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := sessions.Create(r.Context(), actor.UserID, actor.BranchID, validators.SanitizeString(payload.Name, maxCartNameLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.NewCartResponse(created))
	}
}

func Activate(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		runSessionOp(w, r, logg, http.StatusOK, sessions.SwitchActive)
	}
}

func Duplicate(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		runSessionOp(w, r, logg, http.StatusCreated, sessions.Duplicate)
	}
}

// Remove deletes a cart and returns the cart that is active afterwards.
func Remove(sessions cartsession.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, errSessionsUnavailable)
			return
		}
		runSessionOp(w, r, logg, http.StatusOK, sessions.Remove)
	}
}

func runSessionOp(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, op func(context.Context, uuid.UUID, uuid.UUID) (*models.Cart, error)) {
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

	result, err := op(r.Context(), actor.UserID, cartID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, dto.NewCartResponse(result))
}

// Get returns one cart priced with the current discount outcome.
func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		return svc.Get(r.Context(), userID, cartID)
	})
}

func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), userID, cartID, payload.ProductID)
	})
}

// UpdateItem sets a line quantity; zero or less removes the line.
func UpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), userID, cartID, itemID, *payload.Quantity)
	})
}

func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), userID, cartID, itemID)
	})
}

func ApplyDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.ApplyDiscount(r.Context(), userID, cartID, payload.DiscountID)
	})
}

func RemoveDiscount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		return svc.RemoveDiscount(r.Context(), userID, cartID)
	})
}

func SetCustomer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		var payload setCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetCustomer(r.Context(), userID, cartID, payload.CustomerID)
	})
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error) {
		return svc.Clear(r.Context(), userID, cartID)
	})
}

func cartHandler(svc cartsvc.Service, logg *logger.Logger, op func(r *http.Request, userID, cartID uuid.UUID) (*cartsvc.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
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

		view, err := op(r, actor.UserID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.NewCartViewResponse(view))
	}
}

var errSessionsUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "cart session manager unavailable")
