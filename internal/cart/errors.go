package cart

import pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"

var (
	ErrEmptyCart       = pkgerrors.New(pkgerrors.CodeStateConflict, "cart has no items")
	ErrCartNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	ErrItemNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrDiscountMissing = pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
	ErrCustomerMissing = pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
)
