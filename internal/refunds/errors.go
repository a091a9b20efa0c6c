package refunds

import pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"

var (
	ErrRefundNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
	ErrNotPending       = pkgerrors.New(pkgerrors.CodeStateConflict, "refund is not pending")
	ErrNoLines          = pkgerrors.New(pkgerrors.CodeValidation, "refund needs at least one line")
	ErrUnknownSaleItem  = pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to the sale")
	ErrQuantityExceeded = pkgerrors.New(pkgerrors.CodeValidation, "refund quantity exceeds what remains refundable")
)
