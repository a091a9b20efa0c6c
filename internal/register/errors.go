package register

import pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"

var (
	ErrRegisterNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "register not found")
	ErrRegisterExists      = pkgerrors.New(pkgerrors.CodeConflict, "register already exists")
	ErrAlreadyOpen         = pkgerrors.New(pkgerrors.CodeStateConflict, "register is already open")
	ErrNotOpen             = pkgerrors.New(pkgerrors.CodeStateConflict, "register is not open")
	ErrMissingBalance      = pkgerrors.New(pkgerrors.CodeValidation, "closing balance is required")
	ErrInvalidAmount       = pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	ErrNegativeBalance     = pkgerrors.New(pkgerrors.CodeValidation, "balance must not be negative")
	ErrTransactionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "register transaction not found")
	ErrAlreadyCorrected    = pkgerrors.New(pkgerrors.CodeConflict, "transaction already corrected")
	ErrNotCorrectable      = pkgerrors.New(pkgerrors.CodeStateConflict, "transaction cannot be corrected")
	ErrOutsideSession      = pkgerrors.New(pkgerrors.CodeStateConflict, "transaction belongs to a closed session")
	ErrPINNotConfigured    = pkgerrors.New(pkgerrors.CodeForbidden, "manager pin is not configured")
	ErrInvalidPIN          = pkgerrors.New(pkgerrors.CodeForbidden, "manager pin rejected")
)
