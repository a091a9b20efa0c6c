package registers

import "github.com/google/uuid"

type createRegisterRequest struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=80"`
}

type openRegisterRequest struct {
	OpeningBalance string `json:"opening_balance" validate:"required,money"`
}

// closeRegisterRequest leaves ClosingBalance optional so the service can
// report the missing count as its own error.
type closeRegisterRequest struct {
	ClosingBalance *string `json:"closing_balance" validate:"omitempty,money"`
}

type recordTransactionRequest struct {
	Type          string `json:"type" validate:"required,max=16"`
	Amount        string `json:"amount" validate:"required,money"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,max=16"`
	Description   string `json:"description" validate:"max=255"`
}

type correctionRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Reason        string    `json:"reason" validate:"required,max=255"`
	ApprovedBy    uuid.UUID `json:"approved_by" validate:"required"`
	ManagerPIN    string    `json:"manager_pin" validate:"required,max=32"`
}
