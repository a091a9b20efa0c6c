package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// Tender is what the customer handed over and what goes back.
type Tender struct {
	Method   enums.PaymentMethod
	Tendered decimal.Decimal
	Change   decimal.Decimal
}

// ShortfallDetail is returned to callers when cash does not cover the total.
type ShortfallDetail struct {
	Total     string `json:"total"`
	Tendered  string `json:"tendered"`
	Shortfall string `json:"shortfall"`
}

// ValidateTender checks the payment against the sale total. Cash must cover
// the total and yields change; other methods are charged the exact total.
func ValidateTender(method enums.PaymentMethod, total decimal.Decimal, tendered *decimal.Decimal) (Tender, error) {
	if !method.IsValid() {
		return Tender{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !method.IsCash() {
		return Tender{Method: method, Tendered: total, Change: decimal.Zero}, nil
	}
	if tendered == nil {
		return Tender{}, pkgerrors.New(pkgerrors.CodeValidation, "amount tendered is required for cash payments")
	}
	if tendered.IsNegative() {
		return Tender{}, pkgerrors.New(pkgerrors.CodeValidation, "amount tendered must not be negative")
	}
	given := tendered.Round(2)
	if given.LessThan(total) {
		return Tender{}, pkgerrors.New(pkgerrors.CodeValidation, "amount tendered does not cover the total").WithDetails(ShortfallDetail{
			Total:     total.StringFixed(2),
			Tendered:  given.StringFixed(2),
			Shortfall: total.Sub(given).StringFixed(2),
		})
	}
	return Tender{Method: method, Tendered: given, Change: given.Sub(total)}, nil
}
