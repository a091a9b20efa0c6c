package enums

import "fmt"

// PaymentMethod describes how a sale or refund was tendered.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodMobile PaymentMethod = "mobile"
	PaymentMethodOther  PaymentMethod = "other"
)

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile, PaymentMethodOther:
		return true
	}
	return false
}

// IsCash reports whether the tender passes through the drawer, so tendered
// amount and change apply.
func (p PaymentMethod) IsCash() bool {
	return p == PaymentMethodCash
}

// ParsePaymentMethod accepts the lower-case wire value.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	if m := PaymentMethod(value); m.IsValid() {
		return m, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
