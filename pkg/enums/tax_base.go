package enums

import "fmt"

// TaxBase selects whether tax is charged before or after discounts.
type TaxBase string

const (
	TaxBasePreDiscount  TaxBase = "pre_discount"
	TaxBasePostDiscount TaxBase = "post_discount"
)

func (t TaxBase) IsValid() bool {
	return t == TaxBasePreDiscount || t == TaxBasePostDiscount
}

func ParseTaxBase(value string) (TaxBase, error) {
	candidate := TaxBase(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid tax base %q", value)
}
