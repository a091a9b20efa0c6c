package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestValidateTenderCashComputesChange(t *testing.T) {
	tender, err := ValidateTender(enums.PaymentMethodCash, decimal.RequireFromString("27.10"), amount("30"))
	require.NoError(t, err)
	assert.Equal(t, "30.00", tender.Tendered.StringFixed(2))
	assert.Equal(t, "2.90", tender.Change.StringFixed(2))
}

func TestValidateTenderCashShortfall(t *testing.T) {
	_, err := ValidateTender(enums.PaymentMethodCash, decimal.RequireFromString("27.10"), amount("20"))
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	detail, ok := typed.Details().(ShortfallDetail)
	require.True(t, ok)
	assert.Equal(t, "7.10", detail.Shortfall)
}

func TestValidateTenderCashRequiresAmount(t *testing.T) {
	_, err := ValidateTender(enums.PaymentMethodCash, decimal.NewFromInt(5), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateTenderCardChargesExactTotal(t *testing.T) {
	tender, err := ValidateTender(enums.PaymentMethodCard, decimal.RequireFromString("12.34"), amount("50"))
	require.NoError(t, err)
	assert.Equal(t, "12.34", tender.Tendered.StringFixed(2))
	assert.True(t, tender.Change.IsZero())
}

func TestValidateTenderRejectsUnknownMethod(t *testing.T) {
	_, err := ValidateTender(enums.PaymentMethod("barter"), decimal.NewFromInt(1), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
