package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type tenderBody struct {
	Amount string      `json:"amount" validate:"required,money"`
	Rate   string      `json:"rate" validate:"omitempty,decimal"`
	Lines  []tenderRow `json:"lines" validate:"omitempty,dive"`
}

type tenderRow struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func decode(t *testing.T, body string) (tenderBody, error) {
	t.Helper()
	var dest tenderBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dest, DecodeJSONBody(req, &dest)
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyMoney(t *testing.T) {
	got, err := decode(t, `{"amount":"12.50","rate":"0.0825"}`)
	require.NoError(t, err)
	assert.Equal(t, "12.50", got.Amount)

	for _, amount := range []string{"-1.00", "1.005", "abc"} {
		_, err := decode(t, `{"amount":"`+amount+`"}`)
		require.Error(t, err, amount)
		assert.Contains(t, detailsOf(t, err), "amount", amount)
	}
}

func TestDecodeJSONBodyReportsNestedPath(t *testing.T) {
	_, err := decode(t, `{"amount":"1","lines":[{"quantity":1},{"quantity":0}]}`)
	require.Error(t, err)
	assert.Equal(t, "is required", detailsOf(t, err)["lines[1].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"amount":"1","tip":"2"}`,
		"trailing":      `{"amount":"1"}{"amount":"2"}`,
		"oversize":      `{"amount":"1","rate":"` + strings.Repeat("9", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		_, err := decode(t, body)
		require.Error(t, err, name)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}

	_, err := decode(t, ``)
	assert.Equal(t, "request body required", pkgerrors.As(err).Message())
}
