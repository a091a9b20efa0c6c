package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/tillpoint-backend/internal/checkout"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/sales"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	"github.com/angelmondragon/tillpoint-backend/pkg/pagination"
)

func withActor(req *http.Request, userID, branchID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithBranchID(ctx, branchID.String())
	return req.WithContext(ctx)
}

type stubCheckout struct {
	got    checkoutsvc.Input
	result *checkoutsvc.Result
	err    error
}

func (s *stubCheckout) Checkout(_ context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.got = input
	return s.result, s.err
}

func checkoutRouter(svc checkoutsvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/carts/{cartId}/checkout", Checkout(svc, nil))
	return r
}

func TestCheckoutPassesActorAndTender(t *testing.T) {
	userID, branchID, cartID := uuid.New(), uuid.New(), uuid.New()
	svc := &stubCheckout{result: &checkoutsvc.Result{
		Sale: &models.Sale{
			ID:             uuid.New(),
			CartID:         cartID,
			RegisterID:     "front-1",
			PaymentMethod:  enums.PaymentMethodCash,
			TotalAmount:    decimal.RequireFromString("18.4"),
			AmountTendered: decimal.NewFromInt(20),
			ChangeDue:      decimal.RequireFromString("1.6"),
			Currency:       "USD",
		},
		DiscountStatus:  pricing.DiscountExpired,
		DiscountDropped: true,
	}}

	body := `{"register_id":"front-1","payment_method":"cash","amount_tendered":"20"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/carts/"+cartID.String()+"/checkout", strings.NewReader(body)), userID, branchID)
	rec := httptest.NewRecorder()
	checkoutRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, userID, svc.got.UserID)
	require.NotNil(t, svc.got.BranchID)
	assert.Equal(t, branchID, *svc.got.BranchID)
	assert.Equal(t, cartID, svc.got.CartID)
	assert.Equal(t, "front-1", svc.got.RegisterID)
	require.NotNil(t, svc.got.AmountTendered)
	assert.True(t, svc.got.AmountTendered.Equal(decimal.NewFromInt(20)))

	out := rec.Body.String()
	assert.Contains(t, out, `"total_amount":"18.40"`)
	assert.Contains(t, out, `"change_due":"1.60"`)
	assert.Contains(t, out, `"discount_status":"expired"`)
	assert.Contains(t, out, `"discount_dropped":true`)
}

func TestCheckoutValidatesBody(t *testing.T) {
	cases := map[string]string{
		"missing register":   `{"payment_method":"cash"}`,
		"unknown method":     `{"register_id":"r1","payment_method":"cheque"}`,
		"malformed tendered": `{"register_id":"r1","payment_method":"cash","amount_tendered":"twenty"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCheckout{}
			req := withActor(httptest.NewRequest(http.MethodPost, "/carts/"+uuid.NewString()+"/checkout", strings.NewReader(body)), uuid.New(), uuid.New())
			rec := httptest.NewRecorder()
			checkoutRouter(svc).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.got.RegisterID)
		})
	}
}

func TestCheckoutRequiresActor(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/carts/"+uuid.NewString()+"/checkout", strings.NewReader(`{"register_id":"r1","payment_method":"card"}`))
	checkoutRouter(&stubCheckout{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubDiscounts struct {
	created    discounts.CreateInput
	list       []models.Discount
	activeOnly bool
	err        error
}

func (s *stubDiscounts) Create(_ context.Context, input discounts.CreateInput) (*models.Discount, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Discount{ID: uuid.New(), Name: input.Name, Type: enums.DiscountType(input.Type), Value: input.Value, IsActive: true}, nil
}

func (s *stubDiscounts) Get(_ context.Context, id uuid.UUID) (*models.Discount, error) {
	return &models.Discount{ID: id}, s.err
}

func (s *stubDiscounts) List(_ context.Context, activeOnly bool) ([]models.Discount, error) {
	s.activeOnly = activeOnly
	return s.list, s.err
}

func (s *stubDiscounts) Deactivate(context.Context, uuid.UUID) error { return s.err }

func TestDiscountCreateParsesMoney(t *testing.T) {
	svc := &stubDiscounts{}
	body := `{"name":"Summer","type":"percentage","value":"15","min_purchase_amount":"50.00","scope":"order"}`
	rec := httptest.NewRecorder()
	DiscountCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discounts", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, svc.created.Value.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, svc.created.MinPurchaseAmount)
	assert.True(t, svc.created.MinPurchaseAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "order", svc.created.Scope)
}

func TestDiscountCreateRejectsBadValue(t *testing.T) {
	svc := &stubDiscounts{}
	rec := httptest.NewRecorder()
	DiscountCreate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discounts", strings.NewReader(`{"name":"x","type":"fixed","value":"ten"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscountListActiveFlag(t *testing.T) {
	svc := &stubDiscounts{}

	rec := httptest.NewRecorder()
	DiscountList(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discounts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.activeOnly)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	DiscountList(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discounts?active=false", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.activeOnly)

	rec = httptest.NewRecorder()
	DiscountList(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discounts?active=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubSettings struct {
	current settings.Settings
	update  settings.UpdateInput
	err     error
}

func (s *stubSettings) Get(context.Context) (settings.Settings, error) { return s.current, s.err }

func (s *stubSettings) Update(_ context.Context, input settings.UpdateInput) (settings.Settings, error) {
	s.update = input
	if input.NearestValue != nil {
		s.current.NearestValue = *input.NearestValue
	}
	return s.current, s.err
}

func TestSettingsRoundTrip(t *testing.T) {
	svc := &stubSettings{current: settings.Settings{
		Currency:     "USD",
		NearestValue: decimal.RequireFromString("0.01"),
		TaxBase:      enums.TaxBasePreDiscount,
	}}

	rec := httptest.NewRecorder()
	SettingsGet(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"currency":"USD","nearest_value":"0.01","tax_base":"pre_discount","honor_tax_exempt":false}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	SettingsUpdate(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/settings", strings.NewReader(`{"nearest_value":"0.05"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.update.NearestValue)
	assert.Nil(t, svc.update.Currency)
	assert.Contains(t, rec.Body.String(), `"nearest_value":"0.05"`)
}

func TestSettingsUpdateRejectsCurrencyLength(t *testing.T) {
	rec := httptest.NewRecorder()
	SettingsUpdate(&stubSettings{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/settings", strings.NewReader(`{"currency":"DOLLARS"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubSales struct {
	params     pagination.Params
	registerID string
	err        error
}

func (s *stubSales) Get(_ context.Context, id uuid.UUID) (*models.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Sale{ID: id, Currency: "USD"}, nil
}

func (s *stubSales) ListByRegister(_ context.Context, registerID string, params pagination.Params) ([]models.Sale, string, error) {
	s.registerID, s.params = registerID, params
	return []models.Sale{{ID: uuid.New()}}, "next-page", s.err
}

func TestSaleGetNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/sales/{saleId}", SaleGet(&stubSales{err: sales.ErrSaleNotFound}, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterSalesPaginates(t *testing.T) {
	svc := &stubSales{}
	r := chi.NewRouter()
	r.Get("/registers/{registerId}/sales", RegisterSales(svc, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registers/front-1/sales?limit=10&cursor=abc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "front-1", svc.registerID)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.params)
	assert.Contains(t, rec.Body.String(), `"next_cursor":"next-page"`)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	healthy := pingerFunc(func(context.Context) error { return nil })
	failing := pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": healthy, "redis": healthy}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Tillpoint-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": healthy, "redis": failing}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}
