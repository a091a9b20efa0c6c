package cartsession

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/discounts"
	"github.com/angelmondragon/tillpoint-backend/internal/settings"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

type staticSettings struct{}

func (staticSettings) Get(context.Context) (settings.Settings, error) {
	return settings.Settings{Currency: "USD", TaxBase: enums.TaxBasePreDiscount}, nil
}

type env struct {
	mgr       Manager
	carts     cart.Repository
	discounts discounts.Repository
	userID    uuid.UUID
	branchID  uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	carts := cart.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	pricer := cart.NewPricer(discountRepo, customers.NewRepository(conn), func() time.Time {
		return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	})
	mgr, err := NewManager(carts, pricer, staticSettings{}, client, nil)
	require.NoError(t, err)
	return &env{mgr: mgr, carts: carts, discounts: discountRepo, userID: uuid.New(), branchID: uuid.New()}
}

func (e *env) assertOneActive(t *testing.T) *models.Cart {
	t.Helper()
	carts, err := e.carts.ListForUserBranch(context.Background(), e.userID, e.branchID)
	require.NoError(t, err)
	var active []models.Cart
	for _, c := range carts {
		if c.IsActive {
			active = append(active, c)
		}
	}
	require.Len(t, active, 1, "carts: %+v", carts)
	return &active[0]
}

func TestListCartsCreatesDefault(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	carts, err := e.mgr.ListCarts(ctx, e.userID, e.branchID)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, DefaultCartName, carts[0].Name)
	assert.True(t, carts[0].IsActive)

	again, err := e.mgr.ListCarts(ctx, e.userID, e.branchID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, carts[0].ID, again[0].ID)
}

func TestListCartsPromotesNewestWhenNoneActive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.mgr.Create(ctx, e.userID, e.branchID, "Morning")
	require.NoError(t, err)
	second, err := e.mgr.Create(ctx, e.userID, e.branchID, "Evening")
	require.NoError(t, err)
	require.NoError(t, e.carts.DeactivateAll(ctx, e.userID, e.branchID))

	_, err = e.mgr.ListCarts(ctx, e.userID, e.branchID)
	require.NoError(t, err)
	active := e.assertOneActive(t)
	assert.NotEqual(t, first.ID, active.ID)
	assert.Equal(t, second.ID, active.ID)
}

func TestSwitchActive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.mgr.Create(ctx, e.userID, e.branchID, "Table 1")
	require.NoError(t, err)
	_, err = e.mgr.Create(ctx, e.userID, e.branchID, "Table 2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, e.assertOneActive(t).ID)

	switched, err := e.mgr.SwitchActive(ctx, e.userID, first.ID)
	require.NoError(t, err)
	assert.True(t, switched.IsActive)
	assert.Equal(t, first.ID, e.assertOneActive(t).ID)

	_, err = e.mgr.SwitchActive(ctx, uuid.New(), first.ID)
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestDuplicateCopiesLinesAndDiscount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	discount := &models.Discount{
		Name:       "Ten percent",
		Type:       enums.DiscountTypePercentage,
		Value:      decimal.RequireFromString("10"),
		Scope:      enums.DiscountScopeEntireOrder,
		UsageCount: 2,
		IsActive:   true,
	}
	require.NoError(t, e.discounts.Create(ctx, discount))

	source, err := e.mgr.Create(ctx, e.userID, e.branchID, "Walk-in")
	require.NoError(t, err)
	source.DiscountID = &discount.ID
	source.Items = []models.CartItem{{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Name:      "Tea",
		UnitPrice: decimal.RequireFromString("5.00"),
		Quantity:  2,
		TaxRate:   decimal.Zero,
	}}
	require.NoError(t, e.carts.ReplaceItems(ctx, source.ID, source.Items))
	require.NoError(t, e.carts.Save(ctx, source))

	dup, err := e.mgr.Duplicate(ctx, e.userID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk-in (Copy)", dup.Name)
	require.Len(t, dup.Items, 1)
	assert.NotEqual(t, source.Items[0].ID, dup.Items[0].ID)
	assert.Equal(t, 2, dup.Items[0].Quantity)
	require.NotNil(t, dup.DiscountID)
	assert.True(t, decimal.RequireFromString("9.00").Equal(dup.TotalAmount))
	assert.Equal(t, dup.ID, e.assertOneActive(t).ID)

	stored, err := e.discounts.FindByID(ctx, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsageCount)
}

func TestRemoveActivePromotesMostRecent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	older, err := e.mgr.Create(ctx, e.userID, e.branchID, "Older")
	require.NoError(t, err)
	newer, err := e.mgr.Create(ctx, e.userID, e.branchID, "Newer")
	require.NoError(t, err)
	current, err := e.mgr.Create(ctx, e.userID, e.branchID, "Current")
	require.NoError(t, err)

	active, err := e.mgr.Remove(ctx, e.userID, current.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID)
	assert.Equal(t, newer.ID, e.assertOneActive(t).ID)

	active, err = e.mgr.Remove(ctx, e.userID, older.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID)
}

func TestRemoveLastCartCreatesDefault(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	carts, err := e.mgr.ListCarts(ctx, e.userID, e.branchID)
	require.NoError(t, err)

	active, err := e.mgr.Remove(ctx, e.userID, carts[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, carts[0].ID, active.ID)
	assert.Equal(t, DefaultCartName, active.Name)

	remaining, err := e.carts.ListForUserBranch(ctx, e.userID, e.branchID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].IsActive)
}

func TestCreateRejectsLongName(t *testing.T) {
	e := newEnv(t)
	long := make([]byte, maxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := e.mgr.Create(context.Background(), e.userID, e.branchID, string(long))
	assert.ErrorIs(t, err, ErrInvalidName)
}
