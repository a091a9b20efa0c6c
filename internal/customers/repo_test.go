package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t).DB())

	customer := &models.Customer{Name: "Parish school", TaxExempt: true}
	require.NoError(t, repo.Create(ctx, customer))
	require.NotEqual(t, uuid.Nil, customer.ID)

	got, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.TaxExempt)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
