package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "tillpoint",
	ExpirationMinutes: 30,
}

func TestMintAndParseAccessToken(t *testing.T) {
	userID := uuid.New()
	branchID := uuid.New()

	token, err := MintAccessToken(testJWT, time.Now().UTC(), AccessTokenPayload{
		UserID:   userID,
		BranchID: branchID,
		Role:     enums.StaffRoleCashier,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, branchID, claims.BranchID)
	assert.Equal(t, enums.StaffRoleCashier, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID:   uuid.New(),
		BranchID: uuid.New(),
		Role:     enums.StaffRoleManager,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{
		UserID:   uuid.New(),
		BranchID: uuid.New(),
		Role:     enums.StaffRoleAdmin,
	})
	require.NoError(t, err)

	other := testJWT
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)

	other = testJWT
	other.Secret = "different"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestMintAccessTokenValidatesPayload(t *testing.T) {
	_, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{UserID: uuid.New(), BranchID: uuid.New(), Role: "owner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid staff role "owner"`)

	_, err = MintAccessToken(testJWT, time.Now(), AccessTokenPayload{Role: enums.StaffRoleCashier})
	assert.Error(t, err)
}
