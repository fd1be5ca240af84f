package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/repository"
)

const testJWTSecret = "test-secret-at-least-32-chars-long!!"

// signToken, marketplace auth servisinin ürettiği formatta bir token imzalar.
func signToken(t *testing.T, secret string, claims *models.TokenClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims(userID, issuer string) *models.TokenClaims {
	return &models.TokenClaims{
		UserID:   userID,
		Username: "ayse",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthServiceValidateAccessToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewSQLiteUserRepo(db.Conn), testJWTSecret, "marketplace")

	userID := uuid.New().String()
	token := signToken(t, testJWTSecret, baseClaims(userID, "marketplace"))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ayse", claims.Username)
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(repository.NewSQLiteUserRepo(db.Conn), testJWTSecret, "marketplace")

	userID := uuid.New().String()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", signToken(t, "some-other-secret-entirely-here!", baseClaims(userID, "marketplace"))},
		{"wrong issuer", signToken(t, testJWTSecret, baseClaims(userID, "evil-issuer"))},
		{"missing user_id", signToken(t, testJWTSecret, baseClaims("", "marketplace"))},
		{"expired", signToken(t, testJWTSecret, &models.TokenClaims{
			UserID: userID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "marketplace",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.True(t, errors.Is(err, pkg.ErrUnauthorized))
		})
	}
}

func TestAuthServiceIssuerCheckOptional(t *testing.T) {
	db := newTestDB(t)
	// Issuer yapılandırılmamışsa herhangi bir issuer kabul edilir
	svc := NewAuthService(repository.NewSQLiteUserRepo(db.Conn), testJWTSecret, "")

	token := signToken(t, testJWTSecret, baseClaims(uuid.New().String(), "whoever"))
	_, err := svc.ValidateAccessToken(token)
	assert.NoError(t, err)
}

func TestAuthServiceSyncUser(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	svc := NewAuthService(userRepo, testJWTSecret, "")
	ctx := context.Background()

	claims := baseClaims(uuid.New().String(), "")
	claims.DisplayName = "Ayşe Yılmaz"
	claims.Email = "ayse@example.com"

	user, err := svc.SyncUser(ctx, claims)
	require.NoError(t, err)

	stored, err := userRepo.GetByID(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	require.NotNil(t, stored.DisplayName)
	assert.Equal(t, "Ayşe Yılmaz", *stored.DisplayName)

	// Marketplace'te profil değişti — bir sonraki istekte upsert yansıtır
	claims.DisplayName = "Ayşe Y."
	_, err = svc.SyncUser(ctx, claims)
	require.NoError(t, err)

	stored, err = userRepo.GetByID(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe Y.", *stored.DisplayName)
}
