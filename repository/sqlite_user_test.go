package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
)

func TestUserRepoUpsertFromClaims(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	repo := NewSQLiteUserRepo(db.Conn)

	user := &models.User{ID: uuid.New().String(), Username: "ayse"}
	require.NoError(t, repo.UpsertFromClaims(ctx, user))

	// Aynı ID tekrar — profil alanları token'daki güncel değerlerle yenilenir
	displayName := "Ayşe Yılmaz"
	email := "ayse@example.com"
	updated := &models.User{ID: user.ID, Username: "ayse", DisplayName: &displayName, Email: &email}
	require.NoError(t, repo.UpsertFromClaims(ctx, updated))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ayse", got.Username)
	require.NotNil(t, got.DisplayName)
	assert.Equal(t, "Ayşe Yılmaz", *got.DisplayName)
}

func TestUserRepoGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSQLiteUserRepo(db.Conn).GetByID(context.Background(), uuid.New().String())
	assert.True(t, errors.Is(err, pkg.ErrNotFound))
}
