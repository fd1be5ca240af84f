package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
)

// newTestDB, geçici dizinde gerçek bir SQLite veritabanı açar ve
// migration'ları uygular. modernc.org/sqlite pure-Go olduğu için
// testlerde CGO veya harici binary gerekmez.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// seedUser, FK constraint'leri için bir kullanıcı kaydı açar.
func seedUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
	}
	require.NoError(t, NewSQLiteUserRepo(db.Conn).UpsertFromClaims(context.Background(), user))
	return user
}

// seedThread, iki kullanıcı arasında bir thread açar.
func seedThread(t *testing.T, db *database.DB, clientID, freelancerID string) *models.Thread {
	t.Helper()

	thread := &models.Thread{
		ID:           uuid.New().String(),
		BountyID:     uuid.New().String(),
		ClientID:     clientID,
		FreelancerID: freelancerID,
	}
	require.NoError(t, NewSQLiteThreadRepo(db.Conn).Create(context.Background(), db.Conn, thread))
	return thread
}
