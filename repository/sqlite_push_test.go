package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/models"
)

func newSub(userID, endpoint string, scope []string) *models.PushSubscription {
	return &models.PushSubscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		Endpoint:    endpoint,
		P256dh:      "encrypted-p256dh",
		Auth:        "encrypted-auth",
		ThreadScope: scope,
	}
}

func TestPushRepoUpsertNoDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	repo := NewSQLitePushRepo(db.Conn)

	sub := newSub(user.ID, "https://push.example/ep1", nil)
	require.NoError(t, repo.Upsert(ctx, sub))
	firstID := sub.ID

	// Aynı endpoint tekrar — yeni kayıt açılmaz, anahtarlar güncellenir
	again := newSub(user.ID, "https://push.example/ep1", nil)
	again.P256dh = "rotated-p256dh"
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	subs, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "rotated-p256dh", subs[0].P256dh)
}

func TestPushRepoScopeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	repo := NewSQLitePushRepo(db.Conn)

	threadA := uuid.New().String()
	threadB := uuid.New().String()

	scoped := newSub(user.ID, "https://push.example/scoped", []string{threadA, threadB})
	require.NoError(t, repo.Upsert(ctx, scoped))

	// Kapsamsız abonelik NULL olarak saklanır ve nil olarak geri gelir
	global := newSub(user.ID, "https://push.example/global", nil)
	require.NoError(t, repo.Upsert(ctx, global))

	subs, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	byEndpoint := map[string]models.PushSubscription{}
	for _, s := range subs {
		byEndpoint[s.Endpoint] = s
	}
	assert.Equal(t, []string{threadA, threadB}, byEndpoint["https://push.example/scoped"].ThreadScope)
	assert.Nil(t, byEndpoint["https://push.example/global"].ThreadScope)
}

func TestPushRepoDeleteByEndpoint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	repo := NewSQLitePushRepo(db.Conn)

	require.NoError(t, repo.Upsert(ctx, newSub(user.ID, "https://push.example/ep1", nil)))

	removed, err := repo.DeleteByEndpoint(ctx, user.ID, "https://push.example/ep1")
	require.NoError(t, err)
	assert.True(t, removed)

	// İkinci silme false döner — çağıran 404 verebilir
	removed, err = repo.DeleteByEndpoint(ctx, user.ID, "https://push.example/ep1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPushRepoDeleteAllForUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	other := seedUser(t, db, "mehmet")
	repo := NewSQLitePushRepo(db.Conn)

	require.NoError(t, repo.Upsert(ctx, newSub(user.ID, "https://push.example/ep1", nil)))
	require.NoError(t, repo.Upsert(ctx, newSub(user.ID, "https://push.example/ep2", nil)))
	require.NoError(t, repo.Upsert(ctx, newSub(other.ID, "https://push.example/ep3", nil)))

	count, err := repo.DeleteAllForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Diğer kullanıcının aboneliği dokunulmamış kalmalı
	subs, err := repo.ListForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestPushRepoTouchByIDRefreshesUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	repo := NewSQLitePushRepo(db.Conn)

	sub := newSub(user.ID, "https://push.example/ep1", nil)
	require.NoError(t, repo.Upsert(ctx, sub))

	// Kaydı bayatlat — touch olmadan retention süpürmesine takılırdı
	_, err := db.Conn.ExecContext(ctx,
		"UPDATE push_subscriptions SET updated_at = datetime('now', '-60 days') WHERE id = ?", sub.ID)
	require.NoError(t, err)

	subs, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	stale := subs[0].UpdatedAt

	require.NoError(t, repo.TouchByID(ctx, sub.ID))

	subs, err = repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].UpdatedAt.After(stale))

	// Tazelenen kayıt 30 günlük eşiğin gerisinde kalmaz
	count, err := repo.DeleteOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPushRepoTouchByIDMissingIsNoop(t *testing.T) {
	db := newTestDB(t)

	repo := NewSQLitePushRepo(db.Conn)
	assert.NoError(t, repo.TouchByID(context.Background(), uuid.New().String()))
}

func TestPushRepoDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "ayse")
	repo := NewSQLitePushRepo(db.Conn)

	require.NoError(t, repo.Upsert(ctx, newSub(user.ID, "https://push.example/fresh", nil)))

	// Eşik geçmişte → taze kayıt silinmez
	count, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Eşik gelecekte → kayıt bayat sayılır ve silinir
	count, err = repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	subs, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
