package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
)

func TestMessageRepoCreateAssignsSequentialSeq(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	client := seedUser(t, db, "ayse")
	freelancer := seedUser(t, db, "mehmet")
	thread := seedThread(t, db, client.ID, freelancer.ID)

	repo := NewSQLiteMessageRepo(db.Conn)

	// Aynı thread'e art arda mesajlar — seq 1'den başlayıp boşluksuz artmalı
	for i := 1; i <= 5; i++ {
		msg := &models.Message{
			ID:       uuid.New().String(),
			ThreadID: thread.ID,
			SenderID: client.ID,
			Content:  fmt.Sprintf("mesaj %d", i),
			Kind:     models.MessageKindText,
		}
		require.NoError(t, repo.Create(ctx, db.Conn, msg))
		assert.Equal(t, int64(i), msg.Seq)
		assert.False(t, msg.CreatedAt.IsZero())
	}
}

func TestMessageRepoSeqIsPerThread(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	client := seedUser(t, db, "ayse")
	freelancer := seedUser(t, db, "mehmet")
	threadA := seedThread(t, db, client.ID, freelancer.ID)
	threadB := seedThread(t, db, client.ID, freelancer.ID)

	repo := NewSQLiteMessageRepo(db.Conn)

	msgA := &models.Message{ID: uuid.New().String(), ThreadID: threadA.ID, SenderID: client.ID, Content: "a", Kind: models.MessageKindText}
	require.NoError(t, repo.Create(ctx, db.Conn, msgA))

	// Başka thread'deki trafik bu thread'in seq'ini etkilememeli
	msgB := &models.Message{ID: uuid.New().String(), ThreadID: threadB.ID, SenderID: client.ID, Content: "b", Kind: models.MessageKindText}
	require.NoError(t, repo.Create(ctx, db.Conn, msgB))

	assert.Equal(t, int64(1), msgA.Seq)
	assert.Equal(t, int64(1), msgB.Seq)
}

func TestMessageRepoListAfterSeq(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	client := seedUser(t, db, "ayse")
	freelancer := seedUser(t, db, "mehmet")
	thread := seedThread(t, db, client.ID, freelancer.ID)

	repo := NewSQLiteMessageRepo(db.Conn)

	for i := 1; i <= 4; i++ {
		msg := &models.Message{
			ID:       uuid.New().String(),
			ThreadID: thread.ID,
			SenderID: freelancer.ID,
			Content:  fmt.Sprintf("mesaj %d", i),
			Kind:     models.MessageKindText,
		}
		require.NoError(t, repo.Create(ctx, db.Conn, msg))
	}

	// after_seq=2 → sadece 3 ve 4 gelmeli, artan sırada
	msgs, err := repo.List(ctx, thread.ID, 2, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(3), msgs[0].Seq)
	assert.Equal(t, int64(4), msgs[1].Seq)

	// Gönderen profili JOIN ile dolu gelmeli
	require.NotNil(t, msgs[0].Sender)
	assert.Equal(t, "mehmet", msgs[0].Sender.Username)
}

func TestMessageRepoListEmptyThread(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	client := seedUser(t, db, "ayse")
	freelancer := seedUser(t, db, "mehmet")
	thread := seedThread(t, db, client.ID, freelancer.ID)

	msgs, err := NewSQLiteMessageRepo(db.Conn).List(ctx, thread.ID, 0, 50)
	require.NoError(t, err)
	assert.NotNil(t, msgs) // nil değil boş slice — JSON'da [] olarak serialize olur
	assert.Empty(t, msgs)
}

func TestMessageRepoMarkReadIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	client := seedUser(t, db, "ayse")
	freelancer := seedUser(t, db, "mehmet")
	thread := seedThread(t, db, client.ID, freelancer.ID)

	repo := NewSQLiteMessageRepo(db.Conn)

	msg := &models.Message{ID: uuid.New().String(), ThreadID: thread.ID, SenderID: client.ID, Content: "selam", Kind: models.MessageKindText}
	require.NoError(t, repo.Create(ctx, db.Conn, msg))

	first := time.Now().UTC()
	readAt1, updated1, err := repo.MarkRead(ctx, msg.ID, first)
	require.NoError(t, err)
	assert.True(t, updated1)

	// İkinci işaretleme yazmaz — ilk damga aynen geri döner
	readAt2, updated2, err := repo.MarkRead(ctx, msg.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, updated2)
	assert.True(t, readAt1.Equal(readAt2))

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(readAt1))
}

func TestMessageRepoMarkReadNotFound(t *testing.T) {
	db := newTestDB(t)

	_, _, err := NewSQLiteMessageRepo(db.Conn).MarkRead(context.Background(), uuid.New().String(), time.Now())
	assert.True(t, errors.Is(err, pkg.ErrNotFound))
}

func TestMessageRepoGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSQLiteMessageRepo(db.Conn).GetByID(context.Background(), uuid.New().String())
	assert.True(t, errors.Is(err, pkg.ErrNotFound))
}
