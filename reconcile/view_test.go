package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/ws"
)

const (
	testThreadID = "thread-1"
	testUserID   = "user-me"
	otherUserID  = "user-other"
)

func confirmedMsg(id string, seq int64, senderID, content string) models.Message {
	return models.Message{
		ID:        id,
		ThreadID:  testThreadID,
		SenderID:  senderID,
		Content:   content,
		Kind:      models.MessageKindText,
		Seq:       seq,
		CreatedAt: time.Now(),
	}
}

func insertedEvent(msg models.Message) ws.Event {
	return ws.Event{Op: ws.OpMessageInserted, Data: msg}
}

func TestThreadViewSnapshotThenRealtime(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	v.ApplySnapshot([]models.Message{
		confirmedMsg("m1", 1, otherUserID, "merhaba"),
		confirmedMsg("m2", 2, testUserID, "selam"),
	})
	assert.Equal(t, int64(2), v.LastSeq())

	require.NoError(t, v.Apply(insertedEvent(confirmedMsg("m3", 3, otherUserID, "nasılsın"))))

	msgs := v.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	assert.Equal(t, int64(3), v.LastSeq())
}

func TestThreadViewDuplicateEventIgnored(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	msg := confirmedMsg("m1", 1, otherUserID, "merhaba")
	require.NoError(t, v.Apply(insertedEvent(msg)))
	// Aynı event reconnect + diff yarışında iki kez gelebilir
	require.NoError(t, v.Apply(insertedEvent(msg)))

	assert.Len(t, v.Messages(), 1)
}

func TestThreadViewOptimisticEcho(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	clientRef, local := v.ComposeLocal("teklifim hazır", models.MessageKindText)
	assert.Equal(t, 1, v.PendingCount())
	assert.Equal(t, int64(0), local.Seq)

	// Pending mesaj listede onaylanmışların ARKASINDA görünür
	v.ApplySnapshot([]models.Message{confirmedMsg("m1", 1, otherUserID, "merhaba")})
	msgs := v.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, local.ID, msgs[1].ID)

	// Sunucu echo'su client_ref ile gelir — lokal kopya sunucu kopyasıyla değişir
	echo := confirmedMsg("server-id-1", 2, testUserID, "teklifim hazır")
	echo.ClientRef = clientRef
	require.NoError(t, v.Apply(insertedEvent(echo)))

	assert.Equal(t, 0, v.PendingCount())
	msgs = v.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "server-id-1", msgs[1].ID)
	assert.Equal(t, int64(2), msgs[1].Seq)
}

func TestThreadViewSecondDeviceMessageAppended(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	_, local := v.ComposeLocal("bu cihazdan", models.MessageKindText)
	require.Equal(t, 1, v.PendingCount())

	// Aynı kullanıcının BAŞKA cihazından gelen mesaj: gönderen kimliği bizimle
	// aynı ama client_ref yabancı. Gönderen kimliğine bakılmaz — eşleşme ref
	// iledir, mesaj normal şekilde eklenir ve pending dokunulmaz kalır
	peer := confirmedMsg("peer-id-1", 1, testUserID, "diğer cihazdan")
	peer.ClientRef = "ref-of-another-device"
	require.NoError(t, v.Apply(insertedEvent(peer)))

	assert.Equal(t, 1, v.PendingCount())
	msgs := v.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "peer-id-1", msgs[0].ID)
	assert.Equal(t, local.ID, msgs[1].ID)

	// Ref'siz kendi-gönderen mesajı da (ör. snapshot kopyası) aynı şekilde eklenir
	require.NoError(t, v.Apply(insertedEvent(confirmedMsg("peer-id-2", 2, testUserID, "ref'siz"))))
	assert.Equal(t, 1, v.PendingCount())
	assert.Len(t, v.Messages(), 3)
}

func TestThreadViewEchoViaSnapshot(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	// Echo event'i kaçtı ama diff snapshot'ı client_ref'siz sunucu
	// kopyasını getirmedi — ref yalnızca event'te taşınır. Yine de
	// snapshot'ta ref'li kopya gelirse (aynı oturumun diff'i) pending düşer.
	clientRef, _ := v.ComposeLocal("selam", models.MessageKindText)

	echo := confirmedMsg("server-id-1", 1, testUserID, "selam")
	echo.ClientRef = clientRef
	v.ApplySnapshot([]models.Message{echo})

	assert.Equal(t, 0, v.PendingCount())
	assert.Len(t, v.Messages(), 1)
}

func TestThreadViewSeqGapTriggersResync(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	require.NoError(t, v.Apply(insertedEvent(confirmedMsg("m5", 5, otherUserID, "beş"))))
	assert.False(t, v.NeedsResync())

	// 5'ten sonra 7 — 6 kaçtı, diff çekilmeli
	require.NoError(t, v.Apply(insertedEvent(confirmedMsg("m7", 7, otherUserID, "yedi"))))
	assert.True(t, v.NeedsResync())

	// Diff snapshot'ı boşluğu kapatır ve bayrağı temizler
	v.ApplySnapshot([]models.Message{confirmedMsg("m6", 6, otherUserID, "altı")})
	assert.False(t, v.NeedsResync())

	msgs := v.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []int64{5, 6, 7}, []int64{msgs[0].Seq, msgs[1].Seq, msgs[2].Seq})
}

func TestThreadViewReconnectRequiresResync(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	v.SetConnected(true)
	assert.True(t, v.NeedsResync()) // İlk bağlantı da snapshot ister

	v.ApplySnapshot(nil)
	assert.False(t, v.NeedsResync())

	// Kopukluk + yeniden bağlanma — arada ne kaçtı bilinemez
	v.SetConnected(false)
	assert.False(t, v.NeedsResync())
	v.SetConnected(true)
	assert.True(t, v.NeedsResync())
}

func TestThreadViewMessageRead(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	v.ApplySnapshot([]models.Message{confirmedMsg("m1", 1, testUserID, "selam")})

	readAt := time.Now().UTC().Truncate(time.Second)
	err := v.Apply(ws.Event{
		Op: ws.OpMessageRead,
		Data: ws.MessageReadData{
			MessageID: "m1",
			ThreadID:  testThreadID,
			ReadAt:    readAt.Format(time.RFC3339),
		},
	})
	require.NoError(t, err)

	msgs := v.Messages()
	require.NotNil(t, msgs[0].ReadAt)
	assert.True(t, readAt.Equal(*msgs[0].ReadAt))
}

func TestThreadViewIgnoresOtherThreads(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	foreign := confirmedMsg("m1", 1, otherUserID, "başka konuşma")
	foreign.ThreadID = "thread-other"
	require.NoError(t, v.Apply(insertedEvent(foreign)))

	assert.Empty(t, v.Messages())
	assert.Equal(t, int64(0), v.LastSeq())
}

func TestThreadViewIgnoresUnknownOps(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	// Sunucunun ilerde ekleyeceği op'lar eski client'ı kırmamalı
	require.NoError(t, v.Apply(ws.Event{Op: "some_future_op", Data: map[string]any{"x": 1}}))
	require.NoError(t, v.Apply(ws.Event{Op: ws.OpPresenceJoin, Data: ws.PresenceData{UserID: otherUserID}}))

	assert.Empty(t, v.Messages())
}

func TestThreadViewDecodesMapPayload(t *testing.T) {
	v := NewThreadView(testThreadID, testUserID)

	// Gerçek WS akışında Data json.Unmarshal sonrası map[string]any gelir
	err := v.Apply(ws.Event{
		Op: ws.OpMessageInserted,
		Data: map[string]any{
			"id":        "m1",
			"thread_id": testThreadID,
			"sender_id": otherUserID,
			"content":   "merhaba",
			"kind":      "text",
			"seq":       1,
		},
	})
	require.NoError(t, err)

	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(1), msgs[0].Seq)
}
