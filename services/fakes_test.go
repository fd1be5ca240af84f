package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg/webpush"
	"github.com/ozgurcan/lonca/repository"
	"github.com/ozgurcan/lonca/ws"
)

// ─── Test Fixture ───

// newTestDB, geçici dizinde gerçek bir SQLite veritabanı açar.
// Service testleri gerçek repository'lerle çalışır — SQL davranışı
// (seq ataması, unique constraint) mock'lanamayacak kadar önemlidir.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func seedUser(t *testing.T, db *database.DB, username string, email string) *models.User {
	t.Helper()

	user := &models.User{ID: uuid.New().String(), Username: username}
	if email != "" {
		user.Email = &email
	}
	require.NoError(t, repository.NewSQLiteUserRepo(db.Conn).UpsertFromClaims(context.Background(), user))
	return user
}

// ─── Fake EventPublisher ───

// recordedEvent, fakeHub'ın yakaladığı tek bir yayın.
type recordedEvent struct {
	Target string // "thread:<id>" veya "user:<id>"
	Event  ws.Event
}

// fakeHub, ws.EventPublisher'ın test implementasyonu.
// Yayınları sırasıyla kaydeder, çevrimiçi kullanıcı seti kontrol edilebilir.
type fakeHub struct {
	mu     sync.Mutex
	events []recordedEvent
	online map[string]bool
}

func newFakeHub() *fakeHub {
	return &fakeHub{online: map[string]bool{}}
}

func (h *fakeHub) BroadcastToThread(threadID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{Target: "thread:" + threadID, Event: event})
}

func (h *fakeHub) BroadcastToUser(userID string, event ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{Target: "user:" + userID, Event: event})
}

func (h *fakeHub) IsUserOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online[userID]
}

func (h *fakeHub) GetOnlineUserIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.online))
	for id := range h.online {
		ids = append(ids, id)
	}
	return ids
}

func (h *fakeHub) setOnline(userID string, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.online[userID] = on
}

func (h *fakeHub) recorded() []recordedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]recordedEvent, len(h.events))
	copy(out, h.events)
	return out
}

// ─── Fake Web Push Sender ───

type sentPush struct {
	Sub     webpush.Subscription
	Payload []byte
}

// fakePushSender, webpush.Sender'ın test implementasyonu.
// Endpoint başına hata enjekte edilebilir (örn. ErrEndpointGone).
type fakePushSender struct {
	mu    sync.Mutex
	sent  []sentPush
	fails map[string]error // endpoint → dönecek hata
}

func newFakePushSender() *fakePushSender {
	return &fakePushSender{fails: map[string]error{}}
}

func (f *fakePushSender) Send(_ context.Context, sub webpush.Subscription, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fails[sub.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, sentPush{Sub: sub, Payload: payload})
	return nil
}

func (f *fakePushSender) failEndpoint(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[endpoint] = err
}

func (f *fakePushSender) sentPushes() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentPush, len(f.sent))
	copy(out, f.sent)
	return out
}

// ─── Fake Email Sender ───

type sentEmail struct {
	To       string
	Sender   string
	Preview  string
	ThreadID string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (f *fakeMailer) SendMessageNotification(_ context.Context, toEmail, senderName, preview, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{To: toEmail, Sender: senderName, Preview: preview, ThreadID: threadID})
	return nil
}

func (f *fakeMailer) sentEmails() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEmail, len(f.sent))
	copy(out, f.sent)
	return out
}

// ─── Fake PushService ───

// fakePushService, MessageService testlerinde dispatch çağrılarını yakalar.
// Dispatch goroutine'de tetiklendiği için kanal üzerinden senkronize edilir.
type fakePushService struct {
	dispatched chan *models.Message
}

func newFakePushService() *fakePushService {
	return &fakePushService{dispatched: make(chan *models.Message, 64)}
}

func (f *fakePushService) Subscribe(context.Context, string, *models.SubscribeRequest) (*models.PushSubscription, error) {
	return nil, nil
}

func (f *fakePushService) Unsubscribe(context.Context, string, string) (int64, error) {
	return 0, nil
}

func (f *fakePushService) DispatchMessage(_ context.Context, _ *models.Thread, msg *models.Message) {
	f.dispatched <- msg
}

func (f *fakePushService) PurgeStale(context.Context) (int64, error) {
	return 0, nil
}
