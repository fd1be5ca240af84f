package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/repository"
	"github.com/ozgurcan/lonca/ws"
)

// MessageService, mesaj iş mantığı interface'i.
//
// İşlemler:
//   - Append: Thread'e mesaj ekle + realtime yayın + push dispatch
//   - List: Thread mesajlarını seq sırasında getir (afterSeq ile diff)
//   - MarkRead: Mesajı okundu işaretle (idempotent) + yayın
//
// Tüm işlemler taraf kontrolünden geçer — taraf olmayan kullanıcı
// ErrForbidden alır, mesaj içeriği sızmaz.
type MessageService interface {
	Append(ctx context.Context, userID, threadID string, req *models.CreateMessageRequest) (*models.Message, error)
	List(ctx context.Context, userID, threadID string, afterSeq int64, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, userID, messageID string) (*models.Message, error)
}

// messageService, MessageService interface'inin implementasyonu.
type messageService struct {
	db         *database.DB
	msgRepo    repository.MessageRepository
	threadRepo repository.ThreadRepository
	userRepo   repository.UserRepository
	threads    ThreadService
	push       PushService
	hub        ws.EventPublisher

	// threadLocks: threadID → mutex. Append, DB yazması ile WS yayınını
	// aynı kilit altında yapar — böylece yayın sırası seq sırasıyla aynı
	// kalır (seq 5'in event'i seq 6'nınkinden önce çıkar).
	lockMu      sync.Mutex
	threadLocks map[string]*sync.Mutex
}

// NewMessageService, constructor.
func NewMessageService(
	db *database.DB,
	msgRepo repository.MessageRepository,
	threadRepo repository.ThreadRepository,
	userRepo repository.UserRepository,
	threads ThreadService,
	push PushService,
	hub ws.EventPublisher,
) MessageService {
	return &messageService{
		db:          db,
		msgRepo:     msgRepo,
		threadRepo:  threadRepo,
		userRepo:    userRepo,
		threads:     threads,
		push:        push,
		hub:         hub,
		threadLocks: make(map[string]*sync.Mutex),
	}
}

// threadLock, thread'e özel mutex'i döner (yoksa oluşturur).
// Kilitler silinmez — aktif thread sayısı sınırlıdır ve mutex küçüktür.
func (s *messageService) threadLock(threadID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.threadLocks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.threadLocks[threadID] = lock
	}
	return lock
}

// Append, thread'e yeni mesaj ekler.
//
// Akış:
// 1. Validation + taraf kontrolü
// 2. Thread kilidi altında: DB insert (seq ataması) + WS yayını
// 3. Kilit dışında: push dispatch (async — HTTP yanıtını bekletmez)
//
// client_ref DB'ye yazılmaz; yanıtta ve message_inserted event'inde aynen
// geri döner. Gönderen cihaz kendi optimistic kopyasını bu ref ile eşler.
func (s *messageService) Append(ctx context.Context, userID, threadID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	thread, err := s.threads.VerifyParticipant(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		SenderID: userID,
		Content:  req.Content,
		Kind:     req.Kind,
	}

	lock := s.threadLock(threadID)
	lock.Lock()

	if err := s.msgRepo.Create(ctx, s.db.Conn, msg); err != nil {
		lock.Unlock()
		return nil, err
	}

	if err := s.threadRepo.TouchLastMessage(ctx, threadID, msg.CreatedAt); err != nil {
		// Mesaj kaydedildi — sıralama alanı güncellenemese de akış durmaz
		log.Printf("[message] failed to touch thread %s: %v", threadID, err)
	}

	msg.ClientRef = req.ClientRef
	msg.Sender = sender

	// Açık görünümlere thread yayını; kapalı cihazlara (unread badge)
	// kullanıcı yayını. Aynı bağlantı ikisini de alabilir — client
	// mesajları ID ile idempotent işler.
	event := ws.Event{Op: ws.OpMessageInserted, Data: msg}
	s.hub.BroadcastToThread(threadID, event)
	s.hub.BroadcastToUser(thread.Counterpart(userID), event)

	lock.Unlock()

	// Push dispatch HTTP yanıtını bekletmez. Request context'i yanıtla
	// birlikte iptal olur — arka plan işi kendi context'ini taşır.
	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.push.DispatchMessage(dispatchCtx, thread, msg)
	}()

	return msg, nil
}

// List, thread mesajlarını seq'e göre artan sırada döner.
// afterSeq > 0 ile reconnect sonrası fark çekilir.
func (s *messageService) List(ctx context.Context, userID, threadID string, afterSeq int64, limit int) ([]models.Message, error) {
	if _, err := s.threads.VerifyParticipant(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return s.msgRepo.List(ctx, threadID, afterSeq, limit)
}

// MarkRead, mesajı okundu olarak işaretler.
//
// Sadece KARŞI TARAF işaretleyebilir — kendi mesajını okundu yapmak
// anlamsızdır ve reddedilir. İşaretleme idempotenttir: ikinci çağrı
// mevcut read_at'i döner, tekrar yayın yapılmaz.
func (s *messageService) MarkRead(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	thread, err := s.threads.VerifyParticipant(ctx, userID, msg.ThreadID)
	if err != nil {
		return nil, err
	}

	if msg.SenderID == userID {
		return nil, fmt.Errorf("%w: cannot mark own message as read", pkg.ErrForbidden)
	}

	readAt, updated, err := s.msgRepo.MarkRead(ctx, messageID, time.Now())
	if err != nil {
		return nil, err
	}
	msg.ReadAt = &readAt

	if updated {
		// Gönderene okundu bilgisi — açık görünümler thread yayınından,
		// diğer cihazlar kullanıcı yayınından alır.
		event := ws.Event{
			Op: ws.OpMessageRead,
			Data: ws.MessageReadData{
				MessageID: msg.ID,
				ThreadID:  msg.ThreadID,
				ReadAt:    readAt.UTC().Format(time.RFC3339),
			},
		}
		s.hub.BroadcastToThread(msg.ThreadID, event)
		s.hub.BroadcastToUser(thread.Counterpart(userID), event)
	}

	return msg, nil
}
