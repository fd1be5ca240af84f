package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/pkg/cache"
	"github.com/ozgurcan/lonca/repository"
	"github.com/ozgurcan/lonca/ws"
)

// ThreadService, konuşma iş mantığı interface'i.
//
// İşlemler:
//   - GetOrCreate: İlan için iki taraf arasındaki thread'i bul veya oluştur
//   - List: Kullanıcının thread'lerini karşı taraf ve unread sayısıyla listele
//   - VerifyParticipant: Kullanıcının thread tarafı olduğunu doğrula —
//     mesaj servisi ve WS abonelik kontrolü buradan geçer
type ThreadService interface {
	GetOrCreate(ctx context.Context, userID string, req *models.CreateThreadRequest) (*models.Thread, error)
	List(ctx context.Context, userID string) ([]models.ThreadWithCounterpart, error)
	VerifyParticipant(ctx context.Context, userID, threadID string) (*models.Thread, error)
}

// threadCacheTTL: Thread kayıtları immutable'a yakındır (taraflar hiç
// değişmez), kısa bir TTL üyelik kontrolünü DB'den koparmak için yeterli.
const threadCacheTTL = 30 * time.Second

// threadService, ThreadService interface'inin implementasyonu.
type threadService struct {
	db         *database.DB
	threadRepo repository.ThreadRepository
	msgRepo    repository.MessageRepository
	userRepo   repository.UserRepository
	hub        ws.EventPublisher

	// threadCache: threadID → Thread. Her mesaj append'i üyelik kontrolü
	// yapar — cache bu kontrolü sıcak path'te DB'siz tutar.
	threadCache *cache.TTLCache[string, *models.Thread]
}

// NewThreadService, constructor.
func NewThreadService(
	db *database.DB,
	threadRepo repository.ThreadRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	hub ws.EventPublisher,
) ThreadService {
	return &threadService{
		db:          db,
		threadRepo:  threadRepo,
		msgRepo:     msgRepo,
		userRepo:    userRepo,
		hub:         hub,
		threadCache: cache.New[string, *models.Thread](threadCacheTTL, 5*time.Minute),
	}
}

// GetOrCreate, ilan için istek sahibi ile ilan sahibi arasındaki thread'i
// bulur, yoksa oluşturur.
//
// İstek sahibi freelancer tarafıdır (ilana başvuran), req.ClientID ilan
// sahibidir. Aynı üçlü (bounty, client, freelancer) için her zaman aynı
// thread döner — UNIQUE constraint yarışta son savunma hattıdır.
//
// Yeni thread açılışı iki yazma içerir: thread kaydı + "conversation
// started" system mesajı. İkisi tek transaction'da atılır — yarıda kalan
// açılış olamaz.
func (s *threadService) GetOrCreate(ctx context.Context, userID string, req *models.CreateThreadRequest) (*models.Thread, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if req.ClientID == userID {
		return nil, fmt.Errorf("%w: cannot open a conversation with yourself", pkg.ErrBadRequest)
	}

	// İlan sahibinin lokal kaydı olmayabilir (henüz bu servise hiç istek
	// atmamıştır) — FK constraint için iskelet kayıt açılır, profil ilk
	// isteğinde claim'lerden dolar.
	if _, err := s.userRepo.GetByID(ctx, req.ClientID); err != nil {
		if upsertErr := s.userRepo.UpsertFromClaims(ctx, &models.User{
			ID:       req.ClientID,
			Username: req.ClientID,
		}); upsertErr != nil {
			return nil, upsertErr
		}
	}

	existing, err := s.threadRepo.GetByBountyAndUsers(ctx, req.BountyID, req.ClientID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	thread := &models.Thread{
		ID:           uuid.New().String(),
		BountyID:     req.BountyID,
		ClientID:     req.ClientID,
		FreelancerID: userID,
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.threadRepo.Create(ctx, tx, thread); err != nil {
			return err
		}

		opening := &models.Message{
			ID:       uuid.New().String(),
			ThreadID: thread.ID,
			SenderID: userID,
			Content:  "conversation started",
			Kind:     models.MessageKindSystem,
		}
		return s.msgRepo.Create(ctx, tx, opening)
	})
	if err != nil {
		return nil, err
	}

	// Her iki tarafın tüm cihazlarına duyur — thread listeleri yeni
	// konuşmayı gösterebilsin.
	event := ws.Event{Op: ws.OpThreadCreated, Data: thread}
	s.hub.BroadcastToUser(thread.ClientID, event)
	s.hub.BroadcastToUser(thread.FreelancerID, event)

	return thread, nil
}

// List, kullanıcının thread'lerini karşı taraf profili ve okunmamış mesaj
// sayısıyla döner.
func (s *threadService) List(ctx context.Context, userID string) ([]models.ThreadWithCounterpart, error) {
	return s.threadRepo.ListForUser(ctx, userID)
}

// VerifyParticipant, kullanıcının thread'in tarafı olduğunu doğrular.
// Değilse ErrForbidden döner. Başarılıysa thread objesini döner.
//
// Cache'teki kopyanın LastMessageAt alanı eski olabilir — çağıranlar bu
// objeyi yalnızca taraf bilgisi için kullanır.
func (s *threadService) VerifyParticipant(ctx context.Context, userID, threadID string) (*models.Thread, error) {
	thread, ok := s.threadCache.Get(threadID)
	if !ok {
		var err error
		thread, err = s.threadRepo.GetByID(ctx, threadID)
		if err != nil {
			return nil, err
		}
		s.threadCache.Set(threadID, thread)
	}

	if !thread.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of this thread", pkg.ErrForbidden)
	}
	return thread, nil
}
