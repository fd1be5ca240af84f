package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/pkg/crypto"
	"github.com/ozgurcan/lonca/pkg/email"
	"github.com/ozgurcan/lonca/pkg/webpush"
	"github.com/ozgurcan/lonca/repository"
	"github.com/ozgurcan/lonca/ws"
)

// PushService, push bildirim iş mantığı interface'i.
//
// İşlemler:
//   - Subscribe: Tarayıcı aboneliğini kaydet (anahtarlar şifreli saklanır)
//   - Unsubscribe: Abonelik sil (endpoint verilmezse hepsi)
//   - DispatchMessage: Çevrimdışı karşı tarafa mesaj bildirimi gönder
//   - PurgeStale: Eski abonelikleri temizle, silinen sayıyı dön
type PushService interface {
	Subscribe(ctx context.Context, userID string, req *models.SubscribeRequest) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID, endpoint string) (int64, error)
	DispatchMessage(ctx context.Context, thread *models.Thread, msg *models.Message)
	PurgeStale(ctx context.Context) (int64, error)
}

// previewLimit: Bildirim gövdesindeki mesaj ön izlemesinin üst sınırı (rune).
const previewLimit = 120

// pushPayload, tarayıcıya giden bildirim JSON'ı.
// Service worker bu yapıyı parse edip Notification API'ye verir.
type pushPayload struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Icon  string          `json:"icon,omitempty"`
	Tag   string          `json:"tag"` // Aynı tag'li bildirimler üst üste binmez, sonuncusu kalır
	Data  pushPayloadData `json:"data"`

	// Notification API'nin beklediği görüntüleme seçenekleri. Mesaj
	// bildirimi kullanıcıyı oyalamamalı: etkileşim zorunlu değil, sessiz
	// değil. actions şimdilik boş — service worker tıklamada data.url açar.
	Actions            []pushAction `json:"actions"`
	RequireInteraction bool         `json:"requireInteraction"`
	Silent             bool         `json:"silent"`
}

// pushAction, bildirim kartındaki buton tanımı (Notification API actions).
type pushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

type pushPayloadData struct {
	URL       string `json:"url"`
	Type      string `json:"type"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
}

// pushService, PushService interface'inin implementasyonu.
type pushService struct {
	pushRepo repository.PushRepository
	userRepo repository.UserRepository
	threads  ThreadService
	sender   webpush.Sender
	mailer   email.EmailSender // nil olabilir — email fallback kapalı demektir
	hub      ws.EventPublisher

	encKey    []byte // Abonelik anahtarlarını DB'de şifrelemek için
	appURL    string
	retention time.Duration
}

// NewPushService, constructor.
// mailer nil geçilebilir — o durumda aboneliği olmayan çevrimdışı
// kullanıcıya email fallback'i atlanır.
func NewPushService(
	pushRepo repository.PushRepository,
	userRepo repository.UserRepository,
	threads ThreadService,
	sender webpush.Sender,
	mailer email.EmailSender,
	hub ws.EventPublisher,
	encKey []byte,
	appURL string,
	retention time.Duration,
) PushService {
	return &pushService{
		pushRepo:  pushRepo,
		userRepo:  userRepo,
		threads:   threads,
		sender:    sender,
		mailer:    mailer,
		hub:       hub,
		encKey:    encKey,
		appURL:    appURL,
		retention: retention,
	}
}

// Subscribe, tarayıcı push aboneliğini kaydeder.
//
// Kapsam (thread_ids) verilmişse her thread için taraf kontrolü yapılır —
// kullanıcı başkasının thread'ine abone olamaz. Boş kapsam "tüm
// thread'lerim" demektir ve NULL olarak saklanır.
//
// p256dh/auth anahtarları DB'ye AES-256-GCM ile şifreli yazılır —
// DB dump'ı tek başına push göndermek için yeterli olmaz.
func (s *pushService) Subscribe(ctx context.Context, userID string, req *models.SubscribeRequest) (*models.PushSubscription, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrInvalidSubscription, err.Error())
	}

	for _, threadID := range req.ThreadIDs {
		if _, err := s.threads.VerifyParticipant(ctx, userID, threadID); err != nil {
			return nil, fmt.Errorf("%w: thread %s is not accessible", pkg.ErrInvalidSubscription, threadID)
		}
	}

	encP256dh, err := crypto.Encrypt(req.Keys.P256dh, s.encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt subscription key: %w", err)
	}
	encAuth, err := crypto.Encrypt(req.Keys.Auth, s.encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt subscription key: %w", err)
	}

	var scope []string
	if len(req.ThreadIDs) > 0 {
		scope = req.ThreadIDs
	}

	sub := &models.PushSubscription{
		ID:          uuid.New().String(),
		UserID:      userID,
		Endpoint:    req.Endpoint,
		P256dh:      encP256dh,
		Auth:        encAuth,
		ThreadScope: scope,
	}

	if err := s.pushRepo.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// Unsubscribe, aboneliği siler ve silinen kayıt sayısını döner.
// endpoint boşsa kullanıcının TÜM abonelikleri silinir (logout akışı).
// endpoint verilmiş ama kayıt yoksa ErrNotFound döner.
func (s *pushService) Unsubscribe(ctx context.Context, userID, endpoint string) (int64, error) {
	if endpoint == "" {
		return s.pushRepo.DeleteAllForUser(ctx, userID)
	}

	deleted, err := s.pushRepo.DeleteByEndpoint(ctx, userID, endpoint)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return 0, fmt.Errorf("%w: subscription not found", pkg.ErrNotFound)
	}
	return 1, nil
}

// DispatchMessage, mesajın karşı tarafına push bildirimi gönderir.
//
// Gönderim kararları:
//   - System mesajları bildirim üretmez
//   - Karşı taraf çevrimiçiyse atlanır — event WebSocket'ten zaten ulaştı
//   - Kapsam dışı abonelikler (scoped, bu thread yok) atlanır
//   - Hiç uygun abonelik yoksa email fallback denenir
//
// Hata yaklaşımı: gönderim best-effort'tur. Mesaj zaten DB'de —
// buradaki hiçbir hata çağırana dönmez, loglanır. 404/410 alan
// abonelik ölüdür ve silinir; diğer abonelikler bundan ETKİLENMEZ.
func (s *pushService) DispatchMessage(ctx context.Context, thread *models.Thread, msg *models.Message) {
	if msg.Kind == models.MessageKindSystem {
		return
	}

	recipient := thread.Counterpart(msg.SenderID)
	if recipient == "" {
		return
	}

	if s.hub.IsUserOnline(recipient) {
		return
	}

	subs, err := s.pushRepo.ListForUser(ctx, recipient)
	if err != nil {
		log.Printf("[push] failed to list subscriptions for user %s: %v", recipient, err)
		return
	}

	var targets []models.PushSubscription
	for _, sub := range subs {
		if sub.CoversThread(thread.ID) {
			targets = append(targets, sub)
		}
	}

	if len(targets) == 0 {
		s.emailFallback(ctx, recipient, thread, msg)
		return
	}

	payload, err := json.Marshal(s.buildPayload(thread, msg))
	if err != nil {
		log.Printf("[push] failed to marshal payload: %v", err)
		return
	}

	// Her aboneliğe paralel gönderim — biri yavaşsa diğerleri beklemez.
	var wg sync.WaitGroup
	for _, sub := range targets {
		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()
			s.sendToSubscription(ctx, sub, payload)
		}(sub)
	}
	wg.Wait()
}

// sendToSubscription, tek aboneliğe gönderim yapar.
// Endpoint kalıcı olarak ölmüşse (404/410) kayıt silinir.
func (s *pushService) sendToSubscription(ctx context.Context, sub models.PushSubscription, payload []byte) {
	p256dh, err := crypto.Decrypt(sub.P256dh, s.encKey)
	if err != nil {
		log.Printf("[push] failed to decrypt key for subscription %s: %v", sub.ID, err)
		return
	}
	auth, err := crypto.Decrypt(sub.Auth, s.encKey)
	if err != nil {
		log.Printf("[push] failed to decrypt key for subscription %s: %v", sub.ID, err)
		return
	}

	err = s.sender.Send(ctx, webpush.Subscription{
		Endpoint: sub.Endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	}, payload)

	if err == nil {
		// Başarılı teslimat aboneliği tazeler — her gün bildirim alan ama
		// hiç yeniden kaydolmayan cihaz retention süpürmesine takılmaz.
		if touchErr := s.pushRepo.TouchByID(ctx, sub.ID); touchErr != nil {
			log.Printf("[push] failed to refresh subscription %s: %v", sub.ID, touchErr)
		}
		return
	}

	if errors.Is(err, webpush.ErrEndpointGone) {
		log.Printf("[push] subscription %s gone, removing", sub.ID)
		if delErr := s.pushRepo.DeleteByID(ctx, sub.ID); delErr != nil {
			log.Printf("[push] failed to remove gone subscription %s: %v", sub.ID, delErr)
		}
		return
	}

	// Geçici hata (5xx, ağ) — abonelik kalır, bir sonraki mesajda tekrar denenir
	log.Printf("[push] delivery failed for subscription %s: %v", sub.ID, err)
}

// buildPayload, bildirim içeriğini hazırlar.
func (s *pushService) buildPayload(thread *models.Thread, msg *models.Message) pushPayload {
	title := "New message"
	if msg.Sender != nil {
		if msg.Sender.DisplayName != nil && *msg.Sender.DisplayName != "" {
			title = *msg.Sender.DisplayName
		} else {
			title = msg.Sender.Username
		}
	}

	return pushPayload{
		Title: title,
		Body:  truncatePreview(msg.Content),
		Icon:  s.appURL + "/icon-192.png",
		Tag:   "thread-" + thread.ID, // Aynı thread'in bildirimleri tek kartta toplanır
		Data: pushPayloadData{
			URL:       fmt.Sprintf("%s/threads/%s", s.appURL, thread.ID),
			Type:      "message",
			ThreadID:  thread.ID,
			MessageID: msg.ID,
		},
		Actions:            []pushAction{},
		RequireInteraction: false,
		Silent:             false,
	}
}

// emailFallback, push aboneliği olmayan çevrimdışı kullanıcıya email atar.
func (s *pushService) emailFallback(ctx context.Context, recipientID string, thread *models.Thread, msg *models.Message) {
	if s.mailer == nil {
		return
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil || recipient.Email == nil || *recipient.Email == "" {
		return
	}

	senderName := "Someone"
	if msg.Sender != nil {
		if msg.Sender.DisplayName != nil && *msg.Sender.DisplayName != "" {
			senderName = *msg.Sender.DisplayName
		} else {
			senderName = msg.Sender.Username
		}
	}

	if err := s.mailer.SendMessageNotification(ctx, *recipient.Email, senderName, truncatePreview(msg.Content), thread.ID); err != nil {
		log.Printf("[push] email fallback failed for user %s: %v", recipientID, err)
	}
}

// PurgeStale, retention süresinden uzun süredir yenilenmemiş abonelikleri
// siler. updated_at her başarılı upsert'te tazelenir — aktif cihazlar
// sweep'e takılmaz.
func (s *pushService) PurgeStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.pushRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("[push] purged %d stale subscriptions (cutoff: %s)", removed, cutoff.UTC().Format(time.RFC3339))
	}
	return removed, nil
}

// truncatePreview, mesaj içeriğini bildirim gövdesi sınırına indirir.
func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLimit-1]) + "…"
}
