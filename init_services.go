// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// ÖNEMLİ sıralama kuralları:
// 1. threadService → pushService ve messageService'den ÖNCE
//    (ikisi de taraf kontrolü için ThreadService'e bağımlı)
// 2. pushService → messageService'den ÖNCE
//    (messageService mesaj sonrası push dispatch'i tetikler)
package main

import (
	"log"
	"time"

	"github.com/ozgurcan/lonca/config"
	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/pkg/email"
	"github.com/ozgurcan/lonca/pkg/ratelimit"
	"github.com/ozgurcan/lonca/pkg/webpush"
	"github.com/ozgurcan/lonca/services"
	"github.com/ozgurcan/lonca/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth    services.AuthService
	Thread  services.ThreadService
	Message services.MessageService
	Push    services.PushService
}

// RateLimiters, rate limiter instance'larını tutan container.
type RateLimiters struct {
	Message *ratelimit.MessageRateLimiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// Sıralama kritiktir — bkz. dosya başı yorum.
// hub ve encryptionKey service'ler arası paylaşılan dependency'lerdir.
func initServices(db *database.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config, encryptionKey []byte) (*Services, *RateLimiters) {
	authService := services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.Issuer)

	// ThreadService — pushService ve messageService'den ÖNCE
	threadService := services.NewThreadService(db, repos.Thread, repos.Message, repos.User, hub)

	// ─── Web Push sender ───
	pushSender := webpush.NewVAPIDSender(
		cfg.Push.Subscriber,
		cfg.Push.VAPIDPublicKey,
		cfg.Push.VAPIDPrivateKey,
	)
	if cfg.Push.VAPIDPublicKey == "" || cfg.Push.VAPIDPrivateKey == "" {
		log.Println("[main] VAPID keys missing — push delivery will fail until configured")
	}

	// ─── Email fallback (opsiyonel) ───
	var emailSender email.EmailSender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.FromEmail != "" {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email fallback enabled (from=%s)", cfg.Email.FromEmail)
	} else {
		log.Println("[main] email fallback disabled (RESEND_API_KEY / RESEND_FROM not set)")
	}

	pushService := services.NewPushService(
		repos.Push,
		repos.User,
		threadService,
		pushSender,
		emailSender,
		hub,
		encryptionKey,
		cfg.Push.AppURL,
		time.Duration(cfg.Push.RetentionDays)*24*time.Hour,
	)

	messageService := services.NewMessageService(
		db,
		repos.Message,
		repos.Thread,
		repos.User,
		threadService,
		pushService,
		hub,
	)

	// Mesaj rate limiter: 5 sn'de en fazla 5 mesaj, aşımda 15 sn cooldown
	limiters := &RateLimiters{
		Message: ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
	}

	return &Services{
		Auth:    authService,
		Thread:  threadService,
		Message: messageService,
		Push:    pushService,
	}, limiters
}
