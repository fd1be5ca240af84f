// Package webpush, Web Push protokolü (RFC 8030) üzerinden tarayıcıya
// bildirim gönderimini soyutlar.
//
// Sender interface'i ile gönderim detayları soyutlanır — push servisi
// test'te fake Sender, production'da VAPID implementasyonu kullanır.
//
// VAPID nedir?
// Voluntary Application Server Identification — push endpoint'e kendimizi
// tanıtan imzalı header. Public/private key çifti bir kez üretilir;
// public key tarayıcıya (subscribe sırasında) verilir, private key
// server'da kalır.
package webpush

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrEndpointGone, push endpoint'inin kalıcı olarak geçersiz olduğunu belirtir.
// Tarayıcı aboneliği iptal etmiş veya abonelik süresi dolmuştur —
// çağıran bu hatayı görünce kaydı DB'den silmelidir.
var ErrEndpointGone = errors.New("push endpoint gone")

// Subscription, gönderim için gereken abonelik bilgisi.
// Anahtarlar buraya ÇÖZÜLMÜŞ halde gelir — şifre çözme çağıranın işidir.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Sender, tek bir aboneliğe push bildirimi gönderir.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// vapidSender, webpush-go ile gönderim yapan Sender implementasyonu.
type vapidSender struct {
	subscriber string // VAPID sub claim — "mailto:ops@lonca.app"
	publicKey  string
	privateKey string
	ttl        int // Push servisinin mesajı bekletme süresi (saniye)
}

// NewVAPIDSender, VAPID anahtarlarıyla yeni bir Sender oluşturur.
func NewVAPIDSender(subscriber, publicKey, privateKey string) Sender {
	return &vapidSender{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        86400, // 24 saat — kullanıcı çevrimdışıysa endpoint bekletir
	}
}

// Send, payload'ı aboneliğin endpoint'ine iletir.
//
// HTTP 404/410 yanıtları ErrEndpointGone'a map edilir — bu abonelik
// ölüdür, tekrar denenmez. Diğer hatalar (5xx, ağ) geçicidir;
// çağıran loglayıp geçer, bir sonraki mesajda tekrar denenmiş olur.
func (s *vapidSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("webpush send: endpoint returned %d", resp.StatusCode)
	}

	return nil
}
