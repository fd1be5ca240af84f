package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PushSubscription, bir tarayıcının Web Push aboneliğini temsil eder.
//
// P256dh ve Auth tarayıcının ürettiği şifreleme anahtarlarıdır —
// DB'de AES-256-GCM ile şifreli saklanır, sadece gönderim anında çözülür.
//
// ThreadScope nil ise abonelik kullanıcının TÜM thread'lerini kapsar.
// Dolu ise sadece listedeki thread'lerin mesajları bu cihaza push edilir.
type PushSubscription struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Endpoint    string     `json:"endpoint"`
	P256dh      string     `json:"-"` // Şifreli saklanır, API response'a dahil edilmez
	Auth        string     `json:"-"`
	ThreadScope []string   `json:"thread_scope,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CoversThread, aboneliğin verilen thread'i kapsayıp kapsamadığını döner.
func (s *PushSubscription) CoversThread(threadID string) bool {
	if s.ThreadScope == nil {
		return true
	}
	for _, id := range s.ThreadScope {
		if id == threadID {
			return true
		}
	}
	return false
}

// SubscriptionKeys, tarayıcının PushManager.subscribe() çıktısındaki
// anahtar çifti. Alan adları tarayıcının ürettiği JSON formatına uyar.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscribeRequest, push aboneliği kayıt isteği.
// Subscription kısmı tarayıcıdan olduğu gibi gelir (JSON.stringify ile);
// ThreadIDs opsiyoneldir — boşsa abonelik tüm thread'leri kapsar.
type SubscribeRequest struct {
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	ThreadIDs []string         `json:"thread_ids,omitempty"`
}

// Validate, SubscribeRequest'in geçerli olup olmadığını kontrol eder.
// Endpoint geçerli bir HTTPS URL olmalı, anahtarlar boş olmamalı.
func (r *SubscribeRequest) Validate() error {
	r.Endpoint = strings.TrimSpace(r.Endpoint)

	if r.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("endpoint must be a valid https URL")
	}
	if r.Keys.P256dh == "" {
		return fmt.Errorf("p256dh key is required")
	}
	if r.Keys.Auth == "" {
		return fmt.Errorf("auth key is required")
	}

	for i, id := range r.ThreadIDs {
		r.ThreadIDs[i] = strings.TrimSpace(id)
		if r.ThreadIDs[i] == "" {
			return fmt.Errorf("thread_ids cannot contain empty values")
		}
	}

	return nil
}

// UnsubscribeRequest, abonelik silme isteği.
// Endpoint verilmezse kullanıcının tüm abonelikleri silinir.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint,omitempty"`
}
