// Package ratelimit — mesaj gönderimi için kullanıcı bazlı spam koruması.
//
// Anahtar userID'dir, IP değil: mesaj endpoint'leri zaten authenticated.
// Pencere içinde maxMessages mesaja izin verilir; limit aşılınca cooldown
// başlar ve bitene kadar her mesaj reddedilir. Pencere kısa, ceza uzun
// tutulur (örn. 5sn'de 5 mesaj, aşımda 15sn cooldown).
package ratelimit

import (
	"sync"
	"time"
)

// messageBucket iki durumludur: normal modda windowStart bazlı sayaç,
// cooldownUntil doluysa ceza modu.
type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// MessageRateLimiter, kullanıcı başına kayan pencere + cooldown uygular.
//
//	limiter := NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
//	if !limiter.Allow(userID) { // 429 + Retry-After: CooldownSeconds(userID)
type MessageRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
}

// NewMessageRateLimiter, limiter'ı oluşturur ve eski bucket'ları süpüren
// arka plan goroutine'ini başlatır. Bucket'lar kısa ömürlüdür ama çok
// kullanıcılı bir sunucuda map'in birikmemesi için temizlik gerekir.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow, kullanıcının mesaj gönderebilip gönderemeyeceğini belirler.
// false dönerse caller 429 dönmelidir.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	// Aktif cooldown: bitene kadar hiçbir mesaj geçmez.
	if !b.cooldownUntil.IsZero() && now.Before(b.cooldownUntil) {
		return false
	}

	// Cooldown bitti veya pencere doldu: yeni pencere başlat.
	if !b.cooldownUntil.IsZero() || now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds, kalan cooldown süresini saniye cinsinden döner; HTTP
// Retry-After header değeri olarak kullanılır. Cooldown yoksa 0.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}
	// Yukarı yuvarla ki client tam süreyi beklesin.
	return int(remaining.Seconds()) + 1
}

func (rl *MessageRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, hem penceresi hem cooldown'ı geçmiş bucket'ları siler.
// Çift koşul, cooldown'daki kullanıcının bucket'ını erken silmeyi önler.
func (rl *MessageRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
