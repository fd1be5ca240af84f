// Package cache — generic, thread-safe in-memory TTL cache.
//
// Mesaj append yolunda her istekte DB'ye gitmemek için thread üyelik
// kayıtlarını kısa süreli bellekte tutar. Her entry bir son kullanma
// zamanı taşır; süresi geçen entry okunamaz (cache miss) ve arka planda
// periyodik olarak map'ten silinir.
//
// sync.RWMutex ile korunur: okumalar paralel, yazmalar exclusive.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, K→V tipleriyle parametrize edilmiş süreli cache.
//
//	c := cache.New[string, *models.Thread](30*time.Second, 5*time.Minute)
//	c.Set("thread-id", t)
//	t, ok := c.Get("thread-id")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration

	stopCleanup chan struct{}
}

// New, cache'i oluşturur ve temizleme goroutine'ini başlatır.
//
// ttl her entry'nin yaşam süresi; cleanupInterval süresi dolanların map'ten
// fiziksel olarak ne sıklıkla silineceği. Get zaten stale entry döndürmez,
// cleanup sadece belleğin sınırsız büyümesini önler — ttl'den kısa tutulmalı.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

func (c *TTLCache[K, V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

// Get, key varsa ve süresi dolmamışsa (value, true) döner.
// Stale entry burada silinmez — RLock yeterli kalsın diye cleanup'a bırakılır.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, değeri cache'in TTL'i ile yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete, tek bir key'i invalidate eder (örn. thread kaydı değiştiğinde).
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// DeleteFunc, predicate'in true döndüğü tüm key'leri siler.
// Bir kullanıcıya ait bütün entry'leri tek seferde invalidate etmek için.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
}

// Clear, tüm entry'leri atar.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]entry[V])
}

// Len, süresi dolmuşlar dahil toplam entry sayısı.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Close, cleanup goroutine'ini durdurur.
func (c *TTLCache[K, V]) Close() {
	close(c.stopCleanup)
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
