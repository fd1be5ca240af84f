package services

import (
	"context"
	"log"
	"time"
)

// RetentionSweeper, eski push aboneliklerini periyodik olarak temizleyen
// arka plan görevidir. main.go'da Start ile başlatılır, graceful shutdown
// sırasında Stop ile durdurulur.
//
// Aynı temizlik POST /api/push/maintenance/purge ile elle de tetiklenebilir —
// sweeper sadece kimsenin çağırmadığı durumda birikmeyi önler.
type RetentionSweeper struct {
	push     PushService
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewRetentionSweeper, constructor.
func NewRetentionSweeper(push PushService, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{
		push:     push,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start, sweep goroutine'ini başlatır.
// İlk sweep hemen değil bir interval sonra çalışır — açılışta DB henüz
// migration'dan yeni çıkmışken gereksiz yük bindirmemek için.
func (s *RetentionSweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("[retention] sweeper started (interval: %s)", s.interval)

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				log.Println("[retention] sweeper stopped")
				return
			}
		}
	}()
}

// sweep, tek bir temizlik turu çalıştırır.
func (s *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.push.PurgeStale(ctx); err != nil {
		log.Printf("[retention] sweep failed: %v", err)
	}
}

// Stop, sweeper'ı durdurur ve goroutine çıkana kadar bekler.
func (s *RetentionSweeper) Stop() {
	close(s.stop)
	<-s.done
}
