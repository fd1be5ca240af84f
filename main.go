// Package main, lonca mesajlaşma backend'inin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'larla)
//  3. Push key şifreleme anahtarını türet
//  4. Repository'leri oluştur (DB bağlantısı ile)
//  5. WebSocket Hub'ı başlat
//  6. Service'leri oluştur (repository'ler + hub ile)
//  7. Hub'ın thread abonelik yetki kontrolünü bağla
//  8. Handler'ları oluştur (service'ler ile)
//  9. HTTP router'ı kur, route'ları bağla
// 10. CORS yapılandır
// 11. Retention sweeper'ı başlat
// 12. HTTP Server'ı başlat
// 13. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/ozgurcan/lonca/config"
	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/pkg/crypto"
	"github.com/ozgurcan/lonca/services"
	"github.com/ozgurcan/lonca/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] lonca server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	//
	// Migration'lar binary'ye gömülüdür (go:embed) — deploy edilen tek
	// dosya yeterli, yanında migrations/ dizini taşımak gerekmez.
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Push Key Şifreleme Anahtarı ───
	encryptionKey, err := crypto.DeriveKey(cfg.Push.EncryptionKey)
	if err != nil {
		log.Fatalf("[main] invalid PUSH_ENCRYPTION_KEY: %v", err)
	}

	// ─── 4. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 5. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda EventPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()

	// ─── 6. Service Layer ───
	svcs, limiters := initServices(db, repos, hub, cfg, encryptionKey)

	// ─── 7. Hub Thread Yetki Kontrolü ───
	//
	// Neden burada (main.go'da)? Hub ws paketinde yaşıyor, ama taraf
	// kontrolü service katmanında. Hub'ın service'lere bağımlı olmasını
	// istemiyoruz (Dependency Inversion) — main.go wire-up noktasıdır,
	// tüm katmanları birbirine bağlar.
	hub.SetThreadAuthorizer(func(userID, threadID string) error {
		_, err := svcs.Thread.VerifyParticipant(context.Background(), userID, threadID)
		return err
	})

	go hub.Run()

	// ─── 8. Handler Layer ───
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── 9. HTTP Router ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth)

	// ─── 10. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 11. Retention Sweeper ───
	//
	// Bayat push subscription'ları periyodik siler. Interval 0 ise kapalı —
	// purge endpoint'i üzerinden manuel tetikleme hâlâ mümkündür.
	var sweeper *services.RetentionSweeper
	if cfg.Maintenance.SweepInterval > 0 {
		sweeper = services.NewRetentionSweeper(
			svcs.Push,
			time.Duration(cfg.Maintenance.SweepInterval)*time.Minute,
		)
		sweeper.Start()
		log.Printf("[main] retention sweeper started (interval=%dm)", cfg.Maintenance.SweepInterval)
	}

	// ─── 12. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 13. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce arka plan işleri durdur, sonra WebSocket bağlantılarını kapat,
	// en son HTTP server'ı kapat — yeni request kabul etmeyi durdurur,
	// mevcut request'lerin bitmesini bekler (5sn timeout).
	if sweeper != nil {
		sweeper.Stop()
	}
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
