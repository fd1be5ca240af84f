// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ı burada tanımlıdır:
//   - auth: JWT token doğrulaması + kullanıcı profil senkronizasyonu
package main

import (
	"fmt"
	"net/http"

	"github.com/ozgurcan/lonca/middleware"
	"github.com/ozgurcan/lonca/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE
// tanımlanmalı — yoksa Go router literal kelimeyi path parametresi sanır.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService)

	// ─── Middleware Chain Helper ───
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"lonca"}`)
	})

	// Threads — taraf olduğun konuşmaları listele / ilan için konuşma aç
	mux.Handle("GET /api/threads", auth(h.Thread.List))
	mux.Handle("POST /api/threads", auth(h.Thread.CreateOrGet))

	// Messages — thread içi mesaj geçmişi ve gönderim
	mux.Handle("GET /api/threads/{threadId}/messages", auth(h.Message.List))
	mux.Handle("POST /api/threads/{threadId}/messages", auth(h.Message.Send))
	mux.Handle("POST /api/messages/{id}/read", auth(h.Message.MarkRead))

	// Push — tarayıcı push aboneliği yönetimi
	mux.Handle("POST /api/push/subscribe", auth(h.Push.Subscribe))
	mux.Handle("DELETE /api/push/subscribe", auth(h.Push.Unsubscribe))

	// Maintenance — bayat subscription temizliği.
	// Auth middleware KULLANMAZ: operatör token'ı ile korunur,
	// token kontrolü handler içinde yapılır (token yoksa endpoint 404 döner).
	mux.HandleFunc("POST /api/push/maintenance/purge", h.Push.Purge)

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
