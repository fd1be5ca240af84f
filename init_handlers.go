// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/ozgurcan/lonca/config"
	"github.com/ozgurcan/lonca/handlers"
	"github.com/ozgurcan/lonca/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Thread  *handlers.ThreadHandler
	Message *handlers.MessageHandler
	Push    *handlers.PushHandler
	WS      *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Thread:  handlers.NewThreadHandler(svcs.Thread),
		Message: handlers.NewMessageHandler(svcs.Message, limiters.Message),
		Push:    handlers.NewPushHandler(svcs.Push, cfg.Maintenance.Token),
		WS:      ws.NewHandler(hub, svcs.Auth),
	}
}
