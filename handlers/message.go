package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/pkg/ratelimit"
	"github.com/ozgurcan/lonca/services"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
	rateLimiter    *ratelimit.MessageRateLimiter
}

// NewMessageHandler, constructor.
func NewMessageHandler(messageService services.MessageService, rateLimiter *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		rateLimiter:    rateLimiter,
	}
}

// List godoc
// GET /api/threads/{threadId}/messages?after_seq=&limit=
// Thread mesajlarını seq'e göre artan sırada döner.
//
// after_seq: Sadece bu numaradan büyük seq'li mesajlar (reconnect farkı).
// Verilmezse baştan itibaren döner.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("threadId")
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var afterSeq int64
	if raw := r.URL.Query().Get("after_seq"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid after_seq")
			return
		}
		afterSeq = parsed
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.messageService.List(r.Context(), user.ID, threadID, afterSeq, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Send godoc
// POST /api/threads/{threadId}/messages
// Thread'e yeni mesaj ekler.
//
// Body: { "content": "...", "kind": "text", "client_ref": "..." }
// Response 201: Message — sunucu ID'si, seq ve echo'lanan client_ref ile.
//
// Rate limit aşıldığında 429 + Retry-After header döner.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("threadId")
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if !h.rateLimiter.Allow(user.ID) {
		w.Header().Set("Retry-After", strconv.Itoa(h.rateLimiter.CooldownSeconds(user.ID)))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "you are sending messages too fast")
		return
	}

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Append(r.Context(), user.ID, threadID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// MarkRead godoc
// POST /api/messages/{id}/read
// Mesajı okundu olarak işaretler (idempotent — ikinci çağrı mevcut
// read_at ile 200 döner).
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	msg, err := h.messageService.MarkRead(r.Context(), user.ID, messageID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, msg)
}
