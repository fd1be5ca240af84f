package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/services"
)

// PushHandler, push aboneliği endpoint'lerini yöneten struct.
type PushHandler struct {
	pushService      services.PushService
	maintenanceToken string // Boşsa maintenance endpoint'i kapalıdır
}

// NewPushHandler, constructor.
func NewPushHandler(pushService services.PushService, maintenanceToken string) *PushHandler {
	return &PushHandler{
		pushService:      pushService,
		maintenanceToken: maintenanceToken,
	}
}

// Subscribe godoc
// POST /api/push/subscribe
// Tarayıcının push aboneliğini kaydeder.
//
// Body: { "endpoint": "https://...", "keys": { "p256dh": "...", "auth": "..." }, "thread_ids": [...] }
// thread_ids boşsa abonelik kullanıcının tüm thread'lerini kapsar.
// Aynı endpoint ile tekrar çağrı yeni kayıt açmaz — mevcut kaydı günceller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.pushService.Subscribe(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, sub)
}

// Unsubscribe godoc
// DELETE /api/push/subscribe
// Push aboneliğini siler.
//
// Body: { "endpoint": "https://..." } — endpoint verilmezse kullanıcının
// TÜM abonelikleri silinir (logout akışı).
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	// DELETE body'si boş olabilir — decode hatası endpoint'siz istek sayılır
	var req models.UnsubscribeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	removed, err := h.pushService.Unsubscribe(r.Context(), user.ID, req.Endpoint)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// Purge godoc
// POST /api/push/maintenance/purge
// Retention süresini aşmış abonelikleri siler. Kullanıcı auth'u değil,
// MAINTENANCE_TOKEN ister — cron/operasyon aracından çağrılır.
//
// Response: { "removed": n }
func (h *PushHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if h.maintenanceToken == "" {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "not found")
		return
	}

	authHeader := r.Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	// Sabit zamanlı karşılaştırma — token uzunluğu/içeriği timing ile sızmaz
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.maintenanceToken)) != 1 {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid maintenance token")
		return
	}

	removed, err := h.pushService.PurgeStale(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
