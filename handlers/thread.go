package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/services"
)

// ThreadHandler, konuşma endpoint'lerini yöneten struct.
type ThreadHandler struct {
	threadService services.ThreadService
}

// NewThreadHandler, constructor.
func NewThreadHandler(threadService services.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

// List godoc
// GET /api/threads
// Kullanıcının tüm thread'lerini listeler (karşı taraf + unread sayısıyla).
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	threads, err := h.threadService.List(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, threads)
}

// CreateOrGet godoc
// POST /api/threads
// İlan için iki taraf arasındaki thread'i bul veya oluştur.
//
// Body: { "bounty_id": "...", "client_id": "..." }
// Response: Thread — var olan veya yeni oluşturulan.
func (h *ThreadHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	thread, err := h.threadService.GetOrCreate(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, thread)
}
