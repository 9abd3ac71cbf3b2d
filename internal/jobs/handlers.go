package jobs

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/utils"
)

type Handler struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log, now: time.Now}
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	apps, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		logging.LogError(r.Context(), h.log, "list jobs failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, apps)
}

func (h *Handler) AddJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var in Input
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	app := &Application{
		UserID:      userID,
		Company:     strings.TrimSpace(in.Company),
		Position:    strings.TrimSpace(in.Position),
		Location:    strings.TrimSpace(in.Location),
		Status:      strings.TrimSpace(in.Status),
		Notes:       in.Notes,
		DateApplied: h.now().Format(dateLayout),
	}
	if app.Company == "" || app.Position == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Company and position are required")
		return
	}
	if app.Location == "" {
		app.Location = DefaultLocation
	}
	if app.Status == "" {
		app.Status = DefaultStatus
	}

	if err := h.store.Create(r.Context(), app); err != nil {
		logging.LogError(r.Context(), h.log, "add job failed", err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("✅ Job at %s (%s) added!", app.Company, app.Position),
		"job":     app,
	})
}
