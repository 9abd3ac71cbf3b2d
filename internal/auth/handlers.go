package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/utils"
)

// Handler serves the /api/auth endpoints.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var actor *utils.Identity
	if id, ok := utils.GetIdentityFromContext(r.Context()); ok {
		actor = &id
	}

	res, err := h.svc.Register(r.Context(), in, actor)
	if err != nil {
		h.writeError(w, r, "register failed", err)
		return
	}

	body := map[string]any{
		"success": true,
		"message": "User created successfully!",
		"user_id": res.User.ID,
	}
	if res.Token != "" {
		body["token"] = res.Token
		body["user"] = res.User.Profile()
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeError(w, r, "login failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   res.Token,
		"user":    res.User.Profile(),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	u, err := h.svc.Profile(r.Context(), userID)
	if errors.Is(err, ErrUserNotFound) {
		// The account behind a still-valid token is gone.
		utils.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	if err != nil {
		h.writeError(w, r, "profile lookup failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    u.Profile(),
	})
}

// writeError maps service errors to fixed responses. Only server faults are
// logged, and their text never reaches the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		utils.WriteMessage(w, http.StatusBadRequest, fe.Error())
	case errors.Is(err, ErrDuplicateAccount):
		utils.WriteMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, ErrInvalidCredentials):
		utils.WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrForbiddenRole):
		utils.WriteMessage(w, http.StatusForbidden, "Only an admin can create admin accounts")
	default:
		logging.LogError(r.Context(), h.log, msg, err)
		utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
	}
}
