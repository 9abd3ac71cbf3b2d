package courses

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/utils"
)

type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// ListCourses returns all courses, optionally filtered by category and level.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.list(w, r, Filter{Category: q.Get("category"), Level: q.Get("level")})
}

// ListByCategory returns the courses in one category.
func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, Filter{Category: chi.URLParam(r, "category")})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, f Filter) {
	courses, err := h.store.List(r.Context(), f)
	if err != nil {
		h.serverError(w, r, "list courses failed", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, courses)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	c, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		utils.WriteMessage(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "get course failed", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCourse(w, r)
	if !ok {
		return
	}

	if err := h.store.Create(r.Context(), c); err != nil {
		h.serverError(w, r, "create course failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Course created successfully!",
		"course_id": c.ID,
	})
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}
	c, ok := decodeCourse(w, r)
	if !ok {
		return
	}
	c.ID = id

	err := h.store.Update(r.Context(), c)
	if errors.Is(err, ErrNotFound) {
		utils.WriteMessage(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "update course failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Course updated successfully!",
		"course_id": id,
	})
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		utils.WriteMessage(w, http.StatusNotFound, "Course not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "delete course failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Course deleted successfully!",
		"course_id": id,
	})
}

func courseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid course id")
		return 0, false
	}
	return uint(id), true
}

func decodeCourse(w http.ResponseWriter, r *http.Request) (*Course, bool) {
	var in Input
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	c := &Course{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Level:       strings.TrimSpace(in.Level),
		IsFree:      true,
		URL:         strings.TrimSpace(in.URL),
		Tags:        in.Tags,
	}
	if c.Title == "" {
		utils.WriteMessage(w, http.StatusBadRequest, "Title is required")
		return nil, false
	}
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	if in.IsFree != nil {
		c.IsFree = *in.IsFree
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, true
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.LogError(r.Context(), h.log, msg, err)
	utils.WriteMessage(w, http.StatusInternalServerError, "Server error")
}
