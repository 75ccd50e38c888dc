package handler

import (
	"net/http"

	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.posts.Create(r.Context(), middleware.GetViewer(r.Context()), in)
	if err != nil {
		writeServiceError(w, "posts.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "posts.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.posts.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, "posts.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, "posts.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.posts.ToggleLike(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "posts.ToggleLike", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.posts.AddComment(r.Context(), id, middleware.GetViewer(r.Context()), req.Content)
	if err != nil {
		writeServiceError(w, "posts.AddComment", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
