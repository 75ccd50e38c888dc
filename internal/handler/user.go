package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/view"
)

type UserHandler struct {
	users  *service.UserService
	loader *view.Loader
}

func NewUserHandler(users *service.UserService, loader *view.Loader) *UserHandler {
	return &UserHandler{users: users, loader: loader}
}

// Profile — экран профиля по username: пользователь, его посты и счётчики.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Profile(r.Context(), chi.URLParam(r, "username"), middleware.GetViewer(r.Context()))
	if err != nil {
		writeViewError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "users.Search", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, "users.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in model.UserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, "users.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Follow(r.Context(), id)
	if err != nil {
		writeServiceError(w, "users.Follow", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Unfollow(r.Context(), id)
	if err != nil {
		writeServiceError(w, "users.Unfollow", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
