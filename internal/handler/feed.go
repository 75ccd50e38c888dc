package handler

import (
	"net/http"

	"github.com/miamiwave/internal/view"
)

// FeedHandler — экраны ленты, обзора и поиска.
type FeedHandler struct {
	loader *view.Loader
}

func NewFeedHandler(loader *view.Loader) *FeedHandler {
	return &FeedHandler{loader: loader}
}

func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Feed(r.Context())
	if err != nil {
		writeViewError(w, "feed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *FeedHandler) Discover(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Discover(r.Context())
	if err != nil {
		writeViewError(w, "discover", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeViewError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
