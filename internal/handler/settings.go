package handler

import (
	"net/http"

	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/service"
)

type SettingsHandler struct {
	settings *service.SettingsService
}

func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, "settings.GetAll", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in model.SettingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	s, err := h.settings.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, "settings.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
