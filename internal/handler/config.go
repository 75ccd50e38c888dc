package handler

import (
	"net/http"

	"github.com/miamiwave/internal/config"
)

// ConfigHandler отдаёт публичные параметры конфигурации клиенту.
type ConfigHandler struct {
	cfg            *config.Config
	vapidPublicKey string
}

// NewConfigHandler создаёт обработчик. vapidPublicKey пустой — пуши выключены.
func NewConfigHandler(cfg *config.Config, vapidPublicKey string) *ConfigHandler {
	return &ConfigHandler{cfg: cfg, vapidPublicKey: vapidPublicKey}
}

// GetCacheConfig возвращает время жизни кеша записей, чтобы клиент не перечитывал чаще.
func (h *ConfigHandler) GetCacheConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     h.cfg.Cache.Enabled,
		"ttl_minutes": h.cfg.Cache.TTLMinutes,
	})
}

// GetPushConfig возвращает публичный VAPID-ключ для подписки на пуши (если включены).
func (h *ConfigHandler) GetPushConfig(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":          true,
		"vapid_public_key": h.vapidPublicKey,
	})
}
