package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/miamiwave/internal/model"
)

// Заголовки идентичности. Аутентификацию выполняет платформа перед API, сюда приходит готовый пользователь.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUsername    = "X-Username"
	HeaderDisplayName = "X-Display-Name"
)

// Viewer кладёт зрителя из заголовков в контекст. Браузерный WebSocket не умеет заголовки,
// поэтому для него допускаются query-параметры user_id и username.
func Viewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := viewerFromHeaders(r)
		if v.ID == "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			q := r.URL.Query()
			v.ID = strings.TrimSpace(q.Get("user_id"))
			v.Username = strings.TrimSpace(q.Get("username"))
		}
		if v.ID == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), v)))
	})
}

func viewerFromHeaders(r *http.Request) model.Viewer {
	return model.Viewer{
		ID:          strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Username:    strings.TrimSpace(r.Header.Get(HeaderUsername)),
		DisplayName: strings.TrimSpace(r.Header.Get(HeaderDisplayName)),
	}
}

// RequireViewer отвечает 401 на запросы без зрителя.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetViewer(r.Context()).Anonymous() {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
