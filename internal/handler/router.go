package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/miamiwave/internal/config"
	"github.com/miamiwave/internal/middleware"
	"github.com/miamiwave/internal/push"
	"github.com/miamiwave/internal/service"
	"github.com/miamiwave/internal/view"
	"github.com/miamiwave/internal/ws"
)

// Deps — всё, что нужно маршрутизатору API.
type Deps struct {
	Config   *config.Config
	Services *service.Services
	Loader   *view.Loader
	Hub      *ws.Hub
	Push     *push.Sender
}

// NewRouter собирает цепочку middleware и маршруты API.
func NewRouter(d Deps) chi.Router {
	feedH := NewFeedHandler(d.Loader)
	postH := NewPostHandler(d.Services.Posts)
	userH := NewUserHandler(d.Services.Users, d.Loader)
	chatH := NewChatHandler(d.Services.Chats, d.Services.Messages, d.Loader)
	notifH := NewNotificationHandler(d.Services.Notifications, d.Loader)
	channelH := NewChannelHandler(d.Services.Channels, d.Loader)
	settingsH := NewSettingsHandler(d.Services.Settings)
	configH := NewConfigHandler(d.Config, d.Push.PublicKey())
	pushH := NewPushHandler(d.Push)
	wsH := NewWSHandler(d.Hub, d.Config.CORSAllowedOrigins)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(middleware.RecoverJSON)
	// Не сжимать WebSocket — иначе ResponseWriter не реализует http.Hijacker и upgrade даёт 500.
	r.Use(func(next http.Handler) http.Handler {
		compressed := chimw.Compress(5)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, req)
				return
			}
			compressed.ServeHTTP(w, req)
		})
	})
	r.Use(middleware.RequestLog)
	r.Use(middleware.Viewer)
	r.Use(middleware.RateLimit(d.Config.RateLimitPerMinute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(d.Config.CORSAllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderUserID, middleware.HeaderUsername, middleware.HeaderDisplayName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Get("/api/config/cache", configH.GetCacheConfig)
	r.Get("/api/config/push", configH.GetPushConfig)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireViewer)

		r.Get("/api/feed", feedH.Feed)
		r.Get("/api/discover", feedH.Discover)
		r.Get("/api/search", feedH.Search)

		r.Post("/api/posts", postH.Create)
		r.Get("/api/posts/{id}", postH.Get)
		r.Put("/api/posts/{id}", postH.Update)
		r.Delete("/api/posts/{id}", postH.Delete)
		r.Post("/api/posts/{id}/like", postH.ToggleLike)
		r.Post("/api/posts/{id}/comments", postH.AddComment)

		r.Get("/api/users/search", userH.Search)
		r.Post("/api/users", userH.Create)
		r.Get("/api/users/{username}", userH.Profile)
		r.Put("/api/users/{id}", userH.Update)
		r.Post("/api/users/{id}/follow", userH.Follow)
		r.Delete("/api/users/{id}/follow", userH.Unfollow)

		r.Get("/api/chats", chatH.List)
		r.Post("/api/chats", chatH.Create)
		r.Get("/api/chats/{id}", chatH.Room)
		r.Post("/api/chats/{id}/messages", chatH.Send)
		r.Post("/api/chats/{id}/read", chatH.MarkRead)
		r.Post("/api/messages/{id}/read", chatH.MarkMessageRead)

		r.Get("/api/notifications", notifH.List)
		r.Post("/api/notifications", notifH.Create)
		r.Post("/api/notifications/read-all", notifH.MarkAllRead)
		r.Post("/api/notifications/{id}/read", notifH.MarkRead)
		r.Post("/api/notifications/{id}/unread", notifH.MarkUnread)
		r.Delete("/api/notifications/{id}", notifH.Delete)

		r.Get("/api/channels", channelH.List)
		r.Post("/api/channels", channelH.Create)
		r.Get("/api/channels/search", channelH.Search)
		r.Post("/api/channels/{id}/join", channelH.Join)
		r.Delete("/api/channels/{id}/join", channelH.Leave)

		r.Get("/api/settings", settingsH.List)
		r.Put("/api/settings/{id}", settingsH.Update)

		r.Post("/api/push/subscribe", pushH.Subscribe)
		r.Delete("/api/push/subscribe", pushH.Unsubscribe)

		r.Get("/ws", wsH.ServeWS)
	})
	return r
}

func splitOrigins(s string) []string {
	out := make([]string, 0, 2)
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
