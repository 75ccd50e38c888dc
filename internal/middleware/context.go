package middleware

import (
	"context"

	"github.com/miamiwave/internal/model"
)

type contextKey string

const viewerKey contextKey = "viewer"

func WithViewer(ctx context.Context, v model.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// GetViewer возвращает зрителя запроса (устанавливается Viewer); без заголовков — анонимный.
func GetViewer(ctx context.Context) model.Viewer {
	v, _ := ctx.Value(viewerKey).(model.Viewer)
	return v
}

func GetUserID(ctx context.Context) string {
	return GetViewer(ctx).ID
}
