package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record/memory"
	"github.com/miamiwave/internal/record/recordtest"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	spy   *recordtest.Spy
	svc   *Services
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.New()
	store.SetClock(func() time.Time { return testNow })
	spy := recordtest.NewSpy(store)
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return &fixture{store: store, spy: spy, svc: New(spy, opts...)}
}

var viewer = model.Viewer{ID: "1", Username: "ana", DisplayName: "Ana"}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) MessageCreated(ctx context.Context, msg model.Message) {
	m.Called(ctx, msg)
}

func (m *mockBroadcaster) MessagesRead(ctx context.Context, chatID int64, userID string) {
	m.Called(ctx, chatID, userID)
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) Notify(ctx context.Context, userID int64, title, body string, data map[string]string) {
	m.Called(ctx, userID, title, body, data)
}

func strPtr(s string) *string { return &s }
