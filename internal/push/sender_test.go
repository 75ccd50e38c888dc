package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/record/memory"
	"github.com/miamiwave/internal/record/recordtest"
	"github.com/miamiwave/internal/service"
)

func sub(endpoint string) Subscription {
	var s Subscription
	s.Endpoint = endpoint
	s.Keys.P256dh = "p-" + endpoint
	s.Keys.Auth = "a-" + endpoint
	return s
}

type recorder struct {
	mu     sync.Mutex
	sent   []string
	status map[string]int
}

func (r *recorder) send(_ context.Context, payload []byte, s *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s.Endpoint)
	code, ok := r.status[s.Endpoint]
	if !ok {
		code = http.StatusCreated
	}
	if code == 0 {
		return nil, errors.New("dial failed")
	}
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func newSender(t *testing.T) (*Sender, *recordtest.Spy, *recorder) {
	t.Helper()
	spy := recordtest.NewSpy(memory.New())
	s := NewSender(spy, &VAPIDKeys{PublicKey: "pub", PrivateKey: "priv"}, "miamiwave")
	rec := &recorder{status: map[string]int{}}
	s.send = rec.send
	return s, spy, rec
}

func TestSubscribe_StoresOnceAndValidates(t *testing.T) {
	s, spy, _ := newSender(t)
	ctx := context.Background()

	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/a")))
	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/a")))
	assert.Equal(t, 1, spy.Calls(recordtest.OpCreate, record.CollectionPushSubscription))

	assert.ErrorIs(t, s.Subscribe(ctx, 7, Subscription{Endpoint: "x"}), ErrInvalidSubscription)
	assert.ErrorIs(t, s.Subscribe(ctx, 0, sub("https://push/b")), ErrInvalidSubscription)
}

func TestSubscribe_RejectedWriteReportsFieldErrors(t *testing.T) {
	s, spy, _ := newSender(t)
	spy.Reject(record.CollectionPushSubscription, func(record.Record) bool { return true },
		record.FieldError{FieldLabel: "endpoint", Message: "too long"})

	err := s.Subscribe(context.Background(), 7, sub("https://push/a"))
	require.ErrorIs(t, err, service.ErrWriteFailed)
	var batch *service.BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, "endpoint", batch.Failures[0].Errors[0].FieldLabel)
}

func TestSubscribe_KeepsNewestPerUser(t *testing.T) {
	s, _, _ := newSender(t)
	ctx := context.Background()
	for i := 0; i < maxSubsPerUser+2; i++ {
		require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/"+string(rune('a'+i)))))
	}
	subs, err := s.subscriptions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, subs, maxSubsPerUser)
	assert.Equal(t, "https://push/c", subs[0].sub.Endpoint)
}

func TestDeliver_SendsAndDropsExpired(t *testing.T) {
	s, _, rec := newSender(t)
	ctx := context.Background()
	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/live")))
	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/gone")))
	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/broken")))
	require.NoError(t, s.Subscribe(ctx, 8, sub("https://push/other")))
	rec.status["https://push/gone"] = http.StatusGone
	rec.status["https://push/broken"] = 0

	n, err := s.Deliver(ctx, 7, "New like", "ana liked your post", map[string]string{"type": "like"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"https://push/live", "https://push/gone", "https://push/broken"}, rec.sent)

	subs, err := s.subscriptions(ctx, 7)
	require.NoError(t, err)
	endpoints := make([]string, 0, len(subs))
	for _, st := range subs {
		endpoints = append(endpoints, st.sub.Endpoint)
	}
	assert.Equal(t, []string{"https://push/live", "https://push/broken"}, endpoints)
}

func TestDeliver_DisabledWithoutKeys(t *testing.T) {
	spy := recordtest.NewSpy(memory.New())
	s := NewSender(spy, nil, "")
	assert.False(t, s.Enabled())
	assert.Empty(t, s.PublicKey())

	n, err := s.Deliver(context.Background(), 7, "t", "b", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, spy.Calls(recordtest.OpList, recordtest.Any))
}

func TestDeliver_ListFailure(t *testing.T) {
	s, spy, _ := newSender(t)
	spy.FailOn(recordtest.OpList, record.CollectionPushSubscription, record.TransportError("list", record.CollectionPushSubscription, "down", nil))

	_, err := s.Deliver(context.Background(), 7, "t", "b", nil)
	assert.ErrorIs(t, err, record.ErrTransport)
}

func TestUnsubscribe(t *testing.T) {
	s, _, _ := newSender(t)
	ctx := context.Background()
	require.NoError(t, s.Subscribe(ctx, 7, sub("https://push/a")))
	require.NoError(t, s.Unsubscribe(ctx, 7, "https://push/a"))
	require.NoError(t, s.Unsubscribe(ctx, 7, "https://push/missing"))

	subs, err := s.subscriptions(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestResolveVAPIDKeys(t *testing.T) {
	keys, err := ResolveVAPIDKeys("pub", "priv", "")
	require.NoError(t, err)
	assert.Equal(t, "pub", keys.PublicKey)

	path := filepath.Join(t.TempDir(), "vapid.json")
	generated, err := ResolveVAPIDKeys("", "", path)
	require.NoError(t, err)
	require.NotEmpty(t, generated.PublicKey)

	again, err := ResolveVAPIDKeys("", "", path)
	require.NoError(t, err)
	assert.Equal(t, generated, again)
}
