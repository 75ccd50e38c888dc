// Package push — подписки браузеров на Web Push и доставка уведомлений через VAPID.
// Подписки хранятся в коллекции push_subscription того же хранилища записей.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/service"
)

const (
	fieldUserID   = "user_id"
	fieldEndpoint = "endpoint"
	fieldP256dh   = "p256dh"
	fieldAuth     = "auth"

	maxSubsPerUser = 10
	deliverTimeout = 10 * time.Second
)

var ErrInvalidSubscription = errors.New("push: subscription endpoint and keys required")

// Subscription — подписка из PushManager.subscribe() в браузере.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (s Subscription) valid() bool {
	return s.Endpoint != "" && s.Keys.P256dh != "" && s.Keys.Auth != ""
}

type sendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// Sender реализует доставку пушей получателю уведомления. Без VAPID-ключей подписки
// сохраняются, но отправка не выполняется.
// Записи подписок идут через service.Coordinator: отказы по полям логируются и
// возвращаются как *service.BatchError.
type Sender struct {
	gw    record.Gateway
	co    *service.Coordinator
	vapid *webpush.Options
	send  sendFunc
}

func NewSender(gw record.Gateway, keys *VAPIDKeys, subscriber string) *Sender {
	s := &Sender{gw: gw, co: service.NewCoordinator(gw), send: webpush.SendNotificationWithContext}
	if keys != nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		s.vapid = &webpush.Options{
			Subscriber:      subscriber,
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             30,
		}
	}
	return s
}

// Enabled — есть ли ключи для отправки.
func (s *Sender) Enabled() bool { return s.vapid != nil }

// PublicKey — VAPID-ключ для applicationServerKey на фронте.
func (s *Sender) PublicKey() string {
	if s.vapid == nil {
		return ""
	}
	return s.vapid.VAPIDPublicKey
}

type stored struct {
	id  int64
	sub Subscription
}

func (s *Sender) subscriptions(ctx context.Context, userID int64) ([]stored, error) {
	recs, err := s.gw.List(ctx, record.CollectionPushSubscription, record.Query{
		Where:   []record.Condition{record.Eq(fieldUserID, userID)},
		OrderBy: []record.Order{{Field: record.FieldID, Dir: record.Asc}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]stored, 0, len(recs))
	for _, r := range recs {
		var sub Subscription
		sub.Endpoint = r.String(fieldEndpoint)
		sub.Keys.P256dh = r.String(fieldP256dh)
		sub.Keys.Auth = r.String(fieldAuth)
		if sub.valid() {
			out = append(out, stored{id: r.ID(), sub: sub})
		}
	}
	return out, nil
}

// Subscribe сохраняет подписку; повтор того же endpoint ничего не пишет.
// У пользователя хранится не больше maxSubsPerUser подписок, старые удаляются.
func (s *Sender) Subscribe(ctx context.Context, userID int64, sub Subscription) error {
	if !sub.valid() || userID <= 0 {
		return ErrInvalidSubscription
	}
	existing, err := s.subscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("push.Subscribe: %w", err)
	}
	for _, e := range existing {
		if e.sub.Endpoint == sub.Endpoint {
			return nil
		}
	}
	rec := record.Record{
		"Name":        sub.Endpoint,
		fieldUserID:   userID,
		fieldEndpoint: sub.Endpoint,
		fieldP256dh:   sub.Keys.P256dh,
		fieldAuth:     sub.Keys.Auth,
	}
	if _, err := s.co.Create(ctx, record.CollectionPushSubscription, rec); err != nil {
		return fmt.Errorf("push.Subscribe: %w", err)
	}
	if extra := len(existing) + 1 - maxSubsPerUser; extra > 0 {
		ids := make([]int64, 0, extra)
		for _, e := range existing[:extra] {
			ids = append(ids, e.id)
		}
		s.remove(ctx, ids...)
	}
	return nil
}

// Unsubscribe удаляет подписку пользователя по endpoint.
func (s *Sender) Unsubscribe(ctx context.Context, userID int64, endpoint string) error {
	existing, err := s.subscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("push.Unsubscribe: %w", err)
	}
	for _, e := range existing {
		if e.sub.Endpoint == endpoint {
			if err := s.co.Delete(ctx, record.CollectionPushSubscription, e.id); err != nil {
				return fmt.Errorf("push.Unsubscribe: %w", err)
			}
			return nil
		}
	}
	return nil
}

func (s *Sender) remove(ctx context.Context, ids ...int64) {
	if err := s.co.Delete(ctx, record.CollectionPushSubscription, ids...); err != nil {
		logger.Warnf("push: remove subscriptions %v: %v", ids, err)
	}
}

// Notify отправляет пуш в фоне, не задерживая запрос, создавший уведомление.
func (s *Sender) Notify(ctx context.Context, userID int64, title, body string, data map[string]string) {
	if s.vapid == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
		defer cancel()
		if _, err := s.Deliver(ctx, userID, title, body, data); err != nil {
			logger.Warnf("push: deliver to user %d: %v", userID, err)
		}
	}()
}

// Deliver синхронно отправляет пуш на все подписки пользователя и возвращает число доставленных.
// Подписки с ответом 404/410 удаляются.
func (s *Sender) Deliver(ctx context.Context, userID int64, title, body string, data map[string]string) (int, error) {
	defer logger.DeferLogDuration("push.Deliver user "+strconv.FormatInt(userID, 10), time.Now())()
	if s.vapid == nil {
		return 0, nil
	}
	subs, err := s.subscriptions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("push.Deliver: %w", err)
	}
	payload, err := json.Marshal(map[string]any{"title": title, "body": body, "data": data})
	if err != nil {
		return 0, fmt.Errorf("push.Deliver: %w", err)
	}
	sent := 0
	var gone []int64
	for _, st := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: st.sub.Endpoint,
			Keys:     webpush.Keys{P256dh: st.sub.Keys.P256dh, Auth: st.sub.Keys.Auth},
		}
		resp, err := s.send(ctx, payload, wpSub, s.vapid)
		if err != nil {
			logger.Errorf("push: send %s: %v", st.sub.Endpoint[:min(50, len(st.sub.Endpoint))], err)
			continue
		}
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			gone = append(gone, st.id)
		case resp.StatusCode < 300:
			sent++
		default:
			logger.Warnf("push: endpoint answered %d", resp.StatusCode)
		}
	}
	if len(gone) > 0 {
		s.remove(ctx, gone...)
	}
	return sent, nil
}
