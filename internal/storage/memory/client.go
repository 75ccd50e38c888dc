package memory

import (
	"context"
	"sync"
	"time"
)

type item struct {
	val []byte
	exp time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.exp.IsZero() && now.After(i.exp)
}

type Client struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

func New() *Client {
	return &Client{items: make(map[string]item), now: time.Now}
}

// SetClock подменяет источник времени (тесты истечения TTL).
func (c *Client) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Client) Close() error { return nil }

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok || v.expired(c.now()) {
		return nil, false, nil
	}
	out := make([]byte, len(v.val))
	copy(out, v.val)
	return out, true, nil
}

func (c *Client) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := item{val: append([]byte(nil), val...)}
	if ttl > 0 {
		it.exp = c.now().Add(ttl)
	}
	c.items[key] = it
	c.sweep()
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// Len — число живых ключей.
func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	now := c.now()
	for _, v := range c.items {
		if !v.expired(now) {
			n++
		}
	}
	return n
}

// sweep удаляет просроченные ключи, когда их набирается много. Вызывается под Lock.
func (c *Client) sweep() {
	if len(c.items) < 1024 {
		return
	}
	now := c.now()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}
