package storage

import (
	"context"
	"time"
)

// Cache — хранилище байтовых значений с TTL для кэша записей.
// Реализации: redis.Client, memory.Client (для -memory/-dev без Redis).
type Cache interface {
	// Get возвращает ok=false, если ключа нет или срок истёк.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
