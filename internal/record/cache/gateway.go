// Package cache — read-through кэш GetByID поверх любого record.Gateway.
// Кэшируется полная запись; проекция из простых полей строится локально,
// запросы со ссылочными полями и record.Fresh идут мимо кэша. List не кэшируется.
//
// Заполнение после промаха не кладёт в кэш запись, если за время чтения ключ был
// вытеснен записью через этот же Gateway.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
	"github.com/miamiwave/internal/storage"
)

// fill — чтения ключа, идущие в хранилище после промаха.
type fill struct {
	readers int
	stale   bool
}

type Gateway struct {
	next  record.Gateway
	store storage.Cache
	ttl   time.Duration

	// mu упорядочивает Set после промаха и вытеснение при записи.
	mu    sync.Mutex
	fills map[string]*fill
}

func New(next record.Gateway, store storage.Cache, ttl time.Duration) *Gateway {
	return &Gateway{next: next, store: store, ttl: ttl, fills: make(map[string]*fill)}
}

func key(collection string, id int64) string {
	return "record:" + collection + ":" + strconv.FormatInt(id, 10)
}

func (g *Gateway) List(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	return g.next.List(ctx, collection, q)
}

func (g *Gateway) GetByID(ctx context.Context, collection string, id int64, fields []record.Field) (record.Record, error) {
	if hasRefs(fields) || record.IsFresh(ctx) {
		return g.next.GetByID(ctx, collection, id, fields)
	}
	k := key(collection, id)
	raw, ok, err := g.store.Get(ctx, k)
	if err != nil {
		logger.Warnf("cache get %s: %v", k, err)
	}
	if ok {
		var rec record.Record
		if err := decode(raw, &rec); err == nil {
			return project(rec, fields), nil
		}
		logger.Warnf("cache decode %s: %v", k, err)
	}
	f := g.beginFill(k)
	rec, err := g.next.GetByID(ctx, collection, id, nil)
	g.endFill(ctx, k, f, rec, err)
	if err != nil {
		return nil, err
	}
	return project(rec, fields), nil
}

func (g *Gateway) beginFill(k string) *fill {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.fills[k]
	if !ok {
		f = &fill{}
		g.fills[k] = f
	}
	f.readers++
	return f
}

// endFill кладёт прочитанную запись в кэш, если ключ не вытеснялся во время чтения.
func (g *Gateway) endFill(ctx context.Context, k string, f *fill, rec record.Record, readErr error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f.readers--
	if f.readers == 0 {
		delete(g.fills, k)
	}
	if readErr != nil || f.stale {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := g.store.Set(ctx, k, raw, g.ttl); err != nil {
		logger.Warnf("cache set %s: %v", k, err)
	}
}

// Write пропускает запись дальше и вытесняет из кэша каждую затронутую запись.
// Вытесняются все id пакета, а не только успешные: состояние неуспешной записи неизвестно.
func (g *Gateway) Write(ctx context.Context, collection string, kind record.WriteKind, recs []record.Record) ([]record.Outcome, error) {
	out, err := g.next.Write(ctx, collection, kind, recs)
	if kind == record.Create {
		return out, err
	}
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		if id := r.ID(); id > 0 {
			keys = append(keys, key(collection, id))
		}
	}
	g.mu.Lock()
	for _, k := range keys {
		if f, ok := g.fills[k]; ok {
			f.stale = true
		}
	}
	if delErr := g.store.Delete(ctx, keys...); delErr != nil {
		logger.Warnf("cache evict %s: %v", collection, delErr)
	}
	g.mu.Unlock()
	return out, err
}

func hasRefs(fields []record.Field) bool {
	for _, f := range fields {
		if f.RefCollection != "" {
			return true
		}
	}
	return false
}

func project(rec record.Record, fields []record.Field) record.Record {
	if len(fields) == 0 {
		return rec
	}
	out := record.Record{record.FieldID: rec[record.FieldID]}
	for _, f := range fields {
		if v, ok := rec[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func decode(raw []byte, into *record.Record) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(into)
}
