// Package memory — хранилище записей в памяти процесса для режима -memory и тестов.
// Поведение совпадает с удалённым хранилищем: автоинкремент id, CreatedOn, фильтры,
// стабильная сортировка, пейджинг, разрешение ссылок и пер-записные результаты записи.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miamiwave/internal/record"
)

type collection struct {
	rows   map[int64]record.Record
	order  []int64
	nextID int64
}

type Store struct {
	mu   sync.RWMutex
	cols map[string]*collection
	now  func() time.Time
}

func New() *Store {
	return &Store{cols: make(map[string]*collection), now: time.Now}
}

// SetClock подменяет источник времени для CreatedOn (тесты).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) col(name string) *collection {
	c, ok := s.cols[name]
	if !ok {
		c = &collection{rows: make(map[int64]record.Record), nextID: 1}
		s.cols[name] = c
	}
	return c
}

// Seed вставляет записи как есть; заданный Id сохраняется, иначе назначается следующий.
func (s *Store) Seed(name string, recs ...record.Record) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.col(name)
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		rec := r.Clone()
		id := rec.ID()
		if id <= 0 {
			id = c.nextID
		}
		if id >= c.nextID {
			c.nextID = id + 1
		}
		rec[record.FieldID] = id
		if _, exists := c.rows[id]; !exists {
			c.order = append(c.order, id)
		}
		c.rows[id] = rec
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) List(ctx context.Context, name string, q record.Query) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, record.TransportError("list", name, "", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, 0)
	c, ok := s.cols[name]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		rec := c.rows[id]
		if matches(rec, q) {
			out = append(out, rec)
		}
	}
	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				cmp := compare(out[i][o.Field], out[j][o.Field])
				if cmp == 0 {
					continue
				}
				if o.Dir == record.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	if q.Paging != nil {
		out = page(out, *q.Paging)
	}
	for i, rec := range out {
		out[i] = s.project(rec, q.Fields)
	}
	return out, nil
}

func page(recs []record.Record, p record.Paging) []record.Record {
	if p.Offset > 0 {
		if p.Offset >= len(recs) {
			return recs[:0]
		}
		recs = recs[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(recs) {
		recs = recs[:p.Limit]
	}
	return recs
}

func (s *Store) GetByID(ctx context.Context, name string, id int64, fields []record.Field) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, record.TransportError("get", name, "", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cols[name]
	if !ok {
		return nil, record.NotFound(name, id)
	}
	rec, ok := c.rows[id]
	if !ok {
		return nil, record.NotFound(name, id)
	}
	return s.project(rec, fields), nil
}

// project копирует запись с учётом проекции и разрешает ссылочные поля. Вызывается под RLock.
func (s *Store) project(rec record.Record, fields []record.Field) record.Record {
	if len(fields) == 0 {
		return rec.Clone()
	}
	out := record.Record{record.FieldID: rec[record.FieldID]}
	for _, f := range fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		if f.RefCollection == "" {
			out[f.Name] = v
			continue
		}
		refID := record.AsInt(v)
		ref := record.Record{record.FieldID: refID}
		if c, ok := s.cols[f.RefCollection]; ok {
			if target, ok := c.rows[refID]; ok {
				ref[f.RefField] = target[f.RefField]
			}
		}
		out[f.Name] = ref
	}
	return out
}

func (s *Store) Write(ctx context.Context, name string, kind record.WriteKind, recs []record.Record) ([]record.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, record.TransportError(kind.String(), name, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.col(name)
	outcomes := make([]record.Outcome, 0, len(recs))
	for _, r := range recs {
		switch kind {
		case record.Create:
			outcomes = append(outcomes, s.create(c, r))
		case record.Update:
			outcomes = append(outcomes, update(c, r))
		case record.Delete:
			outcomes = append(outcomes, remove(c, r))
		default:
			outcomes = append(outcomes, record.Outcome{Message: "unsupported write kind"})
		}
	}
	return outcomes, nil
}

func (s *Store) create(c *collection, r record.Record) record.Outcome {
	rec := r.Clone()
	if rec == nil {
		rec = record.Record{}
	}
	id := c.nextID
	c.nextID++
	rec[record.FieldID] = id
	if !rec.Has(record.FieldCreatedOn) {
		rec[record.FieldCreatedOn] = record.FormatTime(s.now())
	}
	c.rows[id] = rec
	c.order = append(c.order, id)
	return record.Outcome{Success: true, Record: rec.Clone()}
}

func update(c *collection, r record.Record) record.Outcome {
	id := r.ID()
	existing, ok := c.rows[id]
	if !ok {
		return record.Outcome{Message: "record not found", Errors: []record.FieldError{{FieldLabel: record.FieldID, Message: "no such record"}}}
	}
	for k, v := range r {
		if k == record.FieldID {
			continue
		}
		existing[k] = v
	}
	return record.Outcome{Success: true, Record: existing.Clone()}
}

func remove(c *collection, r record.Record) record.Outcome {
	id := r.ID()
	if _, ok := c.rows[id]; !ok {
		return record.Outcome{Message: "record not found"}
	}
	delete(c.rows, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return record.Outcome{Success: true, Record: record.Record{record.FieldID: id}}
}

func matches(rec record.Record, q record.Query) bool {
	for _, cond := range q.Where {
		if !matchCondition(rec, cond) {
			return false
		}
	}
	for _, g := range q.WhereGroups {
		if !matchGroup(rec, g) {
			return false
		}
	}
	return true
}

func matchGroup(rec record.Record, g record.Group) bool {
	if len(g.SubGroups) == 0 {
		return true
	}
	for _, sub := range g.SubGroups {
		ok := true
		for _, cond := range sub {
			if !matchCondition(rec, cond) {
				ok = false
				break
			}
		}
		if g.Operator == record.Or && ok {
			return true
		}
		if g.Operator != record.Or && !ok {
			return false
		}
	}
	return g.Operator != record.Or
}

// matchCondition: запись подходит, если подходит любое из значений условия.
func matchCondition(rec record.Record, cond record.Condition) bool {
	v := rec[cond.Field]
	for _, want := range cond.Values {
		switch cond.Operator {
		case record.EqualTo:
			if equal(v, want) {
				return true
			}
		case record.Contains:
			needle := strings.ToLower(record.AsString(want))
			if strings.Contains(strings.ToLower(record.AsString(v)), needle) {
				return true
			}
		}
	}
	return false
}

func equal(v, want any) bool {
	switch w := record.Normalize(want).(type) {
	case bool:
		return record.AsBool(v) == w
	case int64:
		return v != nil && record.AsInt(v) == w
	case float64:
		return v != nil && float64(record.AsInt(v)) == w
	default:
		return record.AsString(v) == record.AsString(w)
	}
}

// compare упорядочивает числа численно, остальное — как строки; отсутствующее значение меньше любого.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	na, aNum := number(a)
	nb, bNum := number(b)
	if aNum && bNum {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	ta, tb := record.Record{"v": a}.Time("v"), record.Record{"v": b}.Time("v")
	if !ta.IsZero() && !tb.IsZero() {
		return ta.Compare(tb)
	}
	return strings.Compare(record.AsString(a), record.AsString(b))
}

func number(v any) (float64, bool) {
	switch n := record.Normalize(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
