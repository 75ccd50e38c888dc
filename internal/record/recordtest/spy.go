// Package recordtest — обёртки над record.Gateway для тестов: счётчики вызовов,
// внедрение сбоев транспорта и отказ отдельных записей пакета.
package recordtest

import (
	"context"
	"sync"

	"github.com/miamiwave/internal/record"
)

// Операции для счётчиков и внедрения сбоев.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Any — подстановка "любая коллекция".
const Any = "*"

type rejection struct {
	collection string
	match      func(record.Record) bool
	fieldErr   record.FieldError
}

// Spy пропускает вызовы к вложенному шлюзу и считает их.
type Spy struct {
	gw record.Gateway

	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	rejects []rejection
}

func NewSpy(gw record.Gateway) *Spy {
	return &Spy{gw: gw, calls: make(map[string]int), fail: make(map[string]error)}
}

func key(op, collection string) string { return op + ":" + collection }

// FailOn заставляет операцию над коллекцией (или Any) вернуть err.
func (s *Spy) FailOn(op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[key(op, collection)] = err
}

// Reject отклоняет записи пакета, для которых match вернул true, с ошибкой поля fe.
func (s *Spy) Reject(collection string, match func(record.Record) bool, fe record.FieldError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects = append(s.rejects, rejection{collection: collection, match: match, fieldErr: fe})
}

// Calls — число вызовов операции над коллекцией.
func (s *Spy) Calls(op, collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collection == Any {
		n := 0
		for k, v := range s.calls {
			if len(k) > len(op) && k[:len(op)+1] == op+":" {
				n += v
			}
		}
		return n
	}
	return s.calls[key(op, collection)]
}

// Writes — общее число вызовов Write (любого вида) для коллекции.
func (s *Spy) Writes(collection string) int {
	return s.Calls(OpCreate, collection) + s.Calls(OpUpdate, collection) + s.Calls(OpDelete, collection)
}

// Reset обнуляет счётчики, оставляя внедрённые сбои.
func (s *Spy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

func (s *Spy) enter(op, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key(op, collection)]++
	if err, ok := s.fail[key(op, collection)]; ok {
		return err
	}
	if err, ok := s.fail[key(op, Any)]; ok {
		return err
	}
	return nil
}

func (s *Spy) List(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	if err := s.enter(OpList, collection); err != nil {
		return nil, err
	}
	return s.gw.List(ctx, collection, q)
}

func (s *Spy) GetByID(ctx context.Context, collection string, id int64, fields []record.Field) (record.Record, error) {
	if err := s.enter(OpGet, collection); err != nil {
		return nil, err
	}
	return s.gw.GetByID(ctx, collection, id, fields)
}

func (s *Spy) Write(ctx context.Context, collection string, kind record.WriteKind, recs []record.Record) ([]record.Outcome, error) {
	if err := s.enter(kind.String(), collection); err != nil {
		return nil, err
	}
	rejected := s.rejected(collection, recs)
	if len(rejected) == 0 {
		return s.gw.Write(ctx, collection, kind, recs)
	}
	passed := make([]record.Record, 0, len(recs))
	for i, r := range recs {
		if _, ok := rejected[i]; !ok {
			passed = append(passed, r)
		}
	}
	var inner []record.Outcome
	if len(passed) > 0 {
		var err error
		if inner, err = s.gw.Write(ctx, collection, kind, passed); err != nil {
			return nil, err
		}
	}
	out := make([]record.Outcome, 0, len(recs))
	next := 0
	for i := range recs {
		if fe, ok := rejected[i]; ok {
			out = append(out, record.Outcome{Errors: []record.FieldError{fe}, Message: "validation failed"})
			continue
		}
		out = append(out, inner[next])
		next++
	}
	return out, nil
}

func (s *Spy) rejected(collection string, recs []record.Record) map[int]record.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out map[int]record.FieldError
	for i, r := range recs {
		for _, rj := range s.rejects {
			if (rj.collection == collection || rj.collection == Any) && rj.match(r) {
				if out == nil {
					out = make(map[int]record.FieldError)
				}
				out[i] = rj.fieldErr
				break
			}
		}
	}
	return out
}
