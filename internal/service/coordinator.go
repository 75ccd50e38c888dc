package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
)

var (
	// ErrWriteFailed — ни одна запись пакета не сохранилась.
	ErrWriteFailed  = errors.New("write failed")
	ErrInvalidInput = errors.New("invalid input")
)

// Failure — отказ одной записи пакета.
type Failure struct {
	Index   int                 `json:"index"`
	ID      int64               `json:"id,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  []record.FieldError `json:"errors,omitempty"`
}

// BatchError перечисляет все отказы пакета, в котором не прошла ни одна запись.
type BatchError struct {
	Collection string
	Kind       record.WriteKind
	Failures   []Failure
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if len(f.Errors) == 0 {
			parts = append(parts, fmt.Sprintf("#%d: %s", f.Index, f.Message))
			continue
		}
		for _, fe := range f.Errors {
			parts = append(parts, fmt.Sprintf("#%d %s: %s", f.Index, fe.FieldLabel, fe.Message))
		}
	}
	return fmt.Sprintf("%s %s: %v: %s", e.Kind, e.Collection, ErrWriteFailed, strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() error { return ErrWriteFailed }

// Coordinator отправляет записи через шлюз и сводит пер-записные результаты:
// успех, если прошла хотя бы одна запись; каждая ошибка поля логируется отдельно.
type Coordinator struct {
	gw record.Gateway
}

func NewCoordinator(gw record.Gateway) *Coordinator {
	return &Coordinator{gw: gw}
}

// submit возвращает успешно записанные записи в порядке входа.
func (c *Coordinator) submit(ctx context.Context, collection string, kind record.WriteKind, recs []record.Record) ([]record.Record, error) {
	if len(recs) == 0 {
		return []record.Record{}, nil
	}
	defer logger.DeferLogDuration("coordinator."+kind.String()+" "+collection, time.Now())()
	outcomes, err := c.gw.Write(ctx, collection, kind, recs)
	if err != nil {
		return nil, err
	}
	ok := make([]record.Record, 0, len(outcomes))
	var failures []Failure
	for i, o := range outcomes {
		if o.Success {
			ok = append(ok, o.Record)
			continue
		}
		f := Failure{Index: i, Message: o.Message, Errors: o.Errors}
		if i < len(recs) {
			f.ID = recs[i].ID()
		}
		failures = append(failures, f)
		if len(o.Errors) == 0 {
			logger.Errorf("%s %s record #%d failed: %s", kind, collection, i, o.Message)
		}
		for _, fe := range o.Errors {
			logger.Errorf("%s %s record #%d field %s: %s", kind, collection, i, fe.FieldLabel, fe.Message)
		}
	}
	if len(ok) == 0 {
		return nil, &BatchError{Collection: collection, Kind: kind, Failures: failures}
	}
	if len(failures) > 0 {
		logger.Warnf("%s %s: %d of %d records failed", kind, collection, len(failures), len(recs))
	}
	return ok, nil
}

func (c *Coordinator) Create(ctx context.Context, collection string, rec record.Record) (record.Record, error) {
	out, err := c.submit(ctx, collection, record.Create, []record.Record{rec})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Update записывает только поля patch (частичное обновление) для записи id.
func (c *Coordinator) Update(ctx context.Context, collection string, id int64, patch record.Record) (record.Record, error) {
	rec := patch.Clone()
	if rec == nil {
		rec = record.Record{}
	}
	rec[record.FieldID] = id
	out, err := c.submit(ctx, collection, record.Update, []record.Record{rec})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// UpdateMany — один пакет частичных обновлений; у каждой записи должен быть Id.
func (c *Coordinator) UpdateMany(ctx context.Context, collection string, patches []record.Record) ([]record.Record, error) {
	for i, p := range patches {
		if p.ID() <= 0 {
			return nil, fmt.Errorf("update %s #%d without id: %w", collection, i, ErrInvalidInput)
		}
	}
	return c.submit(ctx, collection, record.Update, patches)
}

func (c *Coordinator) Delete(ctx context.Context, collection string, ids ...int64) error {
	recs := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, record.Record{record.FieldID: id})
	}
	_, err := c.submit(ctx, collection, record.Delete, recs)
	return err
}
