// Package mapper переводит записи хранилища в модели представления и обратно.
// Для каждой коллекции задана таблица схемы: имя в хранилище, имя в домене, значение по умолчанию.
// Все функции Map* чистые и тотальные: отсутствующие поля получают значения по умолчанию.
package mapper

import (
	"strconv"
	"strings"
	"time"

	"github.com/miamiwave/internal/logger"
	"github.com/miamiwave/internal/record"
)

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindList
	KindTime
	KindRef
)

// Column — строка таблицы схемы.
type Column struct {
	Storage string
	Domain  string
	Kind    Kind
	Default any
	// RefCollection/RefField — для KindRef: хранилище подставляет {"Id", RefField}.
	RefCollection string
	RefField      string
}

type Schema struct {
	Collection string
	Columns    []Column
}

// Fields — проекция по всем колонкам схемы.
func (s Schema) Fields() []record.Field {
	out := make([]record.Field, 0, len(s.Columns))
	for _, c := range s.Columns {
		out = append(out, record.Field{Name: c.Storage, RefCollection: c.RefCollection, RefField: c.RefField})
	}
	return out
}

// Validate сообщает доменные имена полей, значения которых не приводятся к типу колонки.
// Такие поля при маппинге получают значение по умолчанию.
func (s Schema) Validate(rec record.Record) []string {
	var bad []string
	for _, c := range s.Columns {
		v, ok := rec[c.Storage]
		if !ok || v == nil {
			continue
		}
		if !conforms(c.Kind, v) {
			bad = append(bad, c.Domain)
		}
	}
	return bad
}

// reportMistyped получает поля записи с неверным типом до подстановки значений по умолчанию.
var reportMistyped = func(collection string, id int64, fields []string) {
	logger.Debugf("%s #%d: mistyped fields %v, using defaults", collection, id, fields)
}

// check вызывается в начале каждого маппинга записи.
func (s Schema) check(rec record.Record) {
	if bad := s.Validate(rec); len(bad) > 0 {
		reportMistyped(s.Collection, rec.ID(), bad)
	}
}

func conforms(k Kind, v any) bool {
	switch k {
	case KindInt:
		switch n := record.Normalize(v).(type) {
		case int64, float64:
			return true
		case string:
			return n == "" || record.AsInt(n) != 0 || n == "0"
		}
		return false
	case KindBool:
		switch b := record.Normalize(v).(type) {
		case bool, int64, float64:
			return true
		case string:
			_, err := strconv.ParseBool(strings.TrimSpace(b))
			return b == "" || err == nil
		}
		return false
	case KindTime:
		s, ok := v.(string)
		return ok && (s == "" || !record.Record{"t": s}.Time("t").IsZero())
	default:
		return true
	}
}

func (s Schema) byStorage(name string) Column {
	for _, c := range s.Columns {
		if c.Storage == name {
			return c
		}
	}
	return Column{Storage: name}
}

// str — строковое поле; пустое значение заменяется значением по умолчанию.
func (s Schema) str(rec record.Record, name string) string {
	if v := rec.String(name); v != "" {
		return v
	}
	d, _ := s.byStorage(name).Default.(string)
	return d
}

func (s Schema) integer(rec record.Record, name string) int {
	if v, ok := rec[name]; ok && v != nil && conforms(KindInt, v) {
		return int(rec.Int(name))
	}
	d, _ := s.byStorage(name).Default.(int)
	return d
}

func (s Schema) boolean(rec record.Record, name string) bool {
	if v, ok := rec[name]; ok && v != nil && conforms(KindBool, v) {
		return rec.Bool(name)
	}
	d, _ := s.byStorage(name).Default.(bool)
	return d
}

func (s Schema) timestamp(rec record.Record, name string) time.Time { return rec.Time(name) }
