// Package record описывает контракт шлюза к удалённому хранилищу записей:
// плоские записи ключ/значение, запросы с фильтрами и пер-записные результаты записи.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldID — ключ идентификатора записи во всех коллекциях.
const FieldID = "Id"

// FieldCreatedOn проставляется хранилищем при создании записи.
const FieldCreatedOn = "CreatedOn"

// Record — одна запись коллекции в том виде, в каком её вернуло хранилище.
// Значения слабо типизированы (строки, числа JSON, bool, вложенные ссылки).
type Record map[string]any

func (r Record) ID() int64 { return r.Int(FieldID) }

// Has сообщает, присутствует ли поле (даже с пустым значением).
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r Record) String(key string) string { return toString(r[key]) }

func (r Record) Int(key string) int64 { return toInt(r[key]) }

func (r Record) Bool(key string) bool { return toBool(r[key]) }

// Time разбирает RFC3339 (и пару упрощённых форматов). Нераспознанное значение — нулевое время.
func (r Record) Time(key string) time.Time { return toTime(r[key]) }

// List разбирает псевдо-коллекцию, хранящуюся строкой через запятую.
func (r Record) List(key string) []string { return ParseList(r[key]) }

// Ref возвращает id и значение поля для ссылочного поля, разрешённого хранилищем
// в {"Id": n, field: v}. Неразрешённая ссылка (просто число) даёт только id.
func (r Record) Ref(key, field string) (int64, string) {
	switch v := r[key].(type) {
	case Record:
		return v.ID(), v.String(field)
	case map[string]any:
		ref := Record(v)
		return ref.ID(), ref.String(field)
	case nil:
		return 0, ""
	default:
		return toInt(v), ""
	}
}

// Clone делает неглубокую копию; вложенные ссылки копируются отдельно.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		switch ref := v.(type) {
		case map[string]any:
			c[k] = Record(ref).Clone()
		case Record:
			c[k] = ref.Clone()
		default:
			c[k] = v
		}
	}
	return c
}

// ParseList превращает "a, b,,c" в ["a","b","c"]: токены обрезаются, пустые отбрасываются.
// Пустое или отсутствующее значение даёт пустой срез, не nil.
func ParseList(v any) []string {
	out := make([]string, 0)
	switch list := v.(type) {
	case nil:
		return out
	case string:
		for _, tok := range strings.Split(list, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	case []string:
		for _, tok := range list {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	case []any:
		for _, item := range list {
			if tok := strings.TrimSpace(toString(item)); tok != "" {
				out = append(out, tok)
			}
		}
	default:
		return ParseList(toString(v))
	}
	return out
}

// JoinList — обратная к ParseList операция для записи в хранилище.
func JoinList(tokens []string) string {
	return strings.Join(tokens, ",")
}

// HasToken сообщает, есть ли token в списке.
func HasToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return FormatTime(s)
	case []any, []string:
		return JoinList(ParseList(s))
	default:
		return fmt.Sprint(s)
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case nil:
		return false
	default:
		return toInt(b) != 0
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// TimeLayout — RFC3339 с фиксированной шириной дробной части: строки сравниваются как время.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime — формат отметок времени в хранилище.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Normalize приводит значение к форме, в которой его можно сравнивать между драйверами:
// числа — int64/float64, всё прочее — как есть.
func Normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return v
}

// AsString экспортирует приведение к строке для драйверов хранилища.
func AsString(v any) string { return toString(v) }

// AsBool экспортирует приведение к bool для драйверов хранилища.
func AsBool(v any) bool { return toBool(v) }

// AsInt экспортирует приведение к целому для драйверов хранилища.
func AsInt(v any) int64 { return toInt(v) }
