package pgstore

import (
	"fmt"
	"strings"

	"github.com/miamiwave/internal/record"
)

// builder накапливает текст запроса и позиционные параметры ($1, $2, ...).
type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) write(s string) { b.sb.WriteString(s) }

// buildSelect строит SELECT по коллекции: WHERE (AND), группы (OR/AND), ORDER BY с
// дополнительной сортировкой по id для стабильности, LIMIT/OFFSET.
func buildSelect(collection string, q record.Query) (string, []any) {
	b := &builder{}
	b.write("SELECT id, data FROM records WHERE collection = ")
	b.write(b.arg(collection))
	for _, c := range q.Where {
		b.write(" AND ")
		b.condition(c)
	}
	for _, g := range q.WhereGroups {
		if len(g.SubGroups) == 0 {
			continue
		}
		b.write(" AND ")
		b.group(g)
	}
	b.write(" ORDER BY ")
	for _, o := range q.OrderBy {
		b.order(o)
	}
	b.write("id ASC")
	if q.Paging != nil {
		if q.Paging.Limit > 0 {
			b.write(" LIMIT " + b.arg(q.Paging.Limit))
		}
		if q.Paging.Offset > 0 {
			b.write(" OFFSET " + b.arg(q.Paging.Offset))
		}
	}
	return b.sb.String(), b.args
}

// timestampPattern — строки, которые сортируются как время, а не как текст
// (у RFC3339 переменная длина дробной части).
const timestampPattern = `^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`

// order: Id — колонка таблицы; значения вида времени сравниваются как timestamptz,
// остальное — как jsonb (числа численно, строки лексикографически).
func (b *builder) order(o record.Order) {
	dir, nulls := "ASC", " NULLS FIRST"
	if o.Dir == record.Desc {
		dir, nulls = "DESC", " NULLS LAST"
	}
	if o.Field == record.FieldID {
		b.write("id " + dir + ", ")
		return
	}
	field := b.arg(o.Field) + "::text"
	b.write("CASE WHEN (data->>" + field + ") ~ '" + timestampPattern + "' THEN (data->>" + field + ")::timestamptz END " + dir + nulls + ", ")
	b.write("data->" + field + " " + dir + nulls + ", ")
}

func (b *builder) group(g record.Group) {
	joiner := " AND "
	if g.Operator == record.Or {
		joiner = " OR "
	}
	b.write("(")
	for i, sub := range g.SubGroups {
		if i > 0 {
			b.write(joiner)
		}
		if len(sub) == 0 {
			b.write("TRUE")
			continue
		}
		b.write("(")
		for j, c := range sub {
			if j > 0 {
				b.write(" AND ")
			}
			b.condition(c)
		}
		b.write(")")
	}
	b.write(")")
}

// condition: совпадение с любым из значений. EqualTo сравнивает текстовое представление,
// отсутствующее bool-поле считается false. Contains — ILIKE по подстроке.
func (b *builder) condition(c record.Condition) {
	if len(c.Values) == 0 {
		b.write("FALSE")
		return
	}
	b.write("(")
	for i, v := range c.Values {
		if i > 0 {
			b.write(" OR ")
		}
		field := b.arg(c.Field) + "::text"
		switch c.Operator {
		case record.Contains:
			b.write("COALESCE(data->>" + field + ", '') ILIKE " + b.arg("%"+escapeLike(record.AsString(v))+"%"))
		default:
			if bv, ok := v.(bool); ok {
				b.write("COALESCE(data->>" + field + ", 'false') = " + b.arg(fmt.Sprint(bv)))
				continue
			}
			b.write("data->>" + field + " = " + b.arg(record.AsString(v)))
		}
	}
	b.write(")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
