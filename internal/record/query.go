package record

// Field — элемент проекции. Для ссылочного поля хранилище подставляет
// {"Id": n, RefField: значение} из коллекции RefCollection.
type Field struct {
	Name          string `json:"name"`
	RefCollection string `json:"refCollection,omitempty"`
	RefField      string `json:"refField,omitempty"`
}

// Fields строит проекцию из простых имён полей.
func Fields(names ...string) []Field {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		out = append(out, Field{Name: n})
	}
	return out
}

type Operator string

const (
	EqualTo Operator = "EqualTo"
	// Contains — подстрока без учёта регистра; для списков достаточно совпадения в любом элементе.
	Contains Operator = "Contains"
)

type Condition struct {
	Field    string   `json:"fieldName"`
	Operator Operator `json:"operator"`
	Values   []any    `json:"values"`
}

// Eq — условие равенства одному значению.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: EqualTo, Values: []any{value}}
}

// Like — условие "содержит" для одной подстроки.
func Like(field, substr string) Condition {
	return Condition{Field: field, Operator: Contains, Values: []any{substr}}
}

type GroupOperator string

const (
	And GroupOperator = "AND"
	Or  GroupOperator = "OR"
)

// Group объединяет подгруппы оператором; внутри подгруппы условия связаны через AND.
type Group struct {
	Operator  GroupOperator `json:"operator"`
	SubGroups [][]Condition `json:"subGroups"`
}

// AnyOf — группа OR, в которой каждое условие — отдельная подгруппа.
func AnyOf(conds ...Condition) Group {
	g := Group{Operator: Or, SubGroups: make([][]Condition, 0, len(conds))}
	for _, c := range conds {
		g.SubGroups = append(g.SubGroups, []Condition{c})
	}
	return g
}

type SortDir string

const (
	Asc  SortDir = "ASC"
	Desc SortDir = "DESC"
)

type Order struct {
	Field string  `json:"fieldName"`
	Dir   SortDir `json:"sorttype"`
}

type Paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query — параметры чтения коллекции. Условия Where связаны через AND,
// группы WhereGroups — тоже через AND между собой.
type Query struct {
	Fields      []Field
	Where       []Condition
	WhereGroups []Group
	OrderBy     []Order
	Paging      *Paging
}
