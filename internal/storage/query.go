package storage

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/iudanet/tillsync/internal/models"
)

// Operator оператор сравнения в предикате select
type Operator string

const (
	OpEq   Operator = "="
	OpNeq  Operator = "!="
	OpGt   Operator = ">"
	OpGte  Operator = ">="
	OpLt   Operator = "<"
	OpLte  Operator = "<="
	OpIn   Operator = "in"
	OpLike Operator = "like"
	OpIs   Operator = "is"
)

// Filter один предикат: column op value
type Filter struct {
	Value  any      `json:"value"`
	Column string   `json:"column"`
	Op     Operator `json:"op"`
}

// Order ключ сортировки. Последующие ключи разрешают равенство предыдущих.
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// SelectOptions параметры select. Limit == 0 означает без ограничения.
type SelectOptions struct {
	Filters []Filter `json:"filters,omitempty"`
	OrderBy []Order  `json:"order_by,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Where добавляет предикат и возвращает options для цепочки вызовов
func (o *SelectOptions) Where(column string, op Operator, value any) *SelectOptions {
	o.Filters = append(o.Filters, Filter{Column: column, Op: op, Value: value})
	return o
}

// Sort добавляет ключ сортировки
func (o *SelectOptions) Sort(column string, desc bool) *SelectOptions {
	o.OrderBy = append(o.OrderBy, Order{Column: column, Desc: desc})
	return o
}

// Validate проверяет операторы и параметры пагинации
func (o *SelectOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.Offset < 0 || o.Limit < 0 {
		return fmt.Errorf("%w: offset and limit must be non-negative", ErrInvalidQuery)
	}
	for _, f := range o.Filters {
		if f.Column == "" {
			return fmt.Errorf("%w: filter column is empty", ErrInvalidQuery)
		}
		switch f.Op {
		case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike:
		case OpIn:
			if !isList(f.Value) {
				return fmt.Errorf("%w: operator in expects a list for column %s", ErrInvalidQuery, f.Column)
			}
		case OpIs:
			if f.Value != nil {
				if _, ok := f.Value.(bool); !ok {
					return fmt.Errorf("%w: operator is expects null or boolean for column %s", ErrInvalidQuery, f.Column)
				}
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
		}
	}
	for _, ord := range o.OrderBy {
		if ord.Column == "" {
			return fmt.Errorf("%w: order column is empty", ErrInvalidQuery)
		}
	}
	return nil
}

// ApplySelect фильтрует, сортирует и режет на страницы набор строк.
// Используется обоими бэкендами, чтобы семантика select совпадала.
func ApplySelect(rows []models.Record, opts *SelectOptions) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &SelectOptions{}
	}

	matched := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		ok, err := Matches(row, opts.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	if len(opts.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, ord := range opts.OrderBy {
				c := compareForSort(matched[i][ord.Column], matched[j][ord.Column])
				if c == 0 {
					continue
				}
				if ord.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	count := len(matched)
	if opts.Offset >= len(matched) {
		matched = matched[:0]
	} else {
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	return &Result{Data: matched, Count: count}, nil
}

// Matches проверяет строку на соответствие всем предикатам (AND)
func Matches(row models.Record, filters []Filter) (bool, error) {
	for _, f := range filters {
		ok, err := matchFilter(row, f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchFilter(row models.Record, f Filter) (bool, error) {
	v := row[f.Column]

	switch f.Op {
	case OpEq:
		return valuesEqual(v, f.Value), nil
	case OpNeq:
		return !valuesEqual(v, f.Value), nil
	case OpGt, OpGte, OpLt, OpLte:
		c, ok := compareValues(v, f.Value)
		if !ok {
			return false, nil
		}
		switch f.Op {
		case OpGt:
			return c > 0, nil
		case OpGte:
			return c >= 0, nil
		case OpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case OpIn:
		list := reflect.ValueOf(f.Value)
		if !isList(f.Value) {
			return false, fmt.Errorf("%w: operator in expects a list", ErrInvalidQuery)
		}
		for i := 0; i < list.Len(); i++ {
			if valuesEqual(v, list.Index(i).Interface()) {
				return true, nil
			}
		}
		return false, nil
	case OpLike:
		s, ok := v.(string)
		pattern, pok := f.Value.(string)
		if !ok || !pok {
			return false, nil
		}
		return likePattern(pattern).MatchString(s), nil
	case OpIs:
		if f.Value == nil {
			return v == nil, nil
		}
		want, ok := f.Value.(bool)
		if !ok {
			return false, fmt.Errorf("%w: operator is expects null or boolean", ErrInvalidQuery)
		}
		b, ok := v.(bool)
		return ok && b == want, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
	}
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// likePattern переводит SQL LIKE шаблон (% и _) в якорное регулярное выражение
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile("(?s)" + b.String())
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues сравнивает значения одного рода: числа, строки, bool.
// ok == false, если значения несравнимы.
func compareValues(a, b any) (int, bool) {
	if fa, ok := models.ToFloat64(a); ok {
		fb, ok := models.ToFloat64(b)
		if !ok {
			return 0, false
		}
		ia, aInt := models.ToInt64(a)
		ib, bInt := models.ToInt64(b)
		if aInt && bInt && float64(ia) == fa && float64(ib) == fb {
			return compareInt(ia, ib), true
		}
		return compareFloat(fa, fb), true
	}
	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// compareForSort задаёт полный порядок для сортировки: nil < bool < number < string < прочее
func compareForSort(a, b any) int {
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return compareInt(int64(typeRank(a)), int64(typeRank(b)))
}

func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := models.ToFloat64(v); ok {
		return 2
	}
	if _, ok := v.(string); ok {
		return 3
	}
	return 4
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
