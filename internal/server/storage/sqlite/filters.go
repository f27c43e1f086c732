package sqlite

import (
	"math"
	"regexp"
	"strings"

	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// columnPattern колонки, которые можно адресовать JSON path без экранирования
var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// maxExactFloat граница, в которой int64 и float64 сравниваются одинаково
const maxExactFloat = 1 << 53

// pushdownWhere переводит предикаты в условия на json_extract(data, path).
// Условие должно пропускать надмножество строк, которые примет storage.Matches:
// окончательная фильтрация, сортировка и пагинация выполняются в ApplySelect.
// Предикаты, для которых SQL семантика не совпадает (!=, bool, нестандартные
// колонки), в SQL не попадают.
func pushdownWhere(filters []storage.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	for _, f := range filters {
		if !columnPattern.MatchString(f.Column) {
			continue
		}
		path := "$." + f.Column

		switch f.Op {
		case storage.OpEq:
			if f.Value == nil {
				clauses = append(clauses, "json_extract(data, ?) IS NULL")
				args = append(args, path)
				continue
			}
			v, ok := sqlScalar(f.Value)
			if !ok {
				continue
			}
			clauses = append(clauses, "json_extract(data, ?) = ?")
			args = append(args, path, v)

		case storage.OpGt, storage.OpGte, storage.OpLt, storage.OpLte:
			v, ok := sqlScalar(f.Value)
			if !ok {
				continue
			}
			clauses = append(clauses, "json_extract(data, ?) "+string(f.Op)+" ?")
			args = append(args, path, v)

		case storage.OpIn:
			list, ok := f.Value.([]any)
			if !ok || len(list) == 0 {
				continue
			}
			values := make([]any, 0, len(list))
			for _, item := range list {
				v, ok := sqlScalar(item)
				if !ok {
					break
				}
				values = append(values, v)
			}
			if len(values) != len(list) {
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			clauses = append(clauses, "json_extract(data, ?) IN ("+placeholders+")")
			args = append(args, path)
			args = append(args, values...)

		case storage.OpLike:
			// LIKE в sqlite не различает регистр ASCII, поэтому пропускает больше строк
			pattern, ok := f.Value.(string)
			if !ok {
				continue
			}
			clauses = append(clauses, "json_extract(data, ?) LIKE ?")
			args = append(args, path, pattern)

		case storage.OpIs:
			if f.Value != nil {
				continue
			}
			clauses = append(clauses, "json_extract(data, ?) IS NULL")
			args = append(args, path)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// sqlScalar приводит значение предиката к параметру sqlite.
// Числа за пределами точного диапазона float64 не переносятся в SQL.
func sqlScalar(v any) (any, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	f, ok := models.ToFloat64(v)
	if !ok || math.IsNaN(f) || math.Abs(f) >= maxExactFloat {
		return nil, false
	}
	if i, ok := models.ToInt64(v); ok && float64(i) == f {
		return i, true
	}
	return f, true
}
