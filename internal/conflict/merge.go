package conflict

import "github.com/iudanet/tillsync/internal/models"

// MergeFunc строит итоговую строку для manual резолюции из локального и облачного снимков
type MergeFunc func(local, remote models.Record) (models.Record, error)

// MaxFieldsMerge берёт облачную строку, поверх неё локальные поля,
// а для перечисленных числовых полей - максимум из двух значений.
// Например, MaxFieldsMerge("total_cents") для итогов заказа.
func MaxFieldsMerge(fields ...string) MergeFunc {
	return func(local, remote models.Record) (models.Record, error) {
		merged := remote.Merge(local)
		if merged.ID() == "" {
			merged[models.FieldID] = local.ID()
		}
		for _, f := range fields {
			l, lok := local.Int64(f)
			r, rok := remote.Int64(f)
			switch {
			case lok && rok:
				merged[f] = max(l, r)
			case rok:
				merged[f] = r
			case lok:
				merged[f] = l
			}
		}
		return merged, nil
	}
}
