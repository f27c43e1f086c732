package conflict

import (
	"fmt"

	"github.com/iudanet/tillsync/internal/crypto"
	"github.com/iudanet/tillsync/internal/models"
)

// Comparator решает, разошлась ли облачная строка со снимком, относительно
// которого была сделана локальная правка. true - расхождение.
type Comparator func(base, remote models.Record) bool

// DeleteGuard возвращает true, если текущее облачное состояние строки запрещает удаление
type DeleteGuard func(remote models.Record) bool

// Decision что делать с записью журнала при drain
type Decision int

const (
	// DecisionApply применить мутацию к облаку
	DecisionApply Decision = iota
	// DecisionSkip облако уже в целевом состоянии, запись можно считать synced
	DecisionSkip
	// DecisionConflict расхождение, нужна явная резолюция
	DecisionConflict
)

func (d Decision) String() string {
	switch d {
	case DecisionApply:
		return "apply"
	case DecisionSkip:
		return "skip"
	case DecisionConflict:
		return "conflict"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Detection результат проверки записи журнала против облачной строки
type Detection struct {
	Type     models.ConflictType
	Reason   string
	Decision Decision
}

// DefaultComparator структурное неравенство снимков (канонический JSON)
func DefaultComparator(base, remote models.Record) bool {
	a, err := base.Marshal()
	if err != nil {
		return true
	}
	b, err := remote.Marshal()
	if err != nil {
		return true
	}
	return !crypto.Equal(a, b)
}

// StatusGuard запрещает удаление строк, у которых поле field имеет один из statuses
func StatusGuard(field string, statuses ...string) DeleteGuard {
	forbidden := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		forbidden[s] = true
	}
	return func(remote models.Record) bool {
		return forbidden[remote.String(field)]
	}
}

// Detect классифицирует запись журнала относительно текущей облачной строки
// (remote == nil, если строки в облаке нет):
//   - insert: нет строки - apply; строка равна data - skip; иначе version конфликт
//   - update: нет строки - version конфликт; строка равна data - skip;
//     comparator(base, remote) - version конфликт; иначе apply
//   - delete: нет строки - skip; guard - delete конфликт;
//     comparator(base, remote) - version конфликт; иначе apply
func (r *Resolver) Detect(entry *models.SyncJournalEntry, remote models.Record) (Detection, error) {
	local, err := models.DecodeRecord(entry.Data)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to decode entry data: %w", err)
	}
	base, err := models.DecodeRecord(entry.BaseData)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to decode entry base data: %w", err)
	}

	compare := r.comparator(entry.Table)

	switch entry.Operation {
	case models.OperationInsert:
		if remote == nil {
			return Detection{Decision: DecisionApply}, nil
		}
		if !DefaultComparator(local, remote) {
			return Detection{Decision: DecisionSkip, Reason: "already applied"}, nil
		}
		return conflictOf(models.ConflictVersion, "record already exists in cloud with different content"), nil

	case models.OperationUpdate:
		if remote == nil {
			return conflictOf(models.ConflictVersion, "record no longer exists in cloud"), nil
		}
		if !DefaultComparator(local, remote) {
			return Detection{Decision: DecisionSkip, Reason: "already applied"}, nil
		}
		if compare(base, remote) {
			return conflictOf(models.ConflictVersion, "cloud record changed since local edit"), nil
		}
		return Detection{Decision: DecisionApply}, nil

	case models.OperationDelete:
		if remote == nil {
			return Detection{Decision: DecisionSkip, Reason: "already deleted"}, nil
		}
		if guard := r.deleteGuard(entry.Table); guard != nil && guard(remote) {
			return conflictOf(models.ConflictDelete, "cloud state forbids deletion"), nil
		}
		if compare(base, remote) {
			return conflictOf(models.ConflictVersion, "cloud record changed since local delete"), nil
		}
		return Detection{Decision: DecisionApply}, nil
	}

	return Detection{}, fmt.Errorf("unknown operation %q", entry.Operation)
}

func conflictOf(t models.ConflictType, reason string) Detection {
	return Detection{Decision: DecisionConflict, Type: t, Reason: reason}
}
