package validation

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/iudanet/tillsync/internal/storage"
)

// TablePattern определяет допустимое имя таблицы
// Только строчные латинские буквы, цифры и нижнее подчеркивание, первая - буква
// Длина: 1-63 символа
var TablePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

const (
	// MaxIDLen максимальная длина id записи, tenant и узла
	MaxIDLen = 128
)

// ValidateTable проверяет имя таблицы
func ValidateTable(table string) error {
	if table == "" {
		return fmt.Errorf("%w: table name cannot be empty", storage.ErrInvalidRecord)
	}

	if !TablePattern.MatchString(table) {
		return fmt.Errorf("%w: table name %q can only contain lowercase letters, numbers and underscores",
			storage.ErrInvalidRecord, table)
	}

	return nil
}

// ValidateRecordID проверяет id записи: непустой, не длиннее MaxIDLen,
// без '/' и управляющих символов (id попадает в URL и ключи журнала)
func ValidateRecordID(id string) error {
	return validateID("record id", id)
}

// ValidateTenantID проверяет идентификатор tenant
func ValidateTenantID(id string) error {
	return validateID("tenant id", id)
}

// ValidateNodeID проверяет идентификатор edge узла
func ValidateNodeID(id string) error {
	return validateID("node id", id)
}

func validateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s cannot be empty", storage.ErrInvalidRecord, kind)
	}

	if len(id) > MaxIDLen {
		return fmt.Errorf("%w: %s must not exceed %d characters", storage.ErrInvalidRecord, kind, MaxIDLen)
	}

	for _, r := range id {
		if r == '/' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %s contains forbidden character %q", storage.ErrInvalidRecord, kind, r)
		}
	}

	return nil
}
