package storage

import "errors"

// Машиночитаемые коды ошибок в ответах API
const (
	CodeNotFound            = "not_found"
	CodeAlreadyExists       = "already_exists"
	CodePolicyViolation     = "policy_violation"
	CodeInsufficientBalance = "insufficient_balance"
	CodeInsufficientStock   = "insufficient_stock"
	CodeOrderNotPayable     = "order_not_payable"
	CodeStoreInaccessible   = "store_inaccessible"
	CodeConflict            = "conflict"
	CodeTransient           = "transient"
	CodeInvalidQuery        = "invalid_query"
	CodeInvalidRecord       = "invalid_record"
	CodeTenantMismatch      = "tenant_mismatch"
	CodeInternal            = "internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrPolicyViolation, CodePolicyViolation},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrOrderNotPayable, CodeOrderNotPayable},
	{ErrStoreInaccessible, CodeStoreInaccessible},
	{ErrConflict, CodeConflict},
	{ErrTransient, CodeTransient},
	{ErrInvalidQuery, CodeInvalidQuery},
	{ErrInvalidRecord, CodeInvalidRecord},
	{ErrTenantMismatch, CodeTenantMismatch},
}

// ErrorCode возвращает код для ошибки из таксономии или CodeInternal
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// ErrorForCode возвращает sentinel ошибку по коду; nil для неизвестного кода
func ErrorForCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
