package storage

import "errors"

// Таксономия ошибок слоя хранения. Облачный клиент восстанавливает эти же
// значения из ответов сервера, поэтому errors.Is работает поверх сети.
var (
	// ErrNotFound строка отсутствует (update/delete)
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists строка с таким id уже есть в таблице
	ErrAlreadyExists = errors.New("record already exists")

	// ErrPolicyViolation офлайн запись в таблицу, где это запрещено
	ErrPolicyViolation = errors.New("write policy violation")

	// ErrInsufficientBalance сумма платежа меньше остатка по заказу
	ErrInsufficientBalance = errors.New("insufficient payment amount")

	// ErrInsufficientStock на складе-источнике не хватает остатков
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotPayable заказ уже закрыт, отменён или возвращён
	ErrOrderNotPayable = errors.New("order is not payable")

	// ErrStoreInaccessible магазин не существует или неактивен
	ErrStoreInaccessible = errors.New("store is not accessible")

	// ErrConflict расхождение между локальной мутацией и облаком
	ErrConflict = errors.New("sync conflict")

	// ErrTransient сетевая или временная ошибка бэкенда
	ErrTransient = errors.New("transient backend failure")

	// ErrInvalidQuery неверные параметры select
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidRecord запись не может быть сохранена (нет id, неверный JSON)
	ErrInvalidRecord = errors.New("invalid record")

	// ErrTenantMismatch операция адресована чужому tenant
	ErrTenantMismatch = errors.New("tenant mismatch")

	// ErrStorageClosed хранилище уже закрыто
	ErrStorageClosed = errors.New("storage is closed")
)
