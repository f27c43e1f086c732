package api

import "github.com/iudanet/tillsync/internal/models"

// Filter предикат select
type Filter struct {
	Value  any    `json:"value"`
	Column string `json:"column"`
	Op     string `json:"op"`
}

// Order ключ сортировки
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// SelectRequest тело POST /api/v1/tables/{table}/select
type SelectRequest struct {
	Filters []Filter `json:"filters,omitempty"`
	OrderBy []Order  `json:"order_by,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// SelectResponse строки страницы и общее число совпадений
type SelectResponse struct {
	Data  []models.Record `json:"data"`
	Count int             `json:"count"`
}

// RowResponse одна строка; Data == null, если строки нет
type RowResponse struct {
	Data models.Record `json:"data"`
}

// InsertManyRequest тело POST /api/v1/tables/{table}/rows:batch
type InsertManyRequest struct {
	Items []models.Record `json:"items"`
}

// InsertManyResponse успешно вставленные строки
type InsertManyResponse struct {
	Data []models.Record `json:"data"`
}

// DeleteResponse ответ на удаление строки
type DeleteResponse struct {
	ID string `json:"id"`
}

// Операции транзакции
const (
	TxOpInsert = "insert"
	TxOpUpdate = "update"
	TxOpDelete = "delete"
)

// TxOp одна запись транзакции
type TxOp struct {
	Data  models.Record `json:"data,omitempty"`
	Op    string        `json:"op"`
	Table string        `json:"table"`
	ID    string        `json:"id,omitempty"`
}

// TxRequest тело POST /api/v1/tx: все операции применяются атомарно
type TxRequest struct {
	Ops []TxOp `json:"ops"`
}

// TxResponse результат каждой операции по порядку (строка для insert/update, {id} для delete)
type TxResponse struct {
	Results []models.Record `json:"results"`
}
