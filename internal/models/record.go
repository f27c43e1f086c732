package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// FieldID имя колонки с идентификатором записи
const FieldID = "id"

// Record представляет произвольную строку любой таблицы.
// Схема таблицы ядром не интерпретируется, числа хранятся как json.Number,
// чтобы edge и cloud бэкенды возвращали одинаковое представление.
type Record map[string]any

// ID возвращает идентификатор записи или пустую строку
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone создает копию записи верхнего уровня
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge возвращает новую запись: поля r, перекрытые полями patch.
// Идентификатор исходной записи не меняется.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	return out
}

// String возвращает строковое поле или пустую строку
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Int64 возвращает целочисленное значение поля.
// Поддерживаются json.Number и все числовые типы Go.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	return ToInt64(v)
}

// Marshal сериализует запись в JSON
func (r Record) Marshal() (json.RawMessage, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// DecodeRecord десериализует JSON в Record с сохранением чисел как json.Number.
// Пустые данные и "null" дают nil без ошибки.
func DecodeRecord(data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// NormalizeRecord прогоняет запись через JSON, приводя значения к
// каноническому представлению (json.Number, map[string]any, []any).
func NormalizeRecord(r Record) (Record, error) {
	data, err := r.Marshal()
	if err != nil {
		return nil, err
	}
	return DecodeRecord(data)
}

// ToInt64 приводит числовое значение к int64
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f)), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(math.Round(float64(n))), true
	case float64:
		return int64(math.Round(n)), true
	default:
		return 0, false
	}
}

// ToFloat64 приводит числовое значение к float64
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
