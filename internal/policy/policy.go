// Package policy описывает, какие таблицы можно писать офлайн.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/tillsync/internal/conflict"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/storage"
)

// WritePolicy режим записи таблицы
type WritePolicy string

const (
	// CloudOnly запись офлайн всегда запрещена (например, мастер-каталог)
	CloudOnly WritePolicy = "cloud_only"
	// Conditional запись офлайн разрешена только при включенном feature флаге (например, возвраты)
	Conditional WritePolicy = "conditional"
	// Syncable запись офлайн ставится в журнал
	Syncable WritePolicy = "syncable"
)

// Valid проверяет значение режима
func (p WritePolicy) Valid() bool {
	switch p {
	case CloudOnly, Conditional, Syncable:
		return true
	}
	return false
}

// ErrInvalidPolicy ошибка в документе политики
var ErrInvalidPolicy = errors.New("invalid policy document")

// TableRule настройки одной таблицы
type TableRule struct {
	Policy WritePolicy `yaml:"policy"`
	// Feature флаг, разрешающий офлайн запись для conditional таблицы
	Feature string `yaml:"feature,omitempty"`
	// StatusField и ProtectStatuses задают delete guard: строку в этих статусах удалять нельзя
	StatusField     string   `yaml:"status_field,omitempty"`
	ProtectStatuses []string `yaml:"protect_statuses,omitempty"`
}

// Policy документ политики записи.
//
//	default: syncable
//	features:
//	  offline_refunds: false
//	tables:
//	  products: {policy: cloud_only}
//	  refunds: {policy: conditional, feature: offline_refunds}
//	  orders: {policy: syncable, status_field: status, protect_statuses: [completed]}
type Policy struct {
	Tables   map[string]TableRule `yaml:"tables"`
	Features map[string]bool      `yaml:"features"`
	Default  WritePolicy          `yaml:"default"`
}

// Default политика, при которой все таблицы syncable, а завершённые заказы нельзя удалить офлайн
func Default() *Policy {
	return &Policy{
		Default:  Syncable,
		Features: map[string]bool{},
		Tables: map[string]TableRule{
			models.TableOrders: {
				Policy:          Syncable,
				StatusField:     "status",
				ProtectStatuses: []string{models.OrderStatusCompleted, models.OrderStatusRefunded},
			},
		},
	}
}

// Parse разбирает YAML документ в строгом режиме (неизвестные ключи - ошибка)
func Parse(data []byte) (*Policy, error) {
	var p Policy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load читает документ политики из файла
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

func (p *Policy) normalize() error {
	if p.Default == "" {
		p.Default = Syncable
	}
	if !p.Default.Valid() {
		return fmt.Errorf("%w: unknown default policy %q", ErrInvalidPolicy, p.Default)
	}
	if p.Tables == nil {
		p.Tables = map[string]TableRule{}
	}
	if p.Features == nil {
		p.Features = map[string]bool{}
	}
	for name, rule := range p.Tables {
		if rule.Policy == "" {
			rule.Policy = p.Default
		}
		if !rule.Policy.Valid() {
			return fmt.Errorf("%w: table %s: unknown policy %q", ErrInvalidPolicy, name, rule.Policy)
		}
		if rule.Policy == Conditional && rule.Feature == "" {
			return fmt.Errorf("%w: table %s: conditional policy requires a feature", ErrInvalidPolicy, name)
		}
		if len(rule.ProtectStatuses) > 0 && rule.StatusField == "" {
			rule.StatusField = "status"
		}
		p.Tables[name] = rule
	}
	return nil
}

// For возвращает режим записи таблицы
func (p *Policy) For(table string) WritePolicy {
	if rule, ok := p.Tables[table]; ok {
		return rule.Policy
	}
	return p.Default
}

// FeatureEnabled проверяет feature флаг
func (p *Policy) FeatureEnabled(name string) bool {
	return p.Features[name]
}

// CheckOfflineWrite возвращает ErrPolicyViolation, если таблицу нельзя писать офлайн
func (p *Policy) CheckOfflineWrite(table string) error {
	rule, ok := p.Tables[table]
	if !ok {
		rule = TableRule{Policy: p.Default}
	}

	switch rule.Policy {
	case CloudOnly:
		return fmt.Errorf("%w: table %q is cloud_only and cannot be written offline", storage.ErrPolicyViolation, table)
	case Conditional:
		if !p.FeatureEnabled(rule.Feature) {
			return fmt.Errorf("%w: table %q requires feature %q to be written offline",
				storage.ErrPolicyViolation, table, rule.Feature)
		}
	}
	return nil
}

// ApplyGuards регистрирует delete guards таблиц в resolver
func (p *Policy) ApplyGuards(r *conflict.Resolver) {
	tables := make([]string, 0, len(p.Tables))
	for name := range p.Tables {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, name := range tables {
		rule := p.Tables[name]
		if len(rule.ProtectStatuses) == 0 {
			continue
		}
		r.RegisterDeleteGuard(name, conflict.StatusGuard(rule.StatusField, rule.ProtectStatuses...))
	}
}
