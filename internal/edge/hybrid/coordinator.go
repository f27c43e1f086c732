// Package hybrid реализует координатор edge узла: маршрутизацию операций
// между облаком и локальным хранилищем, журнал офлайн записей и drain loop.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/tillsync/internal/clock"
	"github.com/iudanet/tillsync/internal/conflict"
	"github.com/iudanet/tillsync/internal/models"
	"github.com/iudanet/tillsync/internal/policy"
	"github.com/iudanet/tillsync/internal/storage"
	"github.com/iudanet/tillsync/internal/validation"
)

// ErrOffline операция требует связи с облаком
var ErrOffline = errors.New("cloud store is offline")

//go:generate moq -out cloudstore_mock_test.go . CloudStore

// CloudStore облачное хранилище: строковый контракт и атомарные составные операции
type CloudStore interface {
	storage.Adapter
	CompleteOrderWithPayment(ctx context.Context, req models.CompleteOrderRequest) (*models.CompleteOrderResult, error)
	TransferInventory(ctx context.Context, req models.TransferRequest) (*models.TransferResult, error)
	SyncBatchOperations(ctx context.Context, req models.SyncBatchRequest) (*models.BatchResult, error)
}

// EdgeStore локальное хранилище узла вместе с журналом и конфликтами
type EdgeStore interface {
	storage.Adapter
	storage.JournalStorage
	storage.ConflictStorage
	storage.CacheStorage
	JournalStats(ctx context.Context) (map[models.JournalStatus]int, error)
	SaveLastSyncAt(ctx context.Context, at time.Time) error
	GetLastSyncAt(ctx context.Context) (time.Time, error)
}

// Config зависимости и параметры координатора
type Config struct {
	Cloud    CloudStore
	Edge     EdgeStore
	Resolver *conflict.Resolver // nil - resolver по умолчанию
	Policy   *policy.Policy     // nil - policy.Default()
	Clock    *clock.Clock       // nil - системные часы узла
	Logger   *slog.Logger
	Now      func() time.Time
	NodeID   string
	TenantID string
	// BatchSize > 1 включает drain пачками через SyncBatchOperations
	BatchSize int
	Online    bool
}

// Coordinator направляет операции в облако или в edge хранилище в зависимости
// от связи и ведёт журнал синхронизации офлайн записей.
// Индекс незавершённых записей журнала - кэш их копии в EdgeStore и
// меняется только вместе с ней.
type Coordinator struct {
	cloud     CloudStore
	edge      EdgeStore
	resolver  *conflict.Resolver
	clock     *clock.Clock
	logger    *slog.Logger
	now       func() time.Time
	policy    *policy.Policy
	index     map[string]*models.SyncJournalEntry
	nodeID    string
	tenantID  string
	batchSize int

	mu          sync.RWMutex // online, policy, index, initialized
	syncMu      sync.Mutex   // drain, initialize и резолюции выполняются по одной
	online      bool
	initialized bool
}

var _ storage.Adapter = (*Coordinator)(nil)

// New создает координатор. Initialize вызывается явно или лениво при первой
// офлайн записи или drain.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Cloud == nil || cfg.Edge == nil {
		return nil, errors.New("cloud and edge stores are required")
	}
	if err := validation.ValidateNodeID(cfg.NodeID); err != nil {
		return nil, err
	}

	c := &Coordinator{
		cloud:     cfg.Cloud,
		edge:      cfg.Edge,
		resolver:  cfg.Resolver,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		now:       cfg.Now,
		nodeID:    cfg.NodeID,
		tenantID:  cfg.TenantID,
		batchSize: cfg.BatchSize,
		online:    cfg.Online,
		index:     make(map[string]*models.SyncJournalEntry),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.resolver == nil {
		c.resolver = conflict.NewResolver(c.logger)
	}
	if c.clock == nil {
		c.clock = clock.New(cfg.NodeID)
	}

	p := cfg.Policy
	if p == nil {
		p = policy.Default()
	}
	c.SetPolicy(p)

	return c, nil
}

// NodeID возвращает идентификатор узла
func (c *Coordinator) NodeID() string {
	return c.nodeID
}

// SetOnline переключает режим работы. Состояние связи определяется снаружи.
func (c *Coordinator) SetOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()

	if changed {
		c.logger.Info("Connectivity changed", "online", online)
	}
}

// IsOnline возвращает текущий режим
func (c *Coordinator) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetPolicy заменяет политику записи таблиц и регистрирует её delete guards
func (c *Coordinator) SetPolicy(p *policy.Policy) {
	p.ApplyGuards(c.resolver)

	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
}

// Policy возвращает текущую политику записи
func (c *Coordinator) Policy() *policy.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

func (c *Coordinator) isInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Initialize загружает незавершённые записи журнала из EdgeStore.
// Записи в статусе syncing (процесс упал посреди drain) возвращаются в pending.
// Ошибка загрузки не мешает работе: координатор считается инициализированным
// с пустым индексом, повторной загрузки не будет. Повторный вызов ничего не делает.
func (c *Coordinator) Initialize(ctx context.Context) error {
	if c.isInitialized() {
		return nil
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	if c.isInitialized() {
		return nil
	}

	entries, err := c.edge.ListJournalEntries(ctx,
		models.StatusPending, models.StatusSyncing, models.StatusFailed, models.StatusConflict)
	if err != nil {
		c.logger.Error("Failed to load sync journal, starting with empty index", "error", err)
		c.mu.Lock()
		c.initialized = true
		c.mu.Unlock()
		return nil
	}

	index := make(map[string]*models.SyncJournalEntry, len(entries))
	reset := 0
	for _, entry := range entries {
		if entry.Status == models.StatusSyncing {
			entry.Status = models.StatusPending
			if err := c.edge.SaveJournalEntry(ctx, entry); err != nil {
				// индекс хранит статус с диска, drain сбросит запись позже
				entry.Status = models.StatusSyncing
				c.logger.Warn("Failed to reset syncing journal entry", "journal_id", entry.ID, "error", err)
			} else {
				reset++
			}
		}
		c.clock.Observe(entry.Timestamp)
		index[entry.ID] = entry
	}

	c.mu.Lock()
	c.index = index
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("Sync journal loaded", "entries", len(index), "reset_syncing", reset)
	return nil
}

func (c *Coordinator) indexPut(entry *models.SyncJournalEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[entry.ID] = entry.Clone()
}

func (c *Coordinator) indexRemove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.index, id)
}

// indexSnapshot возвращает копии записей индекса в порядке drain
func (c *Coordinator) indexSnapshot(keep func(*models.SyncJournalEntry) bool) []*models.SyncJournalEntry {
	c.mu.RLock()
	out := make([]*models.SyncJournalEntry, 0, len(c.index))
	for _, entry := range c.index {
		if keep == nil || keep(entry) {
			out = append(out, entry.Clone())
		}
	}
	c.mu.RUnlock()

	sortEntries(out)
	return out
}

// mirror дублирует успешную облачную запись в локальный кэш.
// Ошибка только логируется.
func (c *Coordinator) mirror(op, table, id string, write func() error) {
	if err := write(); err != nil {
		c.logger.Warn("Failed to mirror cloud write to edge cache",
			"operation", op,
			"table", table,
			"record_id", id,
			"error", err)
	}
}

func (c *Coordinator) offlineError(what string) error {
	return fmt.Errorf("%w: %s requires cloud connectivity: %w", storage.ErrPolicyViolation, what, ErrOffline)
}
