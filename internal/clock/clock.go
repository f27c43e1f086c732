// Package clock предоставляет монотонные часы для упорядочивания записей журнала.
package clock

import (
	"sync"
	"time"
)

// Clock гибрид логических часов Лампорта и физического времени.
// Значение - наносекунды Unix, но никогда не уменьшается: если системное
// время откатилось назад, счётчик просто увеличивается на единицу.
type Clock struct {
	now     func() time.Time // источник физического времени
	nodeID  string           // идентификатор edge узла
	counter int64            // последнее выданное значение
	mu      sync.Mutex
}

// New создает часы узла nodeID на системном времени
func New(nodeID string) *Clock {
	return NewWithSource(nodeID, time.Now)
}

// NewWithSource создает часы с заданным источником времени.
// Используется в тестах.
func NewWithSource(nodeID string, now func() time.Time) *Clock {
	return &Clock{
		now:    now,
		nodeID: nodeID,
	}
}

// Tick возвращает новое значение, строго большее всех выданных ранее
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	wall := c.now().UnixNano()
	if wall > c.counter {
		c.counter = wall
	} else {
		c.counter++
	}
	return c.counter
}

// Observe учитывает ранее выданное значение (например, из журнала после рестарта),
// чтобы следующие Tick были больше него.
// counter = max(counter, ts)
func (c *Clock) Observe(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts > c.counter {
		c.counter = ts
	}
}

// Timestamp возвращает последнее выданное значение без изменения часов
func (c *Clock) Timestamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counter
}

// NodeID возвращает идентификатор узла
func (c *Clock) NodeID() string {
	return c.nodeID
}
