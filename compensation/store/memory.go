// Package store provides CollectionStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/compensation-engine/compensation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	collections map[compensation.Collection][]byte
	saves       int
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[compensation.Collection][]byte),
	}
}

// Load returns a copy of the last saved payload.
func (m *Memory) Load(_ context.Context, name compensation.Collection) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.collections[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

// Save overwrites a collection.
func (m *Memory) Save(_ context.Context, name compensation.Collection, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLocked(name, payload)
	return nil
}

// Saves returns how many collection writes were committed.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *Memory) saveLocked(name compensation.Collection, payload []byte) {
	m.collections[name] = append([]byte(nil), payload...)
	m.saves++
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(compensation.CollectionStore) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.collections = snapshot.collections
		tm.saves = snapshot.saves
		return err
	}
	return nil
}

type memorySnapshot struct {
	collections map[compensation.Collection][]byte
	saves       int
}

func (tm *TxMemory) snapshot() memorySnapshot {
	cp := make(map[compensation.Collection][]byte, len(tm.collections))
	for k, v := range tm.collections {
		cp[k] = v
	}
	return memorySnapshot{collections: cp, saves: tm.saves}
}

type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Load(_ context.Context, name compensation.Collection) ([]byte, bool, error) {
	payload, ok := tv.parent.collections[name]
	return payload, ok, nil
}

func (tv *txMemoryView) Save(_ context.Context, name compensation.Collection, payload []byte) error {
	tv.parent.saveLocked(name, payload)
	return nil
}
