// Package store provides history.Store implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/history"
	"github.com/barstock/inventory-engine/valuation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// errCommitFailed simulates a store-level commit failure in tests.
var errCommitFailed = errors.New("commit failed")

// Memory implements history.Store with maps behind one mutex. Commits
// are trivially atomic: every mutation happens under the write lock.
type Memory struct {
	mu sync.RWMutex

	entries    map[string]history.Entry
	drinks     []catalog.Drink
	managers   map[string]history.Manager
	deliveries []valuation.Delivery
	quantities map[string]decimal.Decimal

	// FailCommits makes Commit* operations fail without touching
	// state. Tests use it to verify nothing is partially applied.
	FailCommits bool
}

func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[string]history.Entry),
		managers:   make(map[string]history.Manager),
		quantities: make(map[string]decimal.Decimal),
	}
}

// =============================================================================
// ATOMIC COMMITS
// =============================================================================

func (m *Memory) CommitReconciliation(_ context.Context, entry history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCommits {
		return errCommitFailed
	}

	// Entry write + working-state cleanup, all-or-nothing under the lock.
	m.entries[entry.ID] = entry
	m.deliveries = nil
	m.quantities = make(map[string]decimal.Decimal)
	return nil
}

func (m *Memory) CommitCorrection(_ context.Context, entry history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCommits {
		return errCommitFailed
	}
	if _, ok := m.entries[entry.ID]; !ok {
		return history.ErrEntryNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

// =============================================================================
// HISTORY READS
// =============================================================================

func (m *Memory) GetEntry(_ context.Context, id string) (history.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return history.Entry{}, history.ErrEntryNotFound
	}
	return e, nil
}

func (m *Memory) ListEntries(_ context.Context) ([]history.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]history.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Ledger.Date.Equal(out[j].Ledger.Date) {
			return out[i].Ledger.Date.After(out[j].Ledger.Date)
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

func (m *Memory) LatestEntry(ctx context.Context) (*history.Entry, error) {
	entries, err := m.ListEntries(ctx)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (m *Memory) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return history.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

// =============================================================================
// CATALOG DOCUMENTS
// =============================================================================

func (m *Memory) ListDrinks(_ context.Context) ([]catalog.Drink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Drink, len(m.drinks))
	copy(out, m.drinks)
	return out, nil
}

func (m *Memory) SaveDrink(_ context.Context, d catalog.Drink) error {
	if err := d.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.drinks {
		if m.drinks[i].Name == d.Name {
			m.drinks[i] = d
			return nil
		}
	}
	m.drinks = append(m.drinks, d)
	return nil
}

func (m *Memory) DeleteDrink(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.drinks {
		if m.drinks[i].Name == name {
			m.drinks = append(m.drinks[:i], m.drinks[i+1:]...)
			return nil
		}
	}
	return catalog.ErrDrinkNotFound
}

// =============================================================================
// MANAGERS
// =============================================================================

func (m *Memory) ListManagers(_ context.Context) ([]history.Manager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]history.Manager, 0, len(m.managers))
	for _, mgr := range m.managers {
		out = append(out, mgr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SaveManager(_ context.Context, mgr history.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.managers[mgr.ID] = mgr
	return nil
}

func (m *Memory) DeleteManager(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.managers[id]; !ok {
		return history.ErrManagerNotFound
	}
	delete(m.managers, id)
	return nil
}

// =============================================================================
// TRANSIENT WORKING STATE
// =============================================================================

func (m *Memory) ListDeliveries(_ context.Context) ([]valuation.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]valuation.Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out, nil
}

func (m *Memory) AddDelivery(_ context.Context, d valuation.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, d)
	return nil
}

func (m *Memory) DeleteDelivery(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.deliveries {
		if m.deliveries[i].ID == id {
			m.deliveries = append(m.deliveries[:i], m.deliveries[i+1:]...)
			return nil
		}
	}
	return history.ErrDeliveryNotFound
}

func (m *Memory) StockQuantities(_ context.Context) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(m.quantities))
	for k, v := range m.quantities {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) SetStockQuantities(_ context.Context, q map[string]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantities = make(map[string]decimal.Decimal, len(q))
	for k, v := range q {
		m.quantities[k] = v
	}
	return nil
}
