// Package store holds the in-memory fake backend used in mock mode and in tests.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
)

var ErrNotFound = model.ErrNotFound

// MemoryStore keeps transactions in insertion order. Every value it hands out is a copy.
type MemoryStore struct {
	mu    sync.RWMutex
	items []model.Transaction
	index map[string]int
}

func NewMemoryStore(seed []model.Transaction) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int, len(seed))}
	for _, t := range seed {
		s.put(t.Clone())
	}
	return s
}

func (s *MemoryStore) List(_ context.Context, p query.Params) (model.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePage(query.Run(s.items, p)), nil
}

func clonePage(p model.Page) model.Page {
	for i := range p.Content {
		p.Content[i] = p.Content[i].Clone()
	}
	return p
}

// ListPending pages over PAID transactions still waiting for billing, newest first.
func (s *MemoryStore) ListPending(_ context.Context, page, size int) (model.Page, error) {
	s.mu.RLock()
	pending := make([]model.Transaction, 0)
	for _, t := range s.items {
		if t.AwaitingBilling() {
			pending = append(pending, t)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return clonePage(query.Paginate(pending, page, size)), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Transaction{}, ErrNotFound
	}
	return s.items[i].Clone(), nil
}

// Save inserts t or replaces the transaction with the same id.
func (s *MemoryStore) Save(_ context.Context, t model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(t.Clone())
	return nil
}

func (s *MemoryStore) All(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.items))
	for i, t := range s.items {
		out[i] = t.Clone()
	}
	return out, nil
}

func (s *MemoryStore) put(t model.Transaction) {
	if i, ok := s.index[t.ID]; ok {
		s.items[i] = t
		return
	}
	s.index[t.ID] = len(s.items)
	s.items = append(s.items, t)
}
