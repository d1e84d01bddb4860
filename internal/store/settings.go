package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/google/uuid"
)

// SettingsStore is the in-memory counterpart of the billing settings table.
// At most one entry is active at a time.
type SettingsStore struct {
	mu    sync.Mutex
	items map[string]model.BillingSettings
	now   func() time.Time
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{items: map[string]model.BillingSettings{}, now: time.Now}
}

func (s *SettingsStore) Active(_ context.Context) (model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.BillingSettings
	for _, v := range s.items {
		if !v.Activo {
			continue
		}
		if found == nil || v.UpdatedAt.After(found.UpdatedAt) {
			v := v
			found = &v
		}
	}
	if found == nil {
		return model.BillingSettings{}, ErrNotFound
	}
	return *found, nil
}

func (s *SettingsStore) Get(_ context.Context, id string) (model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return model.BillingSettings{}, ErrNotFound
	}
	return v, nil
}

// List returns every entry, newest first.
func (s *SettingsStore) List(_ context.Context) ([]model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BillingSettings, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *SettingsStore) Create(_ context.Context, in model.BillingSettings) (model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	in.CreatedAt = s.now()
	in.UpdatedAt = in.CreatedAt
	if in.Activo {
		s.deactivateAll()
	}
	s.items[in.ID] = in
	return in, nil
}

func (s *SettingsStore) Update(_ context.Context, in model.BillingSettings) (model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[in.ID]
	if !ok {
		return model.BillingSettings{}, ErrNotFound
	}
	if in.Activo && !current.Activo {
		s.deactivateAll()
	}
	in.CreatedAt = current.CreatedAt
	in.UpdatedAt = s.now()
	s.items[in.ID] = in
	return in, nil
}

func (s *SettingsStore) Activate(_ context.Context, id string) (model.BillingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return model.BillingSettings{}, ErrNotFound
	}
	s.deactivateAll()
	v.Activo = true
	v.UpdatedAt = s.now()
	s.items[id] = v
	return v, nil
}

func (s *SettingsStore) deactivateAll() {
	for id, v := range s.items {
		if v.Activo {
			v.Activo = false
			s.items[id] = v
		}
	}
}
