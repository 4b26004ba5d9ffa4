package core

import (
	"fmt"
	"sort"
	"sync"
)

type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[ProviderID]BankAdapter
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[ProviderID]BankAdapter)}
}

func (r *AdapterRegistry) Register(adapter BankAdapter) error {
	if adapter == nil {
		return fmt.Errorf("core: adapter is nil")
	}
	id, err := ParseProviderID(string(adapter.ID()))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("core: adapter already registered: %s", id)
	}
	r.adapters[id] = adapter
	return nil
}

func (r *AdapterRegistry) Get(provider ProviderID) (BankAdapter, bool) {
	r.mu.RLock()
	adapter, ok := r.adapters[provider]
	r.mu.RUnlock()
	return adapter, ok
}

func (r *AdapterRegistry) List() []BankAdapter {
	r.mu.RLock()
	keys := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		keys = append(keys, string(id))
	}
	r.mu.RUnlock()
	sort.Strings(keys)

	adapters := make([]BankAdapter, 0, len(keys))
	r.mu.RLock()
	for _, id := range keys {
		adapters = append(adapters, r.adapters[ProviderID(id)])
	}
	r.mu.RUnlock()
	return adapters
}

var _ Registry = (*AdapterRegistry)(nil)
