package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-bankfeed/core"
)

type AdapterFactory func(config map[string]any) (core.TransportAdapter, error)

// registryEntry holds at most one ready adapter and one factory per kind.
// A ready adapter always wins over its factory on Build.
type registryEntry struct {
	adapter core.TransportAdapter
	factory AdapterFactory
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]registryEntry{}}
}

// NewDefaultRegistry seeds a plain REST adapter and an mTLS factory. The
// mTLS adapter needs key material, so it can only be built from config.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	_ = registry.Register(NewRESTAdapter(nil))
	_ = registry.RegisterFactory(KindMTLS, mtlsFactory)
	return registry
}

func (r *Registry) Register(adapter core.TransportAdapter) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("transport: adapter is nil")
	}
	kind := normalizeKind(adapter.Kind())
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[kind]
	if entry.adapter != nil {
		return fmt.Errorf("transport: adapter kind %q already registered", kind)
	}
	entry.adapter = adapter
	r.entries[kind] = entry
	return nil
}

func (r *Registry) RegisterFactory(kind string, factory AdapterFactory) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}
	if factory == nil {
		return fmt.Errorf("transport: adapter factory is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.entries[kind]
	if entry.factory != nil {
		return fmt.Errorf("transport: adapter factory kind %q already registered", kind)
	}
	entry.factory = factory
	r.entries[kind] = entry
	return nil
}

func (r *Registry) Build(kind string, config map[string]any) (core.TransportAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	kind = normalizeKind(kind)
	if kind == "" {
		return nil, fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.RLock()
	entry, ok := r.entries[kind]
	r.mu.RUnlock()
	if ok && entry.adapter != nil {
		return entry.adapter, nil
	}
	if entry.factory == nil {
		return nil, fmt.Errorf("transport: adapter kind %q not registered", kind)
	}
	built, err := entry.factory(cloneMap(config))
	if err != nil {
		return nil, err
	}
	if built == nil {
		return nil, fmt.Errorf("transport: factory for %q returned nil adapter", kind)
	}
	return built, nil
}

func (r *Registry) Get(kind string) (core.TransportAdapter, bool) {
	if r == nil {
		return nil, false
	}
	kind = normalizeKind(kind)
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[kind]
	if !ok || entry.adapter == nil {
		return nil, false
	}
	return entry.adapter, true
}

// List returns the ready adapters in kind order. Factory-only kinds are
// excluded until something builds them.
func (r *Registry) List() []core.TransportAdapter {
	if r == nil {
		return []core.TransportAdapter{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.entries))
	for kind, entry := range r.entries {
		if entry.adapter != nil {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	result := make([]core.TransportAdapter, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.entries[kind].adapter)
	}
	return result
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

func mtlsFactory(config map[string]any) (core.TransportAdapter, error) {
	certificate := strings.TrimSpace(fmt.Sprint(config["certificate_pem"]))
	privateKey := strings.TrimSpace(fmt.Sprint(config["private_key_pem"]))
	if certificate == "" || certificate == "<nil>" || privateKey == "" || privateKey == "<nil>" {
		return NewUnsupportedAdapter(KindMTLS, "certificate_pem and private_key_pem are required"), nil
	}
	return NewMTLSAdapter(certificate, privateKey)
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}
