package ticketing

import (
	"context"
	"sync"
)

// ConfigSource supplies per-tenant provider configuration. Implemented by the
// data access layer; (nil, nil) means the tenant has no provider configured.
type ConfigSource interface {
	ProviderConfig(ctx context.Context, tenantID string) (*JiraConfig, error)
}

// Resolver resolves the provider adapter for a tenant. The main tenant's
// adapter is bound from environment configuration at startup; every other
// tenant is looked up in the store and the built adapter cached. Call sites
// never branch on which tenant they are serving.
type Resolver struct {
	mu           sync.RWMutex
	mainTenantID string
	main         Adapter
	cache        map[string]Adapter

	configs ConfigSource

	// build is swappable for tests; defaults to NewJiraAdapter.
	build func(cfg JiraConfig) (Adapter, error)
}

// NewResolver creates a resolver. main may be nil when the main tenant has no
// environment-configured provider.
func NewResolver(mainTenantID string, main Adapter, configs ConfigSource) *Resolver {
	return &Resolver{
		mainTenantID: mainTenantID,
		main:         main,
		cache:        make(map[string]Adapter),
		configs:      configs,
		build: func(cfg JiraConfig) (Adapter, error) {
			return NewJiraAdapter(cfg)
		},
	}
}

// Provider returns the adapter for the tenant. ok is false when the tenant
// has no usable provider configuration; callers reject the triggering action
// with an actionable message rather than erroring.
func (r *Resolver) Provider(ctx context.Context, tenantID string) (Adapter, bool) {
	r.mu.RLock()
	if tenantID == r.mainTenantID && r.main != nil {
		r.mu.RUnlock()
		return r.main, true
	}
	if a, ok := r.cache[tenantID]; ok {
		r.mu.RUnlock()
		return a, true
	}
	r.mu.RUnlock()

	if r.configs == nil {
		return nil, false
	}

	cfg, err := r.configs.ProviderConfig(ctx, tenantID)
	if err != nil || cfg == nil {
		return nil, false
	}

	a, err := r.build(*cfg)
	if err != nil {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent resolve may have won; keep the first adapter so limiter
	// state is shared.
	if existing, ok := r.cache[tenantID]; ok {
		return existing, true
	}
	r.cache[tenantID] = a
	return a, true
}

// Invalidate drops the cached adapter for a tenant. The dashboard calls this
// when provider credentials change.
func (r *Resolver) Invalidate(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, tenantID)
}

// SetBuilder swaps the adapter factory. Test hook.
func (r *Resolver) SetBuilder(build func(cfg JiraConfig) (Adapter, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.build = build
}
