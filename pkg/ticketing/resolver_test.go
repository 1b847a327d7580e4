package ticketing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	Adapter
	name string
}

type stubConfigs struct {
	cfgs  map[string]*JiraConfig
	calls int
}

func (s *stubConfigs) ProviderConfig(_ context.Context, tenantID string) (*JiraConfig, error) {
	s.calls++
	return s.cfgs[tenantID], nil
}

func TestResolverMainTenant(t *testing.T) {
	main := &stubAdapter{name: "main"}
	cfgs := &stubConfigs{cfgs: map[string]*JiraConfig{}}
	r := NewResolver("main-tenant", main, cfgs)

	got, ok := r.Provider(context.Background(), "main-tenant")
	require.True(t, ok)
	require.Same(t, main, got)
	require.Zero(t, cfgs.calls, "main tenant must not hit the store")
}

func TestResolverTenantLookupCached(t *testing.T) {
	cfgs := &stubConfigs{cfgs: map[string]*JiraConfig{
		"t1": {BaseURL: "https://t1.example.net", Email: "a@b.c", APIToken: "x", ProjectKey: "SUP"},
	}}
	r := NewResolver("main-tenant", nil, cfgs)

	built := 0
	r.SetBuilder(func(cfg JiraConfig) (Adapter, error) {
		built++
		return &stubAdapter{name: cfg.ProjectKey}, nil
	})

	a1, ok := r.Provider(context.Background(), "t1")
	require.True(t, ok)
	a2, ok := r.Provider(context.Background(), "t1")
	require.True(t, ok)
	require.Same(t, a1, a2)
	require.Equal(t, 1, built)
}

func TestResolverUnknownTenant(t *testing.T) {
	cfgs := &stubConfigs{cfgs: map[string]*JiraConfig{}}
	r := NewResolver("main-tenant", nil, cfgs)

	_, ok := r.Provider(context.Background(), "nope")
	require.False(t, ok)
}

func TestResolverInvalidate(t *testing.T) {
	cfgs := &stubConfigs{cfgs: map[string]*JiraConfig{
		"t1": {BaseURL: "https://t1.example.net", Email: "a@b.c", APIToken: "x", ProjectKey: "SUP"},
	}}
	r := NewResolver("main-tenant", nil, cfgs)

	built := 0
	r.SetBuilder(func(cfg JiraConfig) (Adapter, error) {
		built++
		return &stubAdapter{}, nil
	})

	_, ok := r.Provider(context.Background(), "t1")
	require.True(t, ok)
	r.Invalidate("t1")
	_, ok = r.Provider(context.Background(), "t1")
	require.True(t, ok)
	require.Equal(t, 2, built)
}

func TestHasLabel(t *testing.T) {
	labels := []string{"severity-high", RequesterLabel("user-1")}
	require.True(t, hasLabel(labels, "requester-user-1"))
	require.False(t, hasLabel(labels, "requester-user-2"))
	require.False(t, hasLabel(nil, "requester-user-1"))
}
