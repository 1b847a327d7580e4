package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/stretchr/testify/require"
)

type fakeTenantBots struct {
	bots []*entities.TenantBot
}

func (f *fakeTenantBots) ListEnabledTenantBots(ctx context.Context) ([]*entities.TenantBot, error) {
	return f.bots, nil
}

func (f *fakeTenantBots) GetTenantBot(ctx context.Context, tenantID string) (*entities.TenantBot, error) {
	for _, b := range f.bots {
		if b.TenantID == tenantID {
			return b, nil
		}
	}
	return nil, nil
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, nil))
}

func TestInitializeIsolatesTenantFailures(t *testing.T) {
	dial := func(token string) (Gateway, error) {
		if token == "bad-token" {
			return nil, errors.New("invalid token")
		}
		return newFakeGateway(), nil
	}

	m := NewManager(testLogger(t), "app-1", dial, nil)

	tenants := &fakeTenantBots{bots: []*entities.TenantBot{
		{TenantID: "t1", Token: "bad-token", GuildID: "g1", Enabled: true},
		{TenantID: "t2", Token: "good-token", GuildID: "g2", Enabled: true},
	}}

	m.Initialize(context.Background(), "main", "good-token", "g-main", tenants)

	_, ok := m.Session("t1")
	require.False(t, ok, "tenant with a bad token must not have a session")

	require.True(t, sessionExists(m, "t2"), "tenant after the failed one must still connect")
	require.True(t, sessionExists(m, "main"))
}

func TestInitializeSkipsMainDuplicate(t *testing.T) {
	dials := 0
	dial := func(token string) (Gateway, error) {
		dials++
		return newFakeGateway(), nil
	}

	m := NewManager(testLogger(t), "app-1", dial, nil)

	tenants := &fakeTenantBots{bots: []*entities.TenantBot{
		{TenantID: "main", Token: "dup-token", GuildID: "g-main", Enabled: true},
		{TenantID: "t2", Token: "good-token", GuildID: "g2", Enabled: true},
	}}

	m.Initialize(context.Background(), "main", "main-token", "g-main", tenants)

	require.Equal(t, 2, dials, "the main tenant's stored row must not be dialled twice")
}

func TestDisconnectBotIsIdempotent(t *testing.T) {
	m := NewManager(testLogger(t), "app-1", func(string) (Gateway, error) {
		return newFakeGateway(), nil
	}, nil)

	require.NoError(t, m.ConnectBot("t1", "tok", "g1"))
	m.DisconnectBot("t1")
	m.DisconnectBot("t1")

	_, ok := m.Session("t1")
	require.False(t, ok)
}

func TestSessionGatedOnReady(t *testing.T) {
	m := NewManager(testLogger(t), "app-1", func(string) (Gateway, error) {
		return newFakeGateway(), nil
	}, nil)

	require.NoError(t, m.ConnectBot("t1", "tok", "g1"))

	// The fake gateway never delivers a ready event, so the session exists
	// but is not served yet.
	_, ok := m.Session("t1")
	require.False(t, ok)
	require.False(t, m.Ready("t1"))
}

// sessionExists reports whether the manager holds any session for the
// tenant, ready or not.
func sessionExists(m *Manager, tenantID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[tenantID]
	return ok
}
