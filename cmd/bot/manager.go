package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/dataaccess"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/bwmarrin/discordgo"
)

// dispatchFunc receives every inbound interaction together with the tenant
// that owns the session it arrived on.
type dispatchFunc func(tenantID string, gw Gateway, i *discordgo.InteractionCreate)

// botSession is one tenant's live gateway session.
type botSession struct {
	tenantID string
	guildID  string
	gw       Gateway
	ready    atomic.Bool
}

// Manager owns one long-lived gateway session per tenant. Sessions are
// isolated: one tenant's bad token or flaky gateway never blocks another
// tenant's connection or event delivery.
type Manager struct {
	l     *slog.Logger
	appID string

	// dial opens an unconnected session for a token. Swappable for tests.
	dial func(token string) (Gateway, error)

	// dispatch routes inbound interactions.
	dispatch dispatchFunc

	mu       sync.RWMutex
	sessions map[string]*botSession
}

// NewManager creates a session manager.
func NewManager(l *slog.Logger, appID string, dial func(token string) (Gateway, error), dispatch dispatchFunc) *Manager {
	return &Manager{
		l:        l,
		appID:    appID,
		dial:     dial,
		dispatch: dispatch,
		sessions: make(map[string]*botSession),
	}
}

// Initialize connects the main tenant from environment configuration and then
// every enabled persisted tenant bot. A tenant's connect failure is logged
// and does not stop the others.
func (m *Manager) Initialize(ctx context.Context, mainTenantID, mainToken, mainGuildID string, tenants dataaccess.TenantBotDal) {
	if err := m.ConnectBot(mainTenantID, mainToken, mainGuildID); err != nil {
		m.l.Error("Error connecting main tenant bot",
			slog.String(logging.KeyTenant, mainTenantID),
			slog.String(logging.KeyError, err.Error()))
	}

	bots, err := tenants.ListEnabledTenantBots(ctx)
	if err != nil {
		m.l.Error("Error listing tenant bots", slog.String(logging.KeyError, err.Error()))
		return
	}

	for _, bot := range bots {
		if bot.TenantID == mainTenantID {
			continue
		}
		if err := m.ConnectBot(bot.TenantID, bot.Token, bot.GuildID); err != nil {
			m.l.Error("Error connecting tenant bot",
				slog.String(logging.KeyTenant, bot.TenantID),
				slog.String(logging.KeyError, err.Error()))
		}
	}
}

// ConnectBot tears down any existing session for the tenant and opens a new
// one. Slash commands are registered against the tenant's guild once the
// session reports ready; a registration failure is logged, not returned.
func (m *Manager) ConnectBot(tenantID, token, guildID string) error {
	m.DisconnectBot(tenantID)

	gw, err := m.dial(token)
	if err != nil {
		return fmt.Errorf("error dialling gateway: %w", err)
	}

	sess := &botSession{
		tenantID: tenantID,
		guildID:  guildID,
		gw:       gw,
	}

	gw.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		m.l.Info("Tenant session ready", slog.String(logging.KeyTenant, tenantID))
		m.registerCommands(sess)
		sess.ready.Store(true)
	})

	gw.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		// Every interaction runs in its own goroutine so a slow provider
		// call for one tenant never delays event delivery for another.
		go m.handleInteraction(sess, i)
	})

	if err := gw.Open(); err != nil {
		return fmt.Errorf("error opening gateway connection: %w", err)
	}

	m.mu.Lock()
	m.sessions[tenantID] = sess
	m.mu.Unlock()

	TotalTenantSessions.Inc()
	return nil
}

// DisconnectBot closes the tenant's session. Idempotent; safe on unknown
// tenants.
func (m *Manager) DisconnectBot(tenantID string) {
	m.mu.Lock()
	sess, ok := m.sessions[tenantID]
	if ok {
		delete(m.sessions, tenantID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	sess.ready.Store(false)
	if err := sess.gw.Close(); err != nil {
		m.l.Warn("Error closing tenant session",
			slog.String(logging.KeyTenant, tenantID),
			slog.String(logging.KeyError, err.Error()))
	}
	TotalTenantSessions.Dec()
}

// DisconnectAll tears down every session.
func (m *Manager) DisconnectAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.DisconnectBot(id)
	}
}

// Session returns the tenant's live gateway only when the session is ready.
// Callers treat false as a soft failure: the surface simply is not updated
// right now.
func (m *Manager) Session(tenantID string) (Gateway, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[tenantID]
	m.mu.RUnlock()

	if !ok || !sess.ready.Load() {
		return nil, false
	}
	return sess.gw, true
}

// Ready reports whether the tenant has a ready session.
func (m *Manager) Ready(tenantID string) bool {
	_, ok := m.Session(tenantID)
	return ok
}

func (m *Manager) registerCommands(sess *botSession) {
	for _, cmd := range commandSet() {
		if _, err := sess.gw.ApplicationCommandCreate(m.appID, sess.guildID, cmd); err != nil {
			m.l.Error("Error registering command",
				slog.String(logging.KeyTenant, sess.tenantID),
				slog.String("command", cmd.Name),
				slog.String(logging.KeyError, err.Error()))
		}
	}
}

func (m *Manager) handleInteraction(sess *botSession, i *discordgo.InteractionCreate) {
	defer func() {
		if rec := recover(); rec != nil {
			m.l.Error("Panic in interaction handler",
				slog.String(logging.KeyTenant, sess.tenantID),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	m.dispatch(sess.tenantID, sess.gw, i)
}
