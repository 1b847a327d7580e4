package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/dataaccess"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ephemeral"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/request"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for health check.
	PathHealth = "/health"

	// PathWebhook is the path the ticket tracker posts issue updates to.
	PathWebhook = "/webhook/{tenant_id}"
)

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// manager owns the per-tenant discord sessions.
	manager *Manager

	// providers resolves the ticket tracker adapter for a tenant.
	providers *ticketing.Resolver

	configs   dataaccess.BotConfigDal
	tenants   dataaccess.TenantBotDal
	staff     dataaccess.StaffMappingDal
	trackers  dataaccess.TrackerDal
	summaries dataaccess.SummaryDal
	creds     dataaccess.TenantProviderDal

	// wizards holds in-flight setup wizards, keyed by tenant.
	wizards *ephemeral.Store[WizardState]

	// selections holds panel picks awaiting the detail form, keyed by
	// tenant and user.
	selections *ephemeral.Store[PanelSelection]

	// cooldowns holds claim cooldowns, keyed by tenant and staff member.
	cooldowns *ephemeral.Store[AssignmentCooldown]

	// run executes best-effort follow-up work. Defaults to a goroutine;
	// swappable for tests.
	run func(fn func())
}

// spawn runs fn without blocking the interaction path.
func (a *App) spawn(fn func()) {
	if a.run != nil {
		a.run(fn)
		return
	}
	go fn()
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	a.configs = dataaccess.NewBotConfigDal()
	a.tenants = dataaccess.NewTenantBotDal()
	a.staff = dataaccess.NewStaffMappingDal()
	a.trackers = dataaccess.NewTrackerDal()
	a.summaries = dataaccess.NewSummaryDal()
	a.creds = dataaccess.NewTenantProviderDal()

	a.wizards = newWizardStore()
	a.selections = newSelectionStore()
	a.cooldowns = newCooldownStore()

	if err := a.registerProviders(); err != nil {
		return fmt.Errorf("error registering ticket providers: %w", err)
	}

	a.manager = NewManager(a.Logger, ApplicationId, dialDiscord, a.handleInteraction)
	a.manager.Initialize(context.Background(), MainTenantId, BotToken, MainGuildId, a.tenants)

	a.Info("Bot sessions are now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

// registerProviders builds the main tenant's adapter from the environment and
// wraps it in the resolver that serves every other tenant from stored
// credentials.
func (a *App) registerProviders() error {
	var main ticketing.Adapter
	if JiraBaseUrl != "" {
		adapter, err := ticketing.NewJiraAdapter(ticketing.JiraConfig{
			BaseURL:    JiraBaseUrl,
			Email:      JiraEmail,
			APIToken:   JiraApiToken,
			ProjectKey: JiraProjectKey,
		})
		if err != nil {
			return fmt.Errorf("error creating main tenant adapter: %w", err)
		}
		main = adapter
	} else {
		a.Warn("No tracker configured for the main tenant, ticket operations will fail there")
	}

	a.providers = ticketing.NewResolver(MainTenantId, main, &providerConfigSource{creds: a.creds})
	return nil
}

func (a *App) ShutdownHook() error {
	a.manager.DisconnectAll()

	a.wizards.Close()
	a.selections.Close()
	a.cooldowns.Close()

	if dataaccess.MongoDB != nil {
		if err := dataaccess.MongoDB.Disconnect(context.Background()); err != nil {
			return fmt.Errorf("error disconnecting from database: %w", err)
		}
	}
	return nil
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck())).Methods(http.MethodGet)

	// PathWebhook is the path for tracker issue updates.
	a.r.HandleFunc(PathWebhook, middlewareHttp(a.webhookHandler())).Methods(http.MethodPost)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) runServer() {
	go func() {
		slog.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

// providerConfigSource adapts the tenant provider DAL to the resolver's
// config lookup.
type providerConfigSource struct {
	creds dataaccess.TenantProviderDal
}

func (p *providerConfigSource) ProviderConfig(ctx context.Context, tenantID string) (*ticketing.JiraConfig, error) {
	tp, err := p.creds.GetTenantProvider(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("error getting tenant provider credentials: %w", err)
	} else if tp == nil {
		return nil, nil
	}
	return &ticketing.JiraConfig{
		BaseURL:    tp.BaseURL,
		Email:      tp.Email,
		APIToken:   tp.APIToken,
		ProjectKey: tp.ProjectKey,
	}, nil
}
