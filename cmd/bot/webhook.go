package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/request"
	"github.com/gorilla/mux"
)

// webhookEvent is the slice of the tracker's webhook payload the bot needs.
type webhookEvent struct {
	Issue struct {
		Key string `json:"key"`
	} `json:"issue"`
}

// webhookHandler accepts issue-updated callbacks from the ticket tracker and
// re-renders the ticket's message surfaces. Events for tickets the bot has
// never seen are acknowledged and dropped, since trackers carry plenty of
// unrelated traffic.
func (a *App) webhookHandler() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenant_id"]
		l := a.With(slog.String(logging.KeyTenant, tenantID))

		var ev webhookEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Issue.Key == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(request.NewMessage("missing issue key"))
			return
		}
		l = l.With(slog.String(logging.KeyTicket, ev.Issue.Key))

		sum, err := a.summaries.GetSummary(r.Context(), tenantID, ev.Issue.Key)
		if err != nil {
			l.Error("Error getting summary for webhook", slog.String(logging.KeyError, err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(request.NewMessage(request.ErrInternalServer.Error()))
			return
		}
		if sum == nil {
			// Not a ticket the bot manages.
			w.WriteHeader(http.StatusNoContent)
			return
		}

		gw, ok := a.manager.Session(tenantID)
		if !ok {
			l.Warn("Webhook received but tenant session is not connected")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(request.NewMessage("tenant session not connected"))
			return
		}

		a.spawn(func() {
			a.syncSurfaces(context.Background(), l, tenantID, gw, ev.Issue.Key)
		})

		w.WriteHeader(http.StatusAccepted)
	}
}
