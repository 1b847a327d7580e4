package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// webhookServer mounts the webhook handler on a router so mux path vars
// resolve the way they do in production.
func webhookServer(ta *testApp) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(PathWebhook, ta.app.webhookHandler()).Methods(http.MethodPost)
	return r
}

func readySession(ta *testApp, t *testing.T) {
	t.Helper()
	m := NewManager(testLogger(t), "app-1", nil, nil)
	sess := &botSession{tenantID: testTenant, gw: ta.gw}
	sess.ready.Store(true)
	m.sessions[testTenant] = sess
	ta.app.manager = m
}

func postWebhook(r *mux.Router, tenantID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+tenantID, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	ta := newTestApp(t)
	r := webhookServer(ta)

	require.Equal(t, http.StatusBadRequest, postWebhook(r, testTenant, "{not json").Code)
	require.Equal(t, http.StatusBadRequest, postWebhook(r, testTenant, `{"issue":{}}`).Code)
}

func TestWebhookDropsUnknownTickets(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	r := webhookServer(ta)

	rec := postWebhook(r, testTenant, `{"issue":{"key":"TD-404"}}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebhookWithoutSessionIsUnavailable(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	ta.app.manager = NewManager(testLogger(t), "app-1", nil, nil)
	r := webhookServer(ta)

	rec := postWebhook(r, testTenant, `{"issue":{"key":"`+ticketID+`"}}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhookSyncsKnownTicket(t *testing.T) {
	ta := newTestApp(t)
	ta.defaultConfig(t)
	ticketID := seedTicket(t, ta)
	readySession(ta, t)
	r := webhookServer(ta)

	lm, err := ta.trackers.GetLogMessage(context.Background(), testTenant, ticketID)
	require.NoError(t, err)
	require.NotNil(t, lm)

	rec := postWebhook(r, testTenant, `{"issue":{"key":"`+ticketID+`"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// The sync ran synchronously through the test run hook and refreshed
	// the log message in place.
	edited := false
	for _, e := range ta.gw.edits {
		if e.ID == lm.MessageID {
			edited = true
		}
	}
	require.True(t, edited)
}
