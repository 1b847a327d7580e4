package dataaccess

import (
	"github.com/JoshuaLeonard91/ticketdesk/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool.
var MongoDB *mongo.Client

const mongoDatabase = "ticketdesk"

// Collection names.
const (
	collBotConfigs      = "bot_configs"
	collTenantBots      = "tenant_bots"
	collStaffMappings   = "staff_mappings"
	collDMTrackers      = "dm_trackers"
	collLogMessages     = "log_messages"
	collTicketChannels  = "ticket_channels"
	collTicketSummaries = "ticket_summaries"
	collTenantProviders = "tenant_providers"
)

// observe counts the query and returns a latency timer for it. Callers defer
// ObserveDuration on the result.
func observe(dal, query, collection string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(dal, query, mongoDatabase, collection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(dal, query, mongoDatabase, collection))
}
