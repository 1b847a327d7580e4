package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/dataaccess"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/dataaccess/connection"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"github.com/joho/godotenv"
)

const (
	// AppName is the name of the application.
	AppName = "ticketdesk"

	// EnvBotToken is the environment variable for the main tenant's bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMainTenantId is the environment variable for the main tenant's ID.
	EnvMainTenantId = `MAIN_TENANT_ID`

	// EnvMainGuildId is the environment variable for the main tenant's guild.
	EnvMainGuildId = `MAIN_GUILD_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvJiraBaseUrl is the environment variable for the main tenant's Jira URL.
	EnvJiraBaseUrl = `JIRA_BASE_URL`

	// EnvJiraEmail is the environment variable for the main tenant's Jira email.
	EnvJiraEmail = `JIRA_EMAIL`

	// EnvJiraApiToken is the environment variable for the main tenant's Jira token.
	EnvJiraApiToken = `JIRA_API_TOKEN`

	// EnvJiraProjectKey is the environment variable for the main tenant's Jira project.
	EnvJiraProjectKey = `JIRA_PROJECT_KEY`
)

var (
	// BotToken is the token for the main tenant's bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// MainTenantId is the tenant ID that the environment-configured bot and
	// provider belong to.
	MainTenantId string

	// MainGuildId is the guild served by the main tenant's bot.
	MainGuildId string

	// MongoUri is the URI for the MongoDB database.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// JiraBaseUrl is the main tenant's Jira base URL.
	JiraBaseUrl string

	// JiraEmail is the main tenant's Jira account email.
	JiraEmail string

	// JiraApiToken is the main tenant's Jira API token.
	JiraApiToken string

	// JiraProjectKey is the main tenant's Jira project key.
	JiraProjectKey string
)

func parseConfig(l *slog.Logger) {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envTenant := os.Getenv(EnvMainTenantId); envTenant != "" {
		MainTenantId = envTenant
	} else {
		MainTenantId = "main"
	}

	if envGuild := os.Getenv(EnvMainGuildId); envGuild != "" {
		l.Debug("Found main guild ID in environment", slog.String("key", EnvMainGuildId))
		MainGuildId = envGuild
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	JiraBaseUrl = os.Getenv(EnvJiraBaseUrl)
	JiraEmail = os.Getenv(EnvJiraEmail)
	JiraApiToken = os.Getenv(EnvJiraApiToken)
	JiraProjectKey = os.Getenv(EnvJiraProjectKey)

	if BotToken != "" &&
		ApplicationId != "" &&
		MainGuildId != "" &&
		MongoUri != "" {

		// All required environment variables have been provided.
		l.Debug("All required environment variables have been provided")
		connectMongo(l)
		return
	}

	l.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
	os.Exit(1)
}

func connectMongo(l *slog.Logger) {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect(context.Background())
	if err != nil {
		l.Error("Error connecting to mongo", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	} else if db == nil {
		l.Error("MongoDB came back nil", slog.String(logging.KeyError, "MongoDB came back nil"))
		os.Exit(1)
	}

	dataaccess.MongoDB = db
	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
}
