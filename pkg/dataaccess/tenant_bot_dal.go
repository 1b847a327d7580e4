package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JoshuaLeonard91/ticketdesk/pkg/entities"
	"github.com/JoshuaLeonard91/ticketdesk/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const tenantBotDalName = "tenant_bot_dal"

// TenantBotDal is the data access layer for per-tenant bot credentials.
type TenantBotDal interface {
	// ListEnabledTenantBots lists every tenant bot that should be connected.
	ListEnabledTenantBots(ctx context.Context) ([]*entities.TenantBot, error)

	// GetTenantBot gets one tenant's bot credentials. Returns (nil, nil)
	// when there are none.
	GetTenantBot(ctx context.Context, tenantID string) (*entities.TenantBot, error)
}

type tenantBotDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTenantBotDal creates a new tenant bot data access layer.
func NewTenantBotDal() TenantBotDal {
	l := slog.Default().With(slog.String(logging.KeyDal, tenantBotDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &tenantBotDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *tenantBotDal) ListEnabledTenantBots(ctx context.Context) ([]*entities.TenantBot, error) {
	collection := d.client.Database(mongoDatabase).Collection(collTenantBots)

	t := observe(tenantBotDalName, "list_enabled_tenant_bots", collTenantBots)
	defer t.ObserveDuration()

	cur, err := collection.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("error listing tenant bots: %w", err)
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var bots []*entities.TenantBot
	if err := cur.All(ctx, &bots); err != nil {
		return nil, fmt.Errorf("error decoding tenant bots: %w", err)
	}
	return bots, nil
}

func (d *tenantBotDal) GetTenantBot(ctx context.Context, tenantID string) (*entities.TenantBot, error) {
	collection := d.client.Database(mongoDatabase).Collection(collTenantBots)

	t := observe(tenantBotDalName, "get_tenant_bot", collTenantBots)
	defer t.ObserveDuration()

	bot := new(entities.TenantBot)
	err := collection.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(bot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting tenant bot: %w", err)
	}
	return bot, nil
}
