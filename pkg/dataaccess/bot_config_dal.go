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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const botConfigDalName = "bot_config_dal"

// BotConfigDal is the data access layer for per-tenant bot configuration.
type BotConfigDal interface {
	// GetBotConfig gets the configuration for a tenant. Returns (nil, nil)
	// when the tenant has none.
	GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error)

	// SaveBotConfig upserts the configuration for a tenant.
	SaveBotConfig(ctx context.Context, cfg *entities.BotConfig) error
}

type botConfigDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewBotConfigDal creates a new bot configuration data access layer.
func NewBotConfigDal() BotConfigDal {
	l := slog.Default().With(slog.String(logging.KeyDal, botConfigDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &botConfigDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *botConfigDal) GetBotConfig(ctx context.Context, tenantID string) (*entities.BotConfig, error) {
	collection := d.client.Database(mongoDatabase).Collection(collBotConfigs)

	t := observe(botConfigDalName, "get_bot_config", collBotConfigs)
	defer t.ObserveDuration()

	cfg := new(entities.BotConfig)
	err := collection.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting bot config: %w", err)
	}
	return cfg, nil
}

func (d *botConfigDal) SaveBotConfig(ctx context.Context, cfg *entities.BotConfig) error {
	collection := d.client.Database(mongoDatabase).Collection(collBotConfigs)

	t := observe(botConfigDalName, "save_bot_config", collBotConfigs)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"tenant_id": cfg.TenantID}, bson.M{"$set": cfg}, opts)
	if err != nil {
		return fmt.Errorf("error updating bot config: %w", err)
	}
	return nil
}
