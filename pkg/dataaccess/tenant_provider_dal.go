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

const tenantProviderDalName = "tenant_provider_dal"

// TenantProviderDal is the data access layer for per-tenant ticket tracker
// credentials, written by the dashboard.
type TenantProviderDal interface {
	// GetTenantProvider gets one tenant's tracker credentials. Returns
	// (nil, nil) when the tenant has none configured.
	GetTenantProvider(ctx context.Context, tenantID string) (*entities.TenantProvider, error)
}

type tenantProviderDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTenantProviderDal creates a new tenant provider data access layer.
func NewTenantProviderDal() TenantProviderDal {
	l := slog.Default().With(slog.String(logging.KeyDal, tenantProviderDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &tenantProviderDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *tenantProviderDal) GetTenantProvider(ctx context.Context, tenantID string) (*entities.TenantProvider, error) {
	collection := d.client.Database(mongoDatabase).Collection(collTenantProviders)

	t := observe(tenantProviderDalName, "get_tenant_provider", collTenantProviders)
	defer t.ObserveDuration()

	p := new(entities.TenantProvider)
	err := collection.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting tenant provider: %w", err)
	}
	return p, nil
}
