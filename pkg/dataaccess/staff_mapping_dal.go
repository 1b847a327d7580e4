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

const staffMappingDalName = "staff_mapping_dal"

// StaffMappingDal is the data access layer for staff identity mappings. The
// mappings themselves are created and deleted by the dashboard; the bot only
// reads and removes them.
type StaffMappingDal interface {
	// GetStaffMapping gets the mapping for a discord user in a tenant.
	// Returns (nil, nil) when the user has none, which the flows treat as
	// "not staff".
	GetStaffMapping(ctx context.Context, tenantID, discordUserID string) (*entities.StaffMapping, error)

	// DeleteStaffMapping removes a mapping. Deleting an absent mapping is
	// not an error.
	DeleteStaffMapping(ctx context.Context, tenantID, discordUserID string) error
}

type staffMappingDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewStaffMappingDal creates a new staff mapping data access layer.
func NewStaffMappingDal() StaffMappingDal {
	l := slog.Default().With(slog.String(logging.KeyDal, staffMappingDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &staffMappingDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *staffMappingDal) GetStaffMapping(ctx context.Context, tenantID, discordUserID string) (*entities.StaffMapping, error) {
	collection := d.client.Database(mongoDatabase).Collection(collStaffMappings)

	t := observe(staffMappingDalName, "get_staff_mapping", collStaffMappings)
	defer t.ObserveDuration()

	m := new(entities.StaffMapping)
	err := collection.FindOne(ctx, bson.M{
		"tenant_id":       tenantID,
		"discord_user_id": discordUserID,
	}).Decode(m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting staff mapping: %w", err)
	}
	return m, nil
}

func (d *staffMappingDal) DeleteStaffMapping(ctx context.Context, tenantID, discordUserID string) error {
	collection := d.client.Database(mongoDatabase).Collection(collStaffMappings)

	t := observe(staffMappingDalName, "delete_staff_mapping", collStaffMappings)
	defer t.ObserveDuration()

	if _, err := collection.DeleteOne(ctx, bson.M{
		"tenant_id":       tenantID,
		"discord_user_id": discordUserID,
	}); err != nil {
		return fmt.Errorf("error deleting staff mapping: %w", err)
	}
	return nil
}
