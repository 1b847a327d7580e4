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

const trackerDalName = "tracker_dal"

// TrackerDal is the data access layer for the three message trackers: the
// end-user DM, the staff log message and the optional private ticket channel.
// Every Get returns (nil, nil) when no row exists; every Save is an upsert on
// the tracker's unique key, so "replace the tracked message" and "create the
// first tracker" are the same write.
type TrackerDal interface {
	GetDMTracker(ctx context.Context, tenantID, ticketID, endUserID string) (*entities.TicketDMTracker, error)
	SaveDMTracker(ctx context.Context, tr *entities.TicketDMTracker) error
	ListDMTrackers(ctx context.Context, tenantID, ticketID string) ([]*entities.TicketDMTracker, error)

	GetLogMessage(ctx context.Context, tenantID, ticketID string) (*entities.TicketLogMessage, error)
	SaveLogMessage(ctx context.Context, lm *entities.TicketLogMessage) error

	GetTicketChannel(ctx context.Context, tenantID, ticketID string) (*entities.TicketChannel, error)
	SaveTicketChannel(ctx context.Context, tc *entities.TicketChannel) error
	DeleteTicketChannel(ctx context.Context, tenantID, ticketID string) error
}

type trackerDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTrackerDal creates a new tracker data access layer.
func NewTrackerDal() TrackerDal {
	l := slog.Default().With(slog.String(logging.KeyDal, trackerDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &trackerDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *trackerDal) GetDMTracker(ctx context.Context, tenantID, ticketID, endUserID string) (*entities.TicketDMTracker, error) {
	collection := d.client.Database(mongoDatabase).Collection(collDMTrackers)

	t := observe(trackerDalName, "get_dm_tracker", collDMTrackers)
	defer t.ObserveDuration()

	tr := new(entities.TicketDMTracker)
	err := collection.FindOne(ctx, bson.M{
		"tenant_id":   tenantID,
		"ticket_id":   ticketID,
		"end_user_id": endUserID,
	}).Decode(tr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting dm tracker: %w", err)
	}
	return tr, nil
}

func (d *trackerDal) SaveDMTracker(ctx context.Context, tr *entities.TicketDMTracker) error {
	collection := d.client.Database(mongoDatabase).Collection(collDMTrackers)

	t := observe(trackerDalName, "save_dm_tracker", collDMTrackers)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{
		"tenant_id":   tr.TenantID,
		"ticket_id":   tr.TicketID,
		"end_user_id": tr.EndUserID,
	}, bson.M{"$set": tr}, opts)
	if err != nil {
		return fmt.Errorf("error updating dm tracker: %w", err)
	}
	return nil
}

func (d *trackerDal) ListDMTrackers(ctx context.Context, tenantID, ticketID string) ([]*entities.TicketDMTracker, error) {
	collection := d.client.Database(mongoDatabase).Collection(collDMTrackers)

	t := observe(trackerDalName, "list_dm_trackers", collDMTrackers)
	defer t.ObserveDuration()

	cur, err := collection.Find(ctx, bson.M{
		"tenant_id": tenantID,
		"ticket_id": ticketID,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing dm trackers: %w", err)
	}
	defer func() {
		_ = cur.Close(ctx)
	}()

	var trackers []*entities.TicketDMTracker
	if err := cur.All(ctx, &trackers); err != nil {
		return nil, fmt.Errorf("error decoding dm trackers: %w", err)
	}
	return trackers, nil
}

func (d *trackerDal) GetLogMessage(ctx context.Context, tenantID, ticketID string) (*entities.TicketLogMessage, error) {
	collection := d.client.Database(mongoDatabase).Collection(collLogMessages)

	t := observe(trackerDalName, "get_log_message", collLogMessages)
	defer t.ObserveDuration()

	lm := new(entities.TicketLogMessage)
	err := collection.FindOne(ctx, bson.M{
		"tenant_id": tenantID,
		"ticket_id": ticketID,
	}).Decode(lm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting log message: %w", err)
	}
	return lm, nil
}

func (d *trackerDal) SaveLogMessage(ctx context.Context, lm *entities.TicketLogMessage) error {
	collection := d.client.Database(mongoDatabase).Collection(collLogMessages)

	t := observe(trackerDalName, "save_log_message", collLogMessages)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{
		"tenant_id": lm.TenantID,
		"ticket_id": lm.TicketID,
	}, bson.M{"$set": lm}, opts)
	if err != nil {
		return fmt.Errorf("error updating log message: %w", err)
	}
	return nil
}

func (d *trackerDal) GetTicketChannel(ctx context.Context, tenantID, ticketID string) (*entities.TicketChannel, error) {
	collection := d.client.Database(mongoDatabase).Collection(collTicketChannels)

	t := observe(trackerDalName, "get_ticket_channel", collTicketChannels)
	defer t.ObserveDuration()

	tc := new(entities.TicketChannel)
	err := collection.FindOne(ctx, bson.M{
		"tenant_id": tenantID,
		"ticket_id": ticketID,
	}).Decode(tc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket channel: %w", err)
	}
	return tc, nil
}

func (d *trackerDal) SaveTicketChannel(ctx context.Context, tc *entities.TicketChannel) error {
	collection := d.client.Database(mongoDatabase).Collection(collTicketChannels)

	t := observe(trackerDalName, "save_ticket_channel", collTicketChannels)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{
		"tenant_id": tc.TenantID,
		"ticket_id": tc.TicketID,
	}, bson.M{"$set": tc}, opts)
	if err != nil {
		return fmt.Errorf("error updating ticket channel: %w", err)
	}
	return nil
}

func (d *trackerDal) DeleteTicketChannel(ctx context.Context, tenantID, ticketID string) error {
	collection := d.client.Database(mongoDatabase).Collection(collTicketChannels)

	t := observe(trackerDalName, "delete_ticket_channel", collTicketChannels)
	defer t.ObserveDuration()

	if _, err := collection.DeleteOne(ctx, bson.M{
		"tenant_id": tenantID,
		"ticket_id": ticketID,
	}); err != nil {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}
	return nil
}
