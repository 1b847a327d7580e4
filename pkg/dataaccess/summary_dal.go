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

const summaryDalName = "summary_dal"

// SummaryDal is the data access layer for ticket summaries, the persisted
// projection that message rendering reads instead of re-parsing rendered
// text.
type SummaryDal interface {
	// GetSummary gets the summary for a ticket. Returns (nil, nil) when the
	// ticket is unknown.
	GetSummary(ctx context.Context, tenantID, ticketID string) (*entities.TicketSummary, error)

	// SaveSummary upserts the summary for a ticket.
	SaveSummary(ctx context.Context, s *entities.TicketSummary) error
}

type summaryDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewSummaryDal creates a new summary data access layer.
func NewSummaryDal() SummaryDal {
	l := slog.Default().With(slog.String(logging.KeyDal, summaryDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &summaryDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *summaryDal) GetSummary(ctx context.Context, tenantID, ticketID string) (*entities.TicketSummary, error) {
	collection := d.client.Database(mongoDatabase).Collection(collTicketSummaries)

	t := observe(summaryDalName, "get_summary", collTicketSummaries)
	defer t.ObserveDuration()

	s := new(entities.TicketSummary)
	err := collection.FindOne(ctx, bson.M{
		"tenant_id": tenantID,
		"ticket_id": ticketID,
	}).Decode(s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting summary: %w", err)
	}
	return s, nil
}

func (d *summaryDal) SaveSummary(ctx context.Context, s *entities.TicketSummary) error {
	collection := d.client.Database(mongoDatabase).Collection(collTicketSummaries)

	t := observe(summaryDalName, "save_summary", collTicketSummaries)
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{
		"tenant_id": s.TenantID,
		"ticket_id": s.TicketID,
	}, bson.M{"$set": s}, opts)
	if err != nil {
		return fmt.Errorf("error updating summary: %w", err)
	}
	return nil
}
