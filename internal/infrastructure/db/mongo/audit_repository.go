package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

const eventsCollection = "consultation_events"

// AuditRepository appends consultation workflow events to consultation_events.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(eventsCollection)}
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

type eventDocument struct {
	ConsultationID string            `bson:"consultation_id"`
	Type           string            `bson:"type"`
	ActorID        string            `bson:"actor_id"`
	Status         string            `bson:"status"`
	Notifications  map[string]string `bson:"notifications,omitempty"`
	Timestamp      time.Time         `bson:"timestamp"`
	RecordedAt     time.Time         `bson:"recorded_at"`
}

func toEventDocument(e *domain.ConsultationEvent, recordedAt time.Time) eventDocument {
	doc := eventDocument{
		ConsultationID: e.ConsultationID,
		Type:           string(e.Type),
		ActorID:        e.ActorID,
		Status:         string(e.Status),
		Timestamp:      e.Timestamp.UTC(),
		RecordedAt:     recordedAt.UTC(),
	}
	if len(e.Notifications) > 0 {
		doc.Notifications = make(map[string]string, len(e.Notifications))
		for r, s := range e.Notifications {
			doc.Notifications[string(r)] = string(s)
		}
	}
	return doc
}

// InsertEvent persists one audit record.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.ConsultationEvent) error {
	_, err := r.col.InsertOne(ctx, toEventDocument(event, time.Now()))
	return err
}

// EnsureIndexes creates the lookup indexes on consultation_events.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "consultation_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
