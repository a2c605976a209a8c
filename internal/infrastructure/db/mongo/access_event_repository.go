package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

const (
	accessEventsCollection = "access_events"
	maxListLimit           = 500
)

// AccessEventRepository implements ports.AccessEventRepository using MongoDB.
type AccessEventRepository struct {
	coll *mongo.Collection
}

var _ ports.AccessEventRepository = (*AccessEventRepository)(nil)

// NewAccessEventRepository creates a new AccessEventRepository.
func NewAccessEventRepository(db *mongo.Database) *AccessEventRepository {
	return &AccessEventRepository{coll: db.Collection(accessEventsCollection)}
}

type mongoAccessEvent struct {
	ID          string    `bson:"_id"`
	Kind        string    `bson:"kind"`
	SubjectID   string    `bson:"subject_id,omitempty"`
	Role        string    `bson:"role,omitempty"`
	Path        string    `bson:"path"`
	Target      string    `bson:"target,omitempty"`
	Reason      string    `bson:"reason,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// EnsureIndexes creates the indexes used by ListRecent and per-subject lookups.
func (r *AccessEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("access events indexes: %w", err)
	}
	return nil
}

// InsertEvent persists an event to the access_events audit collection.
// Re-inserting an event with a known id is a no-op.
func (r *AccessEventRepository) InsertEvent(ctx context.Context, event *domain.AccessEvent) error {
	doc := mongoAccessEvent{
		ID:          event.ID,
		Kind:        string(event.Kind),
		SubjectID:   event.SubjectID,
		Role:        string(event.Role),
		Path:        event.Path,
		Target:      event.Target,
		Reason:      event.Reason,
		OccurredAt:  event.OccurredAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert access event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first.
func (r *AccessEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AccessEvent, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list access events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoAccessEvent
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode access events: %w", err)
	}

	events := make([]*domain.AccessEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.AccessEvent{
			ID:         d.ID,
			Kind:       domain.AccessEventKind(d.Kind),
			SubjectID:  d.SubjectID,
			Role:       domain.Role(d.Role),
			Path:       d.Path,
			Target:     d.Target,
			Reason:     d.Reason,
			OccurredAt: d.OccurredAt.UTC(),
		})
	}
	return events, nil
}
