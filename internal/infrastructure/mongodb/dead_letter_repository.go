package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/kafka"
)

// DeadLetterRepository implements domain.DeadLetterRepository and acts
// as the consumer's kafka.DeadLetterSink: messages that exhaust their
// retry budget are stored here before the offset is committed.
type DeadLetterRepository struct {
	collection *mongo.Collection
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *mongo.Database) *DeadLetterRepository {
	collection := db.Collection("dead_letters")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entryId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "resolved", Value: 1},
				{Key: "createdAt", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "eventType", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &DeadLetterRepository{collection: collection}
}

// Store implements kafka.DeadLetterSink
func (r *DeadLetterRepository) Store(ctx context.Context, letter kafka.DeadLetter) error {
	entry := domain.NewDeadLetterEntry(
		letter.Topic,
		letter.Partition,
		letter.Offset,
		letter.EventType,
		letter.EventID,
		letter.Payload,
		letter.FailureReason,
		time.Now().UTC(),
	)

	entry.RecordAttempt(letter.Attempts, letter.FailureReason, time.Now().UTC())

	return r.Save(ctx, entry)
}

// Save persists a dead letter entry (upsert)
func (r *DeadLetterRepository) Save(ctx context.Context, entry *domain.DeadLetterEntry) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"entryId": entry.EntryID}
	update := bson.M{"$set": entry}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByID retrieves a dead letter entry by its EntryID
func (r *DeadLetterRepository) FindByID(ctx context.Context, entryID string) (*domain.DeadLetterEntry, error) {
	var entry domain.DeadLetterEntry
	filter := bson.M{"entryId": entryID}

	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// FindUnresolved retrieves unresolved entries, oldest first
func (r *DeadLetterRepository) FindUnresolved(ctx context.Context, pagination domain.Pagination) ([]*domain.DeadLetterEntry, error) {
	filter := bson.M{"resolved": false}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*domain.DeadLetterEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}
