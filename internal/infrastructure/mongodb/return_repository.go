package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/cloudevents"
	outboxMongo "github.com/pos-platform/pos/pkg/outbox/mongodb"
)

// ReturnRepository implements domain.ReturnRepository using MongoDB
type ReturnRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewReturnRepository creates a new ReturnRepository
func NewReturnRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *ReturnRepository {
	collection := db.Collection("returns")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "returnId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "returnNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "originalSaleId", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "storeId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
	_ = outboxRepo.EnsureIndexes(ctx)

	return &ReturnRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// Save persists a return with its domain events in a single transaction.
// Updates carry the version the return was loaded at in the filter, so a
// concurrent edit surfaces as ErrConcurrentModification instead of a
// silent overwrite.
func (r *ReturnRepository) Save(ctx context.Context, ret *domain.Return) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if ret.PersistedVersion() == 0 {
			if _, err := r.collection.InsertOne(sessCtx, ret); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, domain.ErrConcurrentModification
				}
				return nil, fmt.Errorf("failed to save return: %w", err)
			}
		} else {
			filter := bson.M{"returnId": ret.ReturnID, "version": ret.PersistedVersion()}
			result, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": ret})
			if err != nil {
				return nil, fmt.Errorf("failed to save return: %w", err)
			}
			if result.MatchedCount == 0 {
				return nil, domain.ErrConcurrentModification
			}
		}

		domainEvents := ret.DomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents, err := mapDomainEvents(sessCtx, r.eventFactory, domainEvents)
			if err != nil {
				return nil, err
			}
			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		ret.ClearDomainEvents()

		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	ret.MarkPersisted()

	return nil
}

// FindByID retrieves a return by its ReturnID
func (r *ReturnRepository) FindByID(ctx context.Context, returnID string) (*domain.Return, error) {
	var ret domain.Return
	filter := bson.M{"returnId": returnID}

	err := r.collection.FindOne(ctx, filter).Decode(&ret)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	ret.MarkPersisted()

	return &ret, nil
}

// FindBySaleID retrieves all returns created against a sale
func (r *ReturnRepository) FindBySaleID(ctx context.Context, saleID string) ([]*domain.Return, error) {
	filter := bson.M{"originalSaleId": saleID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var returns []*domain.Return
	if err := cursor.All(ctx, &returns); err != nil {
		return nil, err
	}

	for _, ret := range returns {
		ret.MarkPersisted()
	}

	return returns, nil
}

// FindByStore retrieves returns for a store, newest first
func (r *ReturnRepository) FindByStore(ctx context.Context, storeID domain.StoreID, pagination domain.Pagination) ([]*domain.Return, error) {
	filter := bson.M{"storeId": storeID}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var returns []*domain.Return
	if err := cursor.All(ctx, &returns); err != nil {
		return nil, err
	}

	for _, ret := range returns {
		ret.MarkPersisted()
	}

	return returns, nil
}
