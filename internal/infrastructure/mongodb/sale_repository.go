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
	"github.com/pos-platform/pos/pkg/outbox"
	outboxMongo "github.com/pos-platform/pos/pkg/outbox/mongodb"
)

// SaleRepository implements domain.SaleRepository using MongoDB
type SaleRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *SaleRepository {
	collection := db.Collection("sales")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "saleId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "transactionNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "storeId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "storeId", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
	_ = outboxRepo.EnsureIndexes(ctx)

	return &SaleRepository{
		collection:   collection,
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// Save persists a sale with its domain events in a single transaction.
// Updates carry the version the sale was loaded at in the filter, so a
// concurrent edit surfaces as ErrConcurrentModification instead of a
// silent overwrite.
func (r *SaleRepository) Save(ctx context.Context, sale *domain.Sale) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if sale.PersistedVersion() == 0 {
			if _, err := r.collection.InsertOne(sessCtx, sale); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, domain.ErrConcurrentModification
				}
				return nil, fmt.Errorf("failed to save sale: %w", err)
			}
		} else {
			filter := bson.M{"saleId": sale.SaleID, "version": sale.PersistedVersion()}
			result, err := r.collection.UpdateOne(sessCtx, filter, bson.M{"$set": sale})
			if err != nil {
				return nil, fmt.Errorf("failed to save sale: %w", err)
			}
			if result.MatchedCount == 0 {
				return nil, domain.ErrConcurrentModification
			}
		}

		domainEvents := sale.DomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents, err := mapDomainEvents(sessCtx, r.eventFactory, domainEvents)
			if err != nil {
				return nil, err
			}
			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		sale.ClearDomainEvents()

		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	sale.MarkPersisted()

	return nil
}

// FindByID retrieves a sale by its SaleID
func (r *SaleRepository) FindByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	var sale domain.Sale
	filter := bson.M{"saleId": saleID}

	err := r.collection.FindOne(ctx, filter).Decode(&sale)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	sale.MarkPersisted()

	return &sale, nil
}

// FindByTransactionNumber retrieves a sale by its transaction number
func (r *SaleRepository) FindByTransactionNumber(ctx context.Context, transactionNumber string) (*domain.Sale, error) {
	var sale domain.Sale
	filter := bson.M{"transactionNumber": transactionNumber}

	err := r.collection.FindOne(ctx, filter).Decode(&sale)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	sale.MarkPersisted()

	return &sale, nil
}

// FindByStore retrieves sales for a store, newest first
func (r *SaleRepository) FindByStore(ctx context.Context, storeID domain.StoreID, status *domain.SaleStatus, pagination domain.Pagination) ([]*domain.Sale, error) {
	filter := bson.M{"storeId": storeID}
	if status != nil {
		filter["status"] = *status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sales []*domain.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, err
	}

	for _, sale := range sales {
		sale.MarkPersisted()
	}

	return sales, nil
}

// Count returns the number of sales matching the filter
func (r *SaleRepository) Count(ctx context.Context, filter domain.SaleFilter) (int64, error) {
	mongoFilter := bson.M{}
	if filter.StoreID != nil {
		mongoFilter["storeId"] = *filter.StoreID
	}
	if filter.TerminalID != nil {
		mongoFilter["terminalId"] = *filter.TerminalID
	}
	if filter.Status != nil {
		mongoFilter["status"] = *filter.Status
	}

	return r.collection.CountDocuments(ctx, mongoFilter)
}

// GetOutboxRepository returns the outbox repository backing this store
func (r *SaleRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}
