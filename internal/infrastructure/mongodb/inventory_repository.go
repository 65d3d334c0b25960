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

// InventoryRepository implements domain.InventoryRepository using MongoDB.
// Save deliberately does not open its own session: the reconciliation
// dispatch loop already wraps each message in a transaction and passes
// the session context down, so writes join that transaction.
type InventoryRepository struct {
	collection   *mongo.Collection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *InventoryRepository {
	collection := db.Collection("inventory")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "storeId", Value: 1},
				{Key: "sku", Value: 1},
				{Key: "warehouseId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "inventoryId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
	_ = outboxRepo.EnsureIndexes(ctx)

	return &InventoryRepository{
		collection:   collection,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
}

// Save persists an inventory record and writes its pending domain
// events to the outbox using the caller's context (and transaction,
// if one is active). Updates carry the version the record was loaded
// at in the filter, so a concurrent edit surfaces as
// ErrConcurrentModification instead of a silent overwrite.
func (r *InventoryRepository) Save(ctx context.Context, inv *domain.Inventory) error {
	if inv.PersistedVersion() == 0 {
		if _, err := r.collection.InsertOne(ctx, inv); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrConcurrentModification
			}
			return fmt.Errorf("failed to save inventory: %w", err)
		}
	} else {
		filter := bson.M{
			"storeId":     inv.StoreID,
			"sku":         inv.SKU,
			"warehouseId": inv.WarehouseID,
			"version":     inv.PersistedVersion(),
		}
		result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": inv})
		if err != nil {
			return fmt.Errorf("failed to save inventory: %w", err)
		}
		if result.MatchedCount == 0 {
			return domain.ErrConcurrentModification
		}
	}

	domainEvents := inv.DomainEvents()
	if len(domainEvents) > 0 {
		outboxEvents, err := mapDomainEvents(ctx, r.eventFactory, domainEvents)
		if err != nil {
			return err
		}
		if err := r.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
			return fmt.Errorf("failed to save outbox events: %w", err)
		}
	}

	inv.ClearDomainEvents()
	inv.MarkPersisted()

	return nil
}

// GetOutboxRepository returns the outbox repository backing this store
func (r *InventoryRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}

// FindBySKU retrieves the inventory record for a SKU in a store and
// warehouse, returning nil when none exists
func (r *InventoryRepository) FindBySKU(ctx context.Context, storeID domain.StoreID, sku domain.SKU, warehouseID string) (*domain.Inventory, error) {
	if warehouseID == "" {
		warehouseID = domain.DefaultWarehouseID
	}

	var inv domain.Inventory
	filter := bson.M{
		"storeId":     storeID,
		"sku":         sku,
		"warehouseId": warehouseID,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	inv.MarkPersisted()

	return &inv, nil
}

// FindByStore retrieves all inventory records for a store
func (r *InventoryRepository) FindByStore(ctx context.Context, storeID domain.StoreID, pagination domain.Pagination) ([]*domain.Inventory, error) {
	filter := bson.M{"storeId": storeID}
	opts := options.Find().
		SetSort(bson.D{{Key: "sku", Value: 1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.Inventory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	for _, inv := range records {
		inv.MarkPersisted()
	}

	return records, nil
}

// FindLowStock retrieves records where available stock is at or below
// the reorder point
func (r *InventoryRepository) FindLowStock(ctx context.Context, storeID domain.StoreID) ([]*domain.Inventory, error) {
	filter := bson.M{
		"storeId": storeID,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$subtract": bson.A{"$quantityOnHand", "$quantityReserved"}},
				"$reorderPoint",
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sku", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.Inventory
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	for _, inv := range records {
		inv.MarkPersisted()
	}

	return records, nil
}
