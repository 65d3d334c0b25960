package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pos-platform/pos/internal/domain"
)

// InventoryTransactionRepository implements the append-only stock
// movement ledger on MongoDB. Entries are only ever inserted.
type InventoryTransactionRepository struct {
	collection *mongo.Collection
}

// NewInventoryTransactionRepository creates a new InventoryTransactionRepository
func NewInventoryTransactionRepository(db *mongo.Database) *InventoryTransactionRepository {
	collection := db.Collection("inventory_transactions")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "storeId", Value: 1},
				{Key: "sku", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "referenceType", Value: 1},
				{Key: "referenceId", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "sourceEventId", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &InventoryTransactionRepository{collection: collection}
}

// Insert appends a ledger entry
func (r *InventoryTransactionRepository) Insert(ctx context.Context, tx *domain.InventoryTransaction) error {
	_, err := r.collection.InsertOne(ctx, tx)
	return err
}

// InsertAll appends multiple ledger entries
func (r *InventoryTransactionRepository) InsertAll(ctx context.Context, txs []*domain.InventoryTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(txs))
	for _, tx := range txs {
		docs = append(docs, tx)
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindBySKU retrieves ledger entries for a SKU, newest first
func (r *InventoryTransactionRepository) FindBySKU(ctx context.Context, storeID domain.StoreID, sku domain.SKU, pagination domain.Pagination) ([]*domain.InventoryTransaction, error) {
	filter := bson.M{"storeId": storeID, "sku": sku}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	return r.findMany(ctx, filter, opts)
}

// FindByReference retrieves ledger entries created for a reference
func (r *InventoryTransactionRepository) FindByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.InventoryTransaction, error) {
	filter := bson.M{"referenceType": referenceType, "referenceId": referenceID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	return r.findMany(ctx, filter, opts)
}

func (r *InventoryTransactionRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.InventoryTransaction, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []*domain.InventoryTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}
