package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openstall/marketplace/models"
)

// ProductStore is the product side of the document store plus the inventory
// ledger. DecrementStock is the sole stock validation point.
type ProductStore interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*models.Product, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id string, updates bson.M) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	DecrementStock(ctx context.Context, id string, amount int) (int, error)
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]*models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.collection.CountDocuments(ctx, filter)
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	_, err := r.collection.InsertOne(ctx, product)
	return err
}

func (r *ProductRepository) Update(ctx context.Context, id string, updates bson.M) (int64, error) {
	updates["updated_at"] = time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DecrementStock atomically decrements a product's quantity if and only if
// at least amount units are available, returning the new quantity. The
// filter-and-inc runs as one document update, so concurrent checkouts for
// the same product cannot oversell. Returns ErrInsufficientStock when the
// product exists but stock is short, ErrNotFound when the product is gone.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	filter := bson.M{"_id": id, "quantity": bson.M{"$gte": amount}}
	update := bson.M{
		"$inc": bson.M{"quantity": -amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// No match: either the product is gone or stock is short.
		if _, lookupErr := r.FindByID(ctx, id); lookupErr != nil {
			return 0, lookupErr
		}
		return 0, ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return updated.Quantity, nil
}
