package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/openstall/marketplace/models"
)

// UserStore is the user side of the document store: profile lookups plus the
// order/sales history appends performed by settlement.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id string, updates bson.M) error
	PrependOrder(ctx context.Context, userID string, order models.Order) error
	PrependSellerGroup(ctx context.Context, sellerID string, group models.SellerOrderGroup) error
}

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *UserRepository) UpdateFields(ctx context.Context, id string, updates bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PrependOrder pushes an order onto the FRONT of the buyer's order history,
// so the history reads most-recent-first without sorting at read time.
func (r *UserRepository) PrependOrder(ctx context.Context, userID string, order models.Order) error {
	update := bson.M{
		"$push": bson.M{
			"order_history": bson.M{
				"$each":     []models.Order{order},
				"$position": 0,
			},
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PrependSellerGroup pushes one seller's slice of a checkout onto the front
// of that seller's sales history.
func (r *UserRepository) PrependSellerGroup(ctx context.Context, sellerID string, group models.SellerOrderGroup) error {
	update := bson.M{
		"$push": bson.M{
			"products_sold": bson.M{
				"$each":     []models.SellerOrderGroup{group},
				"$position": 0,
			},
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": sellerID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
