package mongo

import (
	"context"
	"errors"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const subscriptionCollectionName = "subscriptions"

// mongoSubscriptionRepository implements repository.SubscriptionRepository
// using MongoDB.
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

// Upsert creates an active subscription for (user, plan) or reactivates the
// existing row. A single FindOneAndUpdate with $setOnInsert keeps the write
// atomic under concurrent duplicate requests and leaves purchaseDate
// untouched on reactivation.
func (r *mongoSubscriptionRepository) Upsert(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	if userID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, errors.New("user ID and plan ID are required")
	}

	filter := bson.M{"userId": userID, "planId": planID}
	update := bson.M{
		"$set": bson.M{"isActive": true},
		"$setOnInsert": bson.M{
			"userId":       userID,
			"planId":       planID,
			"purchaseDate": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var sub domain.Subscription
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Deactivate flips isActive to false on the (user, plan) row. The filter
// matches any row for the pair, active or not, so deactivating an inactive
// subscription succeeds as a no-op.
func (r *mongoSubscriptionRepository) Deactivate(ctx context.Context, userID, planID primitive.ObjectID) error {
	filter := bson.M{"userId": userID, "planId": planID}
	update := bson.M{"$set": bson.M{"isActive": false}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetActiveByUserID retrieves all active subscriptions held by an account.
func (r *mongoSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	filter := bson.M{"userId": userID, "isActive": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

// HasActive reports whether the account holds an active subscription to the plan.
func (r *mongoSubscriptionRepository) HasActive(ctx context.Context, userID, planID primitive.ObjectID) (bool, error) {
	filter := bson.M{"userId": userID, "planId": planID, "isActive": true}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActiveByPlanID counts active subscriptions to one plan.
func (r *mongoSubscriptionRepository) CountActiveByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"planId": planID, "isActive": true})
}

// CountActiveByPlanIDs counts active subscriptions across a set of plans.
func (r *mongoSubscriptionRepository) CountActiveByPlanIDs(ctx context.Context, planIDs []primitive.ObjectID) (int64, error) {
	if len(planIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"planId": bson.M{"$in": planIDs}, "isActive": true}
	return r.collection.CountDocuments(ctx, filter)
}

// CountActiveSince counts active subscriptions across a set of plans whose
// purchase date is on or after the given instant.
func (r *mongoSubscriptionRepository) CountActiveSince(ctx context.Context, planIDs []primitive.ObjectID, since time.Time) (int64, error) {
	if len(planIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"planId":       bson.M{"$in": planIDs},
		"isActive":     true,
		"purchaseDate": bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// DeleteByPlanID removes every subscription row of a plan (cascade on plan
// delete).
func (r *mongoSubscriptionRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsureSubscriptionIndexes creates necessary indexes for the subscriptions
// collection.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One ledger row per (user, plan) pair; the race guard behind
			// the Upsert.
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "planId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			// Subscriber counts per plan for stats.
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
