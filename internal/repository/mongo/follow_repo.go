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

const followCollectionName = "follows"

// mongoFollowRepository implements repository.FollowRepository using MongoDB.
type mongoFollowRepository struct {
	collection *mongo.Collection
}

func NewMongoFollowRepository(db *mongo.Database) repository.FollowRepository {
	return &mongoFollowRepository{
		collection: db.Collection(followCollectionName),
	}
}

// Create inserts a follow edge. The unique compound index on
// (followerId, followingId) turns concurrent duplicates into ErrDuplicate
// instead of a second row.
func (r *mongoFollowRepository) Create(ctx context.Context, follow *domain.Follow) (primitive.ObjectID, error) {
	if follow.FollowerID == primitive.NilObjectID || follow.FollowingID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("follower and following IDs are required")
	}

	follow.ID = primitive.NewObjectID()
	follow.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, follow)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// Delete removes the edge for the given pair.
func (r *mongoFollowRepository) Delete(ctx context.Context, followerID, followingID primitive.ObjectID) error {
	filter := bson.M{"followerId": followerID, "followingId": followingID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByFollower retrieves all follow edges where the given account is the
// follower, newest first.
func (r *mongoFollowRepository) GetByFollower(ctx context.Context, followerID primitive.ObjectID) ([]domain.Follow, error) {
	var follows []domain.Follow
	filter := bson.M{"followerId": followerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return follows, nil
}

// CountFollowers counts accounts following the given account.
func (r *mongoFollowRepository) CountFollowers(ctx context.Context, followingID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"followingId": followingID})
}

// EnsureFollowIndexes creates necessary indexes for the follows collection.
func EnsureFollowIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One edge per (follower, following) pair.
			Keys: bson.D{
				{Key: "followerId", Value: 1},
				{Key: "followingId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			// Follower counts for trainer stats.
			Keys:    bson.D{{Key: "followingId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
