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

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository using MongoDB.
type mongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new fitness plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error) {
	if plan.TrainerID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan trainer ID and title are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a plan by its ObjectID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error) {
	var plan domain.FitnessPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetAll retrieves every published plan.
func (r *mongoPlanRepository) GetAll(ctx context.Context) ([]domain.FitnessPlan, error) {
	return r.find(ctx, bson.M{})
}

// GetByTrainerID retrieves all plans owned by a specific trainer.
func (r *mongoPlanRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.FitnessPlan, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID})
}

// GetByTrainerIDs retrieves all plans owned by any of the given trainers.
func (r *mongoPlanRepository) GetByTrainerIDs(ctx context.Context, trainerIDs []primitive.ObjectID) ([]domain.FitnessPlan, error) {
	if len(trainerIDs) == 0 {
		return []domain.FitnessPlan{}, nil
	}
	return r.find(ctx, bson.M{"trainerId": bson.M{"$in": trainerIDs}})
}

// GetByIDs retrieves the plans whose IDs are in the given set.
func (r *mongoPlanRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FitnessPlan, error) {
	if len(ids) == 0 {
		return []domain.FitnessPlan{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.FitnessPlan, error) {
	var plans []domain.FitnessPlan
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update modifies an existing plan. The filter matches both _id and
// trainerId, so a plan owned by another trainer reports ErrNotFound and is
// indistinguishable from an absent one.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.FitnessPlan, trainerID primitive.ObjectID) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	filter := bson.M{"_id": plan.ID, "trainerId": trainerID}
	update := bson.M{
		"$set": bson.M{
			"title":              plan.Title,
			"description":        plan.Description,
			"previewDescription": plan.PreviewDescription,
			"price":              plan.Price,
			"durationDays":       plan.DurationDays,
			"updatedAt":          time.Now().UTC(),
			// Note: We specifically DO NOT set trainerId here
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a plan, ensuring it belongs to the specified trainer.
func (r *mongoPlanRepository) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "trainerId": trainerID}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Absent or owned by someone else; the caller cannot tell which.
		return repository.ErrNotFound
	}
	return nil
}

// CountByTrainerID counts the plans a trainer owns.
func (r *mongoPlanRepository) CountByTrainerID(ctx context.Context, trainerID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"trainerId": trainerID})
}

// EnsurePlanIndexes creates necessary indexes for the plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
