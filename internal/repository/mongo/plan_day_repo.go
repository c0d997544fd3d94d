package mongo

import (
	"context"
	"errors"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planDayCollectionName = "plan_days"

// mongoPlanDayRepository implements repository.PlanDayRepository using MongoDB.
type mongoPlanDayRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanDayRepository(db *mongo.Database) repository.PlanDayRepository {
	return &mongoPlanDayRepository{
		collection: db.Collection(planDayCollectionName),
	}
}

// Create inserts a new plan day.
func (r *mongoPlanDayRepository) Create(ctx context.Context, day *domain.PlanDay) (primitive.ObjectID, error) {
	if day.PlanID == primitive.NilObjectID || day.Title == "" {
		return primitive.NilObjectID, errors.New("plan day plan ID and title are required")
	}

	day.ID = primitive.NewObjectID()

	result, err := r.collection.InsertOne(ctx, day)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByPlanID retrieves all days of a plan in ascending dayNumber order.
func (r *mongoPlanDayRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDay, error) {
	var days []domain.PlanDay
	filter := bson.M{"planId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "dayNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// Update modifies an existing plan day. The planId in the filter keeps a day
// from being moved between plans through an update.
func (r *mongoPlanDayRepository) Update(ctx context.Context, day *domain.PlanDay) error {
	if day.ID == primitive.NilObjectID {
		return errors.New("plan day ID is required for update")
	}

	filter := bson.M{"_id": day.ID, "planId": day.PlanID}
	update := bson.M{
		"$set": bson.M{
			"dayNumber":       day.DayNumber,
			"title":           day.Title,
			"description":     day.Description,
			"exercises":       day.Exercises,
			"durationMinutes": day.DurationMinutes,
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

// Delete removes a single day from a plan.
func (r *mongoPlanDayRepository) Delete(ctx context.Context, id, planID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "planId": planID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByPlanID removes every day of a plan (cascade on plan delete).
func (r *mongoPlanDayRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsurePlanDayIndexes creates necessary indexes for the plan_days collection.
func EnsurePlanDayIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Ordered day listing per plan. Not unique: day numbers may
			// repeat within a plan.
			Keys: bson.D{
				{Key: "planId", Value: 1},
				{Key: "dayNumber", Value: 1},
			},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
