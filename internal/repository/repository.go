package repository

import (
	"context"
	"time"

	"fitplanhub/server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate entry")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update persists profile fields (username, email, bio, picture,
	// trainer profile). Role is deliberately not written.
	Update(ctx context.Context, user *domain.User) error
	GetTrainers(ctx context.Context) ([]domain.User, error)
}

// FollowRepository defines the interface for the follow edge set.
type FollowRepository interface {
	// Create returns ErrDuplicate when the (follower, following) edge
	// already exists; the unique index is the race guard.
	Create(ctx context.Context, follow *domain.Follow) (primitive.ObjectID, error)
	Delete(ctx context.Context, followerID, followingID primitive.ObjectID) error
	GetByFollower(ctx context.Context, followerID primitive.ObjectID) ([]domain.Follow, error)
	CountFollowers(ctx context.Context, followingID primitive.ObjectID) (int64, error)
}

// PlanRepository defines the interface for interacting with fitness plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error)
	GetAll(ctx context.Context) ([]domain.FitnessPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.FitnessPlan, error)
	GetByTrainerIDs(ctx context.Context, trainerIDs []primitive.ObjectID) ([]domain.FitnessPlan, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FitnessPlan, error)
	// Update and Delete fold ownership into the filter: a plan owned by a
	// different trainer is reported as ErrNotFound.
	Update(ctx context.Context, plan *domain.FitnessPlan, trainerID primitive.ObjectID) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error
	CountByTrainerID(ctx context.Context, trainerID primitive.ObjectID) (int64, error)
}

// PlanDayRepository defines the interface for plan day content.
type PlanDayRepository interface {
	Create(ctx context.Context, day *domain.PlanDay) (primitive.ObjectID, error)
	// GetByPlanID returns days in ascending dayNumber order.
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDay, error)
	Update(ctx context.Context, day *domain.PlanDay) error
	Delete(ctx context.Context, id, planID primitive.ObjectID) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// SubscriptionRepository defines the interface for the subscription ledger.
type SubscriptionRepository interface {
	// Upsert atomically creates an active subscription or reactivates the
	// existing (user, plan) row, leaving purchaseDate untouched on
	// reactivation. Returns the row after the write.
	Upsert(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error)
	// Deactivate sets isActive=false on the (user, plan) row regardless of
	// its current state; ErrNotFound only when no row exists at all.
	Deactivate(ctx context.Context, userID, planID primitive.ObjectID) error
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error)
	HasActive(ctx context.Context, userID, planID primitive.ObjectID) (bool, error)
	CountActiveByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error)
	CountActiveByPlanIDs(ctx context.Context, planIDs []primitive.ObjectID) (int64, error)
	CountActiveSince(ctx context.Context, planIDs []primitive.ObjectID, since time.Time) (int64, error)
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}
