package service

import (
	"context"
	"errors"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SubscriptionEntry is one active subscription joined with its plan, the
// plan's days and the plan's trainer. Subscribers always get the full plan
// content here.
type SubscriptionEntry struct {
	Subscription domain.Subscription
	Plan         domain.FitnessPlan
	Days         []domain.PlanDay
	Trainer      domain.User
}

// ProgressReport is the subscriber progress dashboard. Aside from the plan
// counts everything is a fixed placeholder until workout tracking lands.
type ProgressReport struct {
	TotalPlans        int64
	TotalDays         int64
	CompletedDays     int64
	CompletionRate    int64
	CurrentStreak     int64
	LongestStreak     int64
	CaloriesBurned    int64
	WorkoutsCompleted int64
	WeightLost        float64
	MuscleGained      float64
	WeeklyProgress    []WeeklyProgress
}

// WeeklyProgress is one week's worth of placeholder workout counts.
type WeeklyProgress struct {
	Week     string
	Workouts int64
	Calories int64
}

// Placeholder progress numbers, kept until real workout tracking exists.
const (
	placeholderCompletedDays = 45
	placeholderCurrentStreak = 7
	placeholderLongestStreak = 21
	placeholderCalories      = 12500
	placeholderWorkouts      = 32
	placeholderWeightLost    = 3.2
	placeholderMuscleGained  = 1.5
)

// SubscriptionService covers subscribing to plans, cancelling, listing the
// caller's active subscriptions and the progress report.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error)
	Unsubscribe(ctx context.Context, userID, planID primitive.ObjectID) error
	ListMySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]SubscriptionEntry, error)
	GetProgress(ctx context.Context, userID primitive.ObjectID) (*ProgressReport, error)
}

type subscriptionService struct {
	subRepo  repository.SubscriptionRepository
	planRepo repository.PlanRepository
	dayRepo  repository.PlanDayRepository
	userRepo repository.UserRepository
}

// NewSubscriptionService creates a new instance of subscriptionService.
func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	planRepo repository.PlanRepository,
	dayRepo repository.PlanDayRepository,
	userRepo repository.UserRepository,
) SubscriptionService {
	return &subscriptionService{subRepo: subRepo, planRepo: planRepo, dayRepo: dayRepo, userRepo: userRepo}
}

// Subscribe activates a subscription to the plan. Repeat calls are
// idempotent: a cancelled row is reactivated in place and keeps its
// original purchase date, an active row is returned unchanged.
func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// Single atomic reactivate-or-create; the unique (userId, planId) index
	// keeps concurrent calls from racing into two rows.
	return s.subRepo.Upsert(ctx, userID, planID)
}

// Unsubscribe deactivates the caller's subscription to the plan. A row that
// is already inactive still counts as unsubscribed; only a missing row is
// an error.
func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, planID primitive.ObjectID) error {
	err := s.subRepo.Deactivate(ctx, userID, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}

// ListMySubscriptions returns the caller's active subscriptions joined with
// plan and trainer. Rows whose plan or trainer has since vanished are
// skipped rather than failing the listing.
func (s *subscriptionService) ListMySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]SubscriptionEntry, error) {
	subs, err := s.subRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]SubscriptionEntry, 0, len(subs))
	for _, sub := range subs {
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}

		entry := SubscriptionEntry{Subscription: sub, Plan: *plan}
		entry.Days, err = s.dayRepo.GetByPlanID(ctx, plan.ID)
		if err != nil {
			return nil, err
		}

		trainer, err := s.userRepo.GetByID(ctx, plan.TrainerID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if trainer != nil {
			trainer.PasswordHash = ""
			entry.Trainer = *trainer
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetProgress builds the progress report over the caller's active
// subscriptions. Plan and day totals are real, the rest are placeholders.
func (s *subscriptionService) GetProgress(ctx context.Context, userID primitive.ObjectID) (*ProgressReport, error) {
	subs, err := s.subRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		TotalPlans:        int64(len(subs)),
		CompletedDays:     placeholderCompletedDays,
		CurrentStreak:     placeholderCurrentStreak,
		LongestStreak:     placeholderLongestStreak,
		CaloriesBurned:    placeholderCalories,
		WorkoutsCompleted: placeholderWorkouts,
		WeightLost:        placeholderWeightLost,
		MuscleGained:      placeholderMuscleGained,
		WeeklyProgress: []WeeklyProgress{
			{Week: "Week 1", Workouts: 5, Calories: 1800},
			{Week: "Week 2", Workouts: 6, Calories: 2100},
			{Week: "Week 3", Workouts: 7, Calories: 2400},
			{Week: "Week 4", Workouts: 6, Calories: 2200},
		},
	}

	for _, sub := range subs {
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		report.TotalDays += int64(plan.DurationDays)
	}

	if report.TotalDays > 0 {
		rate := report.CompletedDays * 100 / report.TotalDays
		if rate > 100 {
			rate = 100
		}
		report.CompletionRate = rate
	}

	return report, nil
}
