package service

import (
	"context"
	"errors"
	"math"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPlanDayNotFound = errors.New("plan day not found")
)

// How far back a subscription counts as "recent" in trainer stats.
const recentSubscriberWindow = 30 * 24 * time.Hour

// PlanInput carries the writable plan fields. The owning trainer always
// comes from the caller identity, never from the payload.
type PlanInput struct {
	Title              string
	Description        string
	PreviewDescription string
	Price              float64
	DurationDays       int
}

// PlanView is one plan resolved against a viewer: Full reports whether the
// viewer is entitled to the full shape (owner or active subscriber), and
// Days is populated only then.
type PlanView struct {
	Plan         domain.FitnessPlan
	Trainer      domain.User
	Full         bool
	IsSubscribed bool
	Days         []domain.PlanDay
}

// TrainerStats is the aggregate dashboard for one trainer.
type TrainerStats struct {
	TotalPlans             int64
	TotalSubscribers       int64
	TotalEarnings          float64
	TotalFollowers         int64
	RecentSubscribers      int64
	PopularPlanTitle       string
	PopularPlanSubscribers int64
}

// PlanService covers the plan catalog: listing and detail with
// preview/full gating, trainer-side CRUD, day content, stats and the feed.
type PlanService interface {
	ListPlans(ctx context.Context, viewerID *primitive.ObjectID) ([]PlanView, error)
	GetPlanDetail(ctx context.Context, planID primitive.ObjectID, viewerID *primitive.ObjectID) (*PlanView, error)

	ListTrainerPlans(ctx context.Context, trainerID primitive.ObjectID) ([]PlanView, error)
	CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input PlanInput) (*domain.FitnessPlan, error)
	UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, input PlanInput) (*domain.FitnessPlan, error)
	DeletePlan(ctx context.Context, trainerID, planID primitive.ObjectID) error

	ListPlanDays(ctx context.Context, viewerID primitive.ObjectID, viewerRole domain.Role, planID primitive.ObjectID) ([]domain.PlanDay, error)
	AddPlanDay(ctx context.Context, trainerID, planID primitive.ObjectID, day domain.PlanDay) (*domain.PlanDay, error)
	UpdatePlanDay(ctx context.Context, trainerID, planID, dayID primitive.ObjectID, day domain.PlanDay) (*domain.PlanDay, error)
	DeletePlanDay(ctx context.Context, trainerID, planID, dayID primitive.ObjectID) error

	TrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*TrainerStats, error)
	GetFeed(ctx context.Context, userID primitive.ObjectID) ([]PlanView, error)
}

type planService struct {
	planRepo   repository.PlanRepository
	dayRepo    repository.PlanDayRepository
	subRepo    repository.SubscriptionRepository
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	dayRepo repository.PlanDayRepository,
	subRepo repository.SubscriptionRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
) PlanService {
	return &planService{
		planRepo:   planRepo,
		dayRepo:    dayRepo,
		subRepo:    subRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// === Catalog ===

// ListPlans resolves every plan against the viewer. Each item is gated on
// its own: full shape only for the owning trainer or an active subscriber,
// preview for everyone else, anonymous viewers included.
func (s *planService) ListPlans(ctx context.Context, viewerID *primitive.ObjectID) ([]PlanView, error) {
	plans, err := s.planRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, plans, viewerID)
}

// GetPlanDetail resolves one plan against the viewer.
func (s *planService) GetPlanDetail(ctx context.Context, planID primitive.ObjectID, viewerID *primitive.ObjectID) (*PlanView, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	view, err := s.buildView(ctx, *plan, viewerID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// === Trainer-side CRUD ===

// ListTrainerPlans returns the trainer's own plans, always in full shape.
func (s *planService) ListTrainerPlans(ctx context.Context, trainerID primitive.ObjectID) ([]PlanView, error) {
	plans, err := s.planRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, plans, &trainerID)
}

func (s *planService) CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input PlanInput) (*domain.FitnessPlan, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}

	plan := &domain.FitnessPlan{
		TrainerID:          trainerID, // Forced to the caller; payloads cannot set it
		Title:              input.Title,
		Description:        input.Description,
		PreviewDescription: input.PreviewDescription,
		Price:              roundPrice(input.Price),
		DurationDays:       input.DurationDays,
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

func (s *planService) UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, input PlanInput) (*domain.FitnessPlan, error) {
	plan := &domain.FitnessPlan{
		ID:                 planID,
		TrainerID:          trainerID,
		Title:              input.Title,
		Description:        input.Description,
		PreviewDescription: input.PreviewDescription,
		Price:              roundPrice(input.Price),
		DurationDays:       input.DurationDays,
	}

	// Ownership is folded into the repository filter; someone else's plan
	// reads as not found.
	if err := s.planRepo.Update(ctx, plan, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	updated, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePlan removes the plan and cascades to its days and subscription
// rows.
func (s *planService) DeletePlan(ctx context.Context, trainerID, planID primitive.ObjectID) error {
	if err := s.planRepo.Delete(ctx, planID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	if err := s.dayRepo.DeleteByPlanID(ctx, planID); err != nil {
		return err
	}
	return s.subRepo.DeleteByPlanID(ctx, planID)
}

// === Plan days ===

// ListPlanDays applies the day-content gate: a trainer sees the days of
// their own plans only, anyone else needs an active subscription. No access
// yields an empty list, not an error.
func (s *planService) ListPlanDays(ctx context.Context, viewerID primitive.ObjectID, viewerRole domain.Role, planID primitive.ObjectID) ([]domain.PlanDay, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.PlanDay{}, nil
		}
		return nil, err
	}

	if viewerRole == domain.RoleTrainer {
		if plan.TrainerID != viewerID {
			return []domain.PlanDay{}, nil
		}
	} else {
		active, err := s.subRepo.HasActive(ctx, viewerID, planID)
		if err != nil {
			return nil, err
		}
		if !active {
			return []domain.PlanDay{}, nil
		}
	}

	return s.dayRepo.GetByPlanID(ctx, planID)
}

func (s *planService) AddPlanDay(ctx context.Context, trainerID, planID primitive.ObjectID, day domain.PlanDay) (*domain.PlanDay, error) {
	if err := s.requireOwnedPlan(ctx, trainerID, planID); err != nil {
		return nil, err
	}

	day.PlanID = planID
	dayID, err := s.dayRepo.Create(ctx, &day)
	if err != nil {
		return nil, err
	}
	day.ID = dayID
	return &day, nil
}

func (s *planService) UpdatePlanDay(ctx context.Context, trainerID, planID, dayID primitive.ObjectID, day domain.PlanDay) (*domain.PlanDay, error) {
	if err := s.requireOwnedPlan(ctx, trainerID, planID); err != nil {
		return nil, err
	}

	day.ID = dayID
	day.PlanID = planID
	if err := s.dayRepo.Update(ctx, &day); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

func (s *planService) DeletePlanDay(ctx context.Context, trainerID, planID, dayID primitive.ObjectID) error {
	if err := s.requireOwnedPlan(ctx, trainerID, planID); err != nil {
		return err
	}

	err := s.dayRepo.Delete(ctx, dayID, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanDayNotFound
	}
	return err
}

func (s *planService) requireOwnedPlan(ctx context.Context, trainerID, planID primitive.ObjectID) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	if plan.TrainerID != trainerID {
		// Foreign plans are indistinguishable from absent ones.
		return ErrPlanNotFound
	}
	return nil
}

// === Stats ===

// TrainerStats aggregates the trainer dashboard: plan count, active
// subscribers, earnings (plan price summed over each active subscription),
// followers, the 30-day recent window and the most-subscribed plan.
func (s *planService) TrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*TrainerStats, error) {
	plans, err := s.planRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	stats := &TrainerStats{
		TotalPlans:       int64(len(plans)),
		PopularPlanTitle: "No plans yet",
	}

	planIDs := make([]primitive.ObjectID, len(plans))
	popularCount := int64(-1)
	for i, p := range plans {
		planIDs[i] = p.ID

		count, err := s.subRepo.CountActiveByPlanID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalSubscribers += count
		stats.TotalEarnings += p.Price * float64(count)

		// Ties keep the earlier plan; ordering is whatever the store gave us.
		if count > popularCount {
			popularCount = count
			stats.PopularPlanTitle = p.Title
			stats.PopularPlanSubscribers = count
		}
	}
	stats.TotalEarnings = roundPrice(stats.TotalEarnings)

	stats.TotalFollowers, err = s.followRepo.CountFollowers(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-recentSubscriberWindow)
	stats.RecentSubscribers, err = s.subRepo.CountActiveSince(ctx, planIDs, since)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// === Feed ===

// GetFeed unions the plans of every followed trainer with the caller's
// actively subscribed plans, de-duplicated, in storage order.
func (s *planService) GetFeed(ctx context.Context, userID primitive.ObjectID) ([]PlanView, error) {
	follows, err := s.followRepo.GetByFollower(ctx, userID)
	if err != nil {
		return nil, err
	}
	trainerIDs := make([]primitive.ObjectID, len(follows))
	for i, f := range follows {
		trainerIDs[i] = f.FollowingID
	}

	followedPlans, err := s.planRepo.GetByTrainerIDs(ctx, trainerIDs)
	if err != nil {
		return nil, err
	}

	subs, err := s.subRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	subPlanIDs := make([]primitive.ObjectID, len(subs))
	for i, sub := range subs {
		subPlanIDs[i] = sub.PlanID
	}
	subscribedPlans, err := s.planRepo.GetByIDs(ctx, subPlanIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	merged := make([]domain.FitnessPlan, 0, len(followedPlans)+len(subscribedPlans))
	for _, p := range append(followedPlans, subscribedPlans...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}

	views, err := s.buildViews(ctx, merged, &userID)
	if err != nil {
		return nil, err
	}

	// Feed items are always serialized in full shape. IsSubscribed stays
	// per plan so clients can tell followed-only plans apart.
	for i := range views {
		if views[i].Full {
			continue
		}
		days, err := s.dayRepo.GetByPlanID(ctx, views[i].Plan.ID)
		if err != nil {
			return nil, err
		}
		views[i].Full = true
		views[i].Days = days
	}

	return views, nil
}

// === View assembly ===

func (s *planService) buildViews(ctx context.Context, plans []domain.FitnessPlan, viewerID *primitive.ObjectID) ([]PlanView, error) {
	views := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		view, err := s.buildView(ctx, p, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// buildView decides the serialization shape for one plan: full for the
// owning trainer or an active subscriber, preview otherwise. Days are
// fetched only for full views.
func (s *planService) buildView(ctx context.Context, plan domain.FitnessPlan, viewerID *primitive.ObjectID) (PlanView, error) {
	view := PlanView{Plan: plan}

	trainer, err := s.userRepo.GetByID(ctx, plan.TrainerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return PlanView{}, err
	}
	if trainer != nil {
		trainer.PasswordHash = ""
		view.Trainer = *trainer
	}

	if viewerID != nil {
		if plan.TrainerID == *viewerID {
			view.Full = true
		} else {
			active, err := s.subRepo.HasActive(ctx, *viewerID, plan.ID)
			if err != nil {
				return PlanView{}, err
			}
			view.IsSubscribed = active
			view.Full = active
		}
	}

	if view.Full {
		days, err := s.dayRepo.GetByPlanID(ctx, plan.ID)
		if err != nil {
			return PlanView{}, err
		}
		view.Days = days
	}

	return view, nil
}

// roundPrice normalizes prices to 2 fraction digits.
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
