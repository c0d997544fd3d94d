package service

import (
	"context"
	"errors"
	"testing"

	"fitplanhub/server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type subscriptionFixture struct {
	svc   SubscriptionService
	users *fakeUserRepo
	plans *fakePlanRepo
	days  *fakePlanDayRepo
	subs  *fakeSubscriptionRepo
}

func newSubscriptionFixture() *subscriptionFixture {
	users := newFakeUserRepo()
	plans := newFakePlanRepo()
	days := newFakePlanDayRepo()
	subs := newFakeSubscriptionRepo()
	return &subscriptionFixture{
		svc:   NewSubscriptionService(subs, plans, days, users),
		users: users,
		plans: plans,
		days:  days,
		subs:  subs,
	}
}

func (f *subscriptionFixture) addPlan(t *testing.T, title string, durationDays int) primitive.ObjectID {
	t.Helper()
	trainerID, err := f.users.Create(context.Background(), &domain.User{
		Username: title + "-coach",
		Email:    title + "@example.com",
		Role:     domain.RoleTrainer,
	})
	if err != nil {
		t.Fatalf("creating trainer failed: %v", err)
	}
	planID, err := f.plans.Create(context.Background(), &domain.FitnessPlan{
		TrainerID:    trainerID,
		Title:        title,
		Price:        19.99,
		DurationDays: durationDays,
	})
	if err != nil {
		t.Fatalf("creating plan failed: %v", err)
	}
	return planID
}

func TestSubscribeIsIdempotent(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	planID := f.addPlan(t, "Strength", 30)

	first, err := f.svc.Subscribe(ctx, userID, planID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if !first.IsActive {
		t.Error("Expected the subscription to be active")
	}

	second, err := f.svc.Subscribe(ctx, userID, planID)
	if err != nil {
		t.Fatalf("Repeat subscribe failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("Expected the same ledger row on repeat subscribe")
	}
	if !second.PurchaseDate.Equal(first.PurchaseDate) {
		t.Error("Expected purchase date to be unchanged on repeat subscribe")
	}
}

func TestSubscribeReactivatesKeepingPurchaseDate(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	planID := f.addPlan(t, "Strength", 30)

	original, err := f.svc.Subscribe(ctx, userID, planID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := f.svc.Unsubscribe(ctx, userID, planID); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	revived, err := f.svc.Subscribe(ctx, userID, planID)
	if err != nil {
		t.Fatalf("Resubscribe failed: %v", err)
	}
	if !revived.IsActive {
		t.Error("Expected the subscription to be active again")
	}
	if revived.ID != original.ID {
		t.Error("Expected the original row to be reactivated, not a new one")
	}
	if !revived.PurchaseDate.Equal(original.PurchaseDate) {
		t.Error("Expected the original purchase date to survive reactivation")
	}
}

func TestSubscribeUnknownPlan(t *testing.T) {
	f := newSubscriptionFixture()

	_, err := f.svc.Subscribe(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("Expected ErrPlanNotFound, got %v", err)
	}
}

func TestUnsubscribeSemantics(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	planID := f.addPlan(t, "Strength", 30)

	// No row at all: not found.
	if err := f.svc.Unsubscribe(ctx, userID, planID); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("Expected ErrSubscriptionNotFound without any row, got %v", err)
	}

	if _, err := f.svc.Subscribe(ctx, userID, planID); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := f.svc.Unsubscribe(ctx, userID, planID); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}

	// An inactive row still unsubscribes without error.
	if err := f.svc.Unsubscribe(ctx, userID, planID); err != nil {
		t.Errorf("Expected repeat unsubscribe to succeed on an inactive row, got %v", err)
	}
}

func TestListMySubscriptionsSkipsCancelled(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	keptID := f.addPlan(t, "Kept", 30)
	droppedID := f.addPlan(t, "Dropped", 14)

	f.svc.Subscribe(ctx, userID, keptID)
	f.svc.Subscribe(ctx, userID, droppedID)
	f.svc.Unsubscribe(ctx, userID, droppedID)

	entries, err := f.svc.ListMySubscriptions(ctx, userID)
	if err != nil {
		t.Fatalf("ListMySubscriptions failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 active subscription, got %d", len(entries))
	}
	if entries[0].Plan.Title != "Kept" {
		t.Errorf("Expected the active plan, got %q", entries[0].Plan.Title)
	}
	if entries[0].Trainer.Username == "" {
		t.Error("Expected the trainer to be joined onto the entry")
	}
}

func TestListMySubscriptionsIncludesPlanDays(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	planID := f.addPlan(t, "Strength", 30)

	for i, title := range []string{"Push", "Pull"} {
		_, err := f.days.Create(ctx, &domain.PlanDay{PlanID: planID, DayNumber: i + 1, Title: title})
		if err != nil {
			t.Fatalf("creating day failed: %v", err)
		}
	}

	if _, err := f.svc.Subscribe(ctx, userID, planID); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	entries, err := f.svc.ListMySubscriptions(ctx, userID)
	if err != nil {
		t.Fatalf("ListMySubscriptions failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 subscription, got %d", len(entries))
	}
	// Subscribers own the content, so the listing carries the full day list.
	if len(entries[0].Days) != 2 {
		t.Fatalf("Expected 2 plan days on the entry, got %d", len(entries[0].Days))
	}
	if entries[0].Days[0].Title != "Push" || entries[0].Days[1].Title != "Pull" {
		t.Errorf("Expected days in day-number order, got %+v", entries[0].Days)
	}
}

func TestGetProgressTotalsAndPlaceholders(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	f.svc.Subscribe(ctx, userID, f.addPlan(t, "A", 30))
	f.svc.Subscribe(ctx, userID, f.addPlan(t, "B", 60))

	report, err := f.svc.GetProgress(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}

	if report.TotalPlans != 2 {
		t.Errorf("Expected 2 plans, got %d", report.TotalPlans)
	}
	if report.TotalDays != 90 {
		t.Errorf("Expected 90 total days, got %d", report.TotalDays)
	}
	// 45 completed of 90 days.
	if report.CompletionRate != 50 {
		t.Errorf("Expected completion rate 50, got %d", report.CompletionRate)
	}
	if report.CompletedDays != 45 || report.CurrentStreak != 7 || report.LongestStreak != 21 {
		t.Error("Expected the fixed placeholder values")
	}
	if len(report.WeeklyProgress) != 4 {
		t.Fatalf("Expected 4 weekly entries, got %d", len(report.WeeklyProgress))
	}
	first, last := report.WeeklyProgress[0], report.WeeklyProgress[3]
	if first.Week != "Week 1" || first.Workouts != 5 || first.Calories != 1800 {
		t.Errorf("Unexpected first weekly entry: %+v", first)
	}
	if last.Week != "Week 4" || last.Workouts != 6 || last.Calories != 2200 {
		t.Errorf("Unexpected last weekly entry: %+v", last)
	}
}

func TestGetProgressCapsCompletionRate(t *testing.T) {
	f := newSubscriptionFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// 45 placeholder completed days against a 14-day plan would exceed 100.
	f.svc.Subscribe(ctx, userID, f.addPlan(t, "Short", 14))

	report, err := f.svc.GetProgress(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if report.CompletionRate != 100 {
		t.Errorf("Expected completion rate capped at 100, got %d", report.CompletionRate)
	}
}

func TestGetProgressWithNoSubscriptions(t *testing.T) {
	f := newSubscriptionFixture()

	report, err := f.svc.GetProgress(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if report.TotalPlans != 0 || report.TotalDays != 0 || report.CompletionRate != 0 {
		t.Errorf("Expected zeroed totals, got %+v", report)
	}
}
