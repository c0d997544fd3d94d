package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fitplanhub/server/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accountFixture struct {
	svc     AccountService
	users   *fakeUserRepo
	follows *fakeFollowRepo
	plans   *fakePlanRepo
	subs    *fakeSubscriptionRepo
}

func newAccountFixture() *accountFixture {
	users := newFakeUserRepo()
	follows := newFakeFollowRepo()
	plans := newFakePlanRepo()
	subs := newFakeSubscriptionRepo()
	return &accountFixture{
		svc:     NewAccountService(users, follows, plans, subs, fakeFileStorage{}),
		users:   users,
		follows: follows,
		plans:   plans,
		subs:    subs,
	}
}

func (f *accountFixture) addUser(t *testing.T, username string, role domain.Role) primitive.ObjectID {
	t.Helper()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	if role == domain.RoleTrainer {
		user.TrainerProfile = &domain.TrainerProfile{}
	}
	id, err := f.users.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("addUser(%s) failed: %v", username, err)
	}
	return id
}

func TestUpdateProfileLeavesUnsetFieldsAlone(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	userID := f.addUser(t, "alice", domain.RoleUser)

	bio := "lifting since 2019"
	user, err := f.svc.UpdateProfile(ctx, userID, ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Bio != bio {
		t.Errorf("Expected bio %q, got %q", bio, user.Bio)
	}
	if user.Username != "alice" {
		t.Errorf("Expected username to be unchanged, got %q", user.Username)
	}
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	f.addUser(t, "alice", domain.RoleUser)
	bobID := f.addUser(t, "bob", domain.RoleUser)

	taken := "alice"
	if _, err := f.svc.UpdateProfile(ctx, bobID, ProfileUpdate{Username: &taken}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestUpdateTrainerProfileRequiresTrainer(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	userID := f.addUser(t, "alice", domain.RoleUser)

	_, err := f.svc.UpdateTrainerProfile(ctx, userID, domain.TrainerProfile{Certification: "NASM"})
	if !errors.Is(err, ErrNotTrainer) {
		t.Errorf("Expected ErrNotTrainer, got %v", err)
	}
}

func TestProfilePictureUploadURLIsPerUser(t *testing.T) {
	f := newAccountFixture()
	userID := f.addUser(t, "alice", domain.RoleUser)

	upload, err := f.svc.ProfilePictureUploadURL(context.Background(), userID, "image/png")
	if err != nil {
		t.Fatalf("ProfilePictureUploadURL failed: %v", err)
	}
	if !strings.HasPrefix(upload.ObjectKey, "profile_pics/"+userID.Hex()+"/") {
		t.Errorf("Expected object key scoped to the user, got %q", upload.ObjectKey)
	}
	if upload.UploadURL == "" {
		t.Error("Expected a non-empty upload URL")
	}
}

func TestFollowLifecycle(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	userID := f.addUser(t, "alice", domain.RoleUser)
	trainerID := f.addUser(t, "coach", domain.RoleTrainer)

	entry, err := f.svc.Follow(ctx, userID, trainerID)
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if entry.Following.ID != trainerID {
		t.Errorf("Expected followed trainer %s, got %s", trainerID.Hex(), entry.Following.ID.Hex())
	}

	// Second follow of the same trainer is a conflict.
	if _, err := f.svc.Follow(ctx, userID, trainerID); !errors.Is(err, ErrAlreadyFollowing) {
		t.Errorf("Expected ErrAlreadyFollowing, got %v", err)
	}

	following, err := f.svc.ListFollowing(ctx, userID)
	if err != nil {
		t.Fatalf("ListFollowing failed: %v", err)
	}
	if len(following) != 1 {
		t.Fatalf("Expected 1 followed trainer, got %d", len(following))
	}

	if err := f.svc.Unfollow(ctx, userID, trainerID); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := f.svc.Unfollow(ctx, userID, trainerID); !errors.Is(err, ErrFollowNotFound) {
		t.Errorf("Expected ErrFollowNotFound on repeat unfollow, got %v", err)
	}
}

func TestFollowRejectsSelf(t *testing.T) {
	f := newAccountFixture()
	trainerID := f.addUser(t, "coach", domain.RoleTrainer)

	if _, err := f.svc.Follow(context.Background(), trainerID, trainerID); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("Expected ErrSelfFollow, got %v", err)
	}
}

func TestFollowRejectsNonTrainerTarget(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	aliceID := f.addUser(t, "alice", domain.RoleUser)
	bobID := f.addUser(t, "bob", domain.RoleUser)

	if _, err := f.svc.Follow(ctx, aliceID, bobID); !errors.Is(err, ErrTrainerNotFound) {
		t.Errorf("Expected ErrTrainerNotFound for a plain user target, got %v", err)
	}
	if _, err := f.svc.Follow(ctx, aliceID, primitive.NewObjectID()); !errors.Is(err, ErrTrainerNotFound) {
		t.Errorf("Expected ErrTrainerNotFound for a missing target, got %v", err)
	}
}

func TestListTrainersUsesPlaceholdersWithoutProfile(t *testing.T) {
	f := newAccountFixture()
	trainerID := f.addUser(t, "coach", domain.RoleTrainer)

	summaries, err := f.svc.ListTrainers(context.Background())
	if err != nil {
		t.Fatalf("ListTrainers failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 trainer, got %d", len(summaries))
	}

	s := summaries[0]
	if s.Trainer.ID != trainerID {
		t.Errorf("Expected trainer %s, got %s", trainerID.Hex(), s.Trainer.ID.Hex())
	}
	if s.Specialization != "General Fitness" || s.Certification != "Certified" {
		t.Errorf("Expected placeholder profile values, got %q / %q", s.Specialization, s.Certification)
	}
	if s.Rating != 4.5 {
		t.Errorf("Expected the fixed 4.5 rating, got %v", s.Rating)
	}
	if s.ExperienceYears != 0 {
		t.Errorf("Expected 0 experience years, got %d", s.ExperienceYears)
	}
}

func TestGetTrainerDetailCountsAndFollowState(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	trainerID := f.addUser(t, "coach", domain.RoleTrainer)
	viewerID := f.addUser(t, "alice", domain.RoleUser)

	plan := &domain.FitnessPlan{TrainerID: trainerID, Title: "Strength 101", Price: 19.99, DurationDays: 30}
	planID, _ := f.plans.Create(ctx, plan)
	f.subs.Upsert(ctx, viewerID, planID)
	if _, err := f.svc.Follow(ctx, viewerID, trainerID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	detail, err := f.svc.GetTrainerDetail(ctx, trainerID, &viewerID)
	if err != nil {
		t.Fatalf("GetTrainerDetail failed: %v", err)
	}
	if detail.Summary.PlanCount != 1 || detail.Summary.FollowerCount != 1 || detail.Summary.SubscriberCount != 1 {
		t.Errorf("Expected counts 1/1/1, got %d/%d/%d",
			detail.Summary.PlanCount, detail.Summary.FollowerCount, detail.Summary.SubscriberCount)
	}
	if !detail.IsFollowing {
		t.Error("Expected IsFollowing for the following viewer")
	}
	if len(detail.Plans) != 1 {
		t.Errorf("Expected 1 plan, got %d", len(detail.Plans))
	}

	// Anonymous viewers never read as following.
	anon, err := f.svc.GetTrainerDetail(ctx, trainerID, nil)
	if err != nil {
		t.Fatalf("GetTrainerDetail (anonymous) failed: %v", err)
	}
	if anon.IsFollowing {
		t.Error("Expected IsFollowing=false for an anonymous viewer")
	}
}

func TestGetTrainerDetailRejectsPlainUser(t *testing.T) {
	f := newAccountFixture()
	userID := f.addUser(t, "alice", domain.RoleUser)

	if _, err := f.svc.GetTrainerDetail(context.Background(), userID, nil); !errors.Is(err, ErrTrainerNotFound) {
		t.Errorf("Expected ErrTrainerNotFound for a plain user, got %v", err)
	}
}
