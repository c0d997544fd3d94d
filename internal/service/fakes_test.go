package service

import (
	"context"
	"fmt"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the mongo implementations'
// contracts: ErrNotFound / ErrDuplicate sentinels, unique-index behavior
// and ownership folded into the lookup filters.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	user.ID = id
	user.CreatedAt = time.Now().UTC()
	cp := *user
	r.users[id] = &cp
	return id, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.Bio = user.Bio
	stored.ProfilePicture = user.ProfilePicture
	stored.TrainerProfile = user.TrainerProfile
	return nil
}

func (r *fakeUserRepo) GetTrainers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == domain.RoleTrainer {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeFollowRepo struct {
	follows map[primitive.ObjectID]*domain.Follow
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{follows: make(map[primitive.ObjectID]*domain.Follow)}
}

func (r *fakeFollowRepo) Create(ctx context.Context, follow *domain.Follow) (primitive.ObjectID, error) {
	for _, f := range r.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	follow.ID = id
	follow.CreatedAt = time.Now().UTC()
	cp := *follow
	r.follows[id] = &cp
	return id, nil
}

func (r *fakeFollowRepo) Delete(ctx context.Context, followerID, followingID primitive.ObjectID) error {
	for id, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			delete(r.follows, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeFollowRepo) GetByFollower(ctx context.Context, followerID primitive.ObjectID) ([]domain.Follow, error) {
	var out []domain.Follow
	for _, f := range r.follows {
		if f.FollowerID == followerID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFollowRepo) CountFollowers(ctx context.Context, followingID primitive.ObjectID) (int64, error) {
	var n int64
	for _, f := range r.follows {
		if f.FollowingID == followingID {
			n++
		}
	}
	return n, nil
}

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.FitnessPlan
	order []primitive.ObjectID
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.FitnessPlan)}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.FitnessPlan) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	plan.ID = id
	plan.CreatedAt = time.Now().UTC()
	cp := *plan
	r.plans[id] = &cp
	r.order = append(r.order, id)
	return id, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.FitnessPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetAll(ctx context.Context) ([]domain.FitnessPlan, error) {
	out := make([]domain.FitnessPlan, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.plans[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.FitnessPlan, error) {
	var out []domain.FitnessPlan
	for _, id := range r.order {
		if p, ok := r.plans[id]; ok && p.TrainerID == trainerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetByTrainerIDs(ctx context.Context, trainerIDs []primitive.ObjectID) ([]domain.FitnessPlan, error) {
	set := make(map[primitive.ObjectID]bool, len(trainerIDs))
	for _, id := range trainerIDs {
		set[id] = true
	}
	var out []domain.FitnessPlan
	for _, id := range r.order {
		if p, ok := r.plans[id]; ok && set[p.TrainerID] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.FitnessPlan, error) {
	var out []domain.FitnessPlan
	for _, id := range ids {
		if p, ok := r.plans[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *domain.FitnessPlan, trainerID primitive.ObjectID) error {
	stored, ok := r.plans[plan.ID]
	if !ok || stored.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	stored.Title = plan.Title
	stored.Description = plan.Description
	stored.PreviewDescription = plan.PreviewDescription
	stored.Price = plan.Price
	stored.DurationDays = plan.DurationDays
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id, trainerID primitive.ObjectID) error {
	stored, ok := r.plans[id]
	if !ok || stored.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) CountByTrainerID(ctx context.Context, trainerID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.plans {
		if p.TrainerID == trainerID {
			n++
		}
	}
	return n, nil
}

type fakePlanDayRepo struct {
	days map[primitive.ObjectID]*domain.PlanDay
}

func newFakePlanDayRepo() *fakePlanDayRepo {
	return &fakePlanDayRepo{days: make(map[primitive.ObjectID]*domain.PlanDay)}
}

func (r *fakePlanDayRepo) Create(ctx context.Context, day *domain.PlanDay) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	day.ID = id
	cp := *day
	r.days[id] = &cp
	return id, nil
}

func (r *fakePlanDayRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDay, error) {
	var out []domain.PlanDay
	for _, d := range r.days {
		if d.PlanID == planID {
			out = append(out, *d)
		}
	}
	// Ascending dayNumber, as the mongo implementation sorts.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].DayNumber < out[i].DayNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakePlanDayRepo) Update(ctx context.Context, day *domain.PlanDay) error {
	stored, ok := r.days[day.ID]
	if !ok || stored.PlanID != day.PlanID {
		return repository.ErrNotFound
	}
	cp := *day
	r.days[day.ID] = &cp
	return nil
}

func (r *fakePlanDayRepo) Delete(ctx context.Context, id, planID primitive.ObjectID) error {
	stored, ok := r.days[id]
	if !ok || stored.PlanID != planID {
		return repository.ErrNotFound
	}
	delete(r.days, id)
	return nil
}

func (r *fakePlanDayRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	for id, d := range r.days {
		if d.PlanID == planID {
			delete(r.days, id)
		}
	}
	return nil
}

type fakeSubscriptionRepo struct {
	subs map[primitive.ObjectID]*domain.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[primitive.ObjectID]*domain.Subscription)}
}

func (r *fakeSubscriptionRepo) find(userID, planID primitive.ObjectID) *domain.Subscription {
	for _, s := range r.subs {
		if s.UserID == userID && s.PlanID == planID {
			return s
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) Upsert(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	if s := r.find(userID, planID); s != nil {
		s.IsActive = true
		cp := *s
		return &cp, nil
	}
	sub := &domain.Subscription{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		PlanID:       planID,
		PurchaseDate: time.Now().UTC(),
		IsActive:     true,
	}
	r.subs[sub.ID] = sub
	cp := *sub
	return &cp, nil
}

func (r *fakeSubscriptionRepo) Deactivate(ctx context.Context, userID, planID primitive.ObjectID) error {
	s := r.find(userID, planID)
	if s == nil {
		return repository.ErrNotFound
	}
	s.IsActive = false
	return nil
}

func (r *fakeSubscriptionRepo) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, s := range r.subs {
		if s.UserID == userID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) HasActive(ctx context.Context, userID, planID primitive.ObjectID) (bool, error) {
	s := r.find(userID, planID)
	return s != nil && s.IsActive, nil
}

func (r *fakeSubscriptionRepo) CountActiveByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.PlanID == planID && s.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) CountActiveByPlanIDs(ctx context.Context, planIDs []primitive.ObjectID) (int64, error) {
	var n int64
	for _, id := range planIDs {
		c, _ := r.CountActiveByPlanID(ctx, id)
		n += c
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) CountActiveSince(ctx context.Context, planIDs []primitive.ObjectID, since time.Time) (int64, error) {
	set := make(map[primitive.ObjectID]bool, len(planIDs))
	for _, id := range planIDs {
		set[id] = true
	}
	var n int64
	for _, s := range r.subs {
		if set[s.PlanID] && s.IsActive && !s.PurchaseDate.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriptionRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	for id, s := range r.subs {
		if s.PlanID == planID {
			delete(r.subs, id)
		}
	}
	return nil
}

// fakeFileStorage hands out deterministic URLs.
type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/upload/%s", objectKey), nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s", objectKey), nil
}

func (fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}
