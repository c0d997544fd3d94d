package service

import (
	"context"
	"errors"
	"fmt"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"
	"fitplanhub/server/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrTrainerNotFound  = errors.New("trainer not found")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this trainer")
	ErrFollowNotFound   = errors.New("not following this trainer")
	ErrNotTrainer       = errors.New("only trainers can perform this action")
)

// Placeholder profile values shown in the trainer directory when an account
// has no TrainerProfile document.
const (
	defaultSpecialization = "General Fitness"
	defaultCertification  = "Certified"
	defaultTrainerRating  = 4.5
)

// ProfileUpdate carries the writable profile fields. Nil pointers leave the
// stored value unchanged; id and role have no update path.
type ProfileUpdate struct {
	Username       *string
	Email          *string
	Bio            *string
	ProfilePicture *string
}

// FollowEntry pairs a follow edge with the followed account's public fields.
type FollowEntry struct {
	Follow    domain.Follow
	Following domain.User
}

// TrainerSummary is the denormalized directory row for one trainer.
type TrainerSummary struct {
	Trainer         domain.User
	PlanCount       int64
	FollowerCount   int64
	SubscriberCount int64
	ExperienceYears int
	Specialization  string
	Certification   string
	Rating          float64
}

// TrainerDetail extends the summary with the trainer's plans and the
// viewer's follow state.
type TrainerDetail struct {
	Summary     TrainerSummary
	Plans       []domain.FitnessPlan
	IsFollowing bool
}

// PictureUpload is a presigned PUT target for a profile picture.
type PictureUpload struct {
	ObjectKey string
	UploadURL string
}

// AccountService covers profiles, the follow relation and the trainer
// directory.
type AccountService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates ProfileUpdate) (*domain.User, error)
	UpdateTrainerProfile(ctx context.Context, userID primitive.ObjectID, profile domain.TrainerProfile) (*domain.User, error)
	ProfilePictureUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*PictureUpload, error)
	ProfilePictureURL(ctx context.Context, user *domain.User) string

	Follow(ctx context.Context, followerID, trainerID primitive.ObjectID) (*FollowEntry, error)
	Unfollow(ctx context.Context, followerID, trainerID primitive.ObjectID) error
	ListFollowing(ctx context.Context, followerID primitive.ObjectID) ([]FollowEntry, error)

	ListTrainers(ctx context.Context) ([]TrainerSummary, error)
	GetTrainerDetail(ctx context.Context, trainerID primitive.ObjectID, viewerID *primitive.ObjectID) (*TrainerDetail, error)
}

type accountService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	planRepo   repository.PlanRepository
	subRepo    repository.SubscriptionRepository
	files      storage.FileStorage
}

// NewAccountService creates a new instance of accountService.
func NewAccountService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	planRepo repository.PlanRepository,
	subRepo repository.SubscriptionRepository,
	files storage.FileStorage,
) AccountService {
	return &accountService{
		userRepo:   userRepo,
		followRepo: followRepo,
		planRepo:   planRepo,
		subRepo:    subRepo,
		files:      files,
	}
}

// === Profile ===

func (s *accountService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile writes the caller's own profile fields. There is no
// cross-account edit path; the caller identity is the lookup key.
func (s *accountService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, updates ProfileUpdate) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if updates.Username != nil {
		user.Username = *updates.Username
	}
	if updates.Email != nil {
		user.Email = *updates.Email
	}
	if updates.Bio != nil {
		user.Bio = *updates.Bio
	}
	if updates.ProfilePicture != nil {
		user.ProfilePicture = *updates.ProfilePicture
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateTrainerProfile writes the certification fields of the caller's
// trainer profile. Accounts registered as plain users have no profile to
// update and no way to acquire one, since role never changes.
func (s *accountService) UpdateTrainerProfile(ctx context.Context, userID primitive.ObjectID, profile domain.TrainerProfile) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !user.IsTrainer() {
		return nil, ErrNotTrainer
	}

	user.TrainerProfile = &profile
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// ProfilePictureUploadURL hands out a presigned PUT URL plus the object key
// the client should store back on its profile after uploading.
func (s *accountService) ProfilePictureUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*PictureUpload, error) {
	objectKey := fmt.Sprintf("profile_pics/%s/%s", userID.Hex(), uuid.NewString())
	url, err := s.files.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &PictureUpload{ObjectKey: objectKey, UploadURL: url}, nil
}

// ProfilePictureURL resolves the stored object key to a presigned GET URL.
// Returns "" when the account has no picture or the store is unreachable;
// a missing picture never fails a profile read.
func (s *accountService) ProfilePictureURL(ctx context.Context, user *domain.User) string {
	if user == nil || user.ProfilePicture == "" {
		return ""
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, user.ProfilePicture, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return ""
	}
	return url
}

// === Follow relation ===

// Follow creates the (caller, trainer) edge. The target must be a trainer
// account; a plain user target reads as not found.
func (s *accountService) Follow(ctx context.Context, followerID, trainerID primitive.ObjectID) (*FollowEntry, error) {
	if followerID == trainerID {
		return nil, ErrSelfFollow
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrTrainerNotFound
	}

	follow := &domain.Follow{FollowerID: followerID, FollowingID: trainerID}
	if _, err := s.followRepo.Create(ctx, follow); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}

	trainer.PasswordHash = ""
	return &FollowEntry{Follow: *follow, Following: *trainer}, nil
}

func (s *accountService) Unfollow(ctx context.Context, followerID, trainerID primitive.ObjectID) error {
	err := s.followRepo.Delete(ctx, followerID, trainerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFollowNotFound
	}
	return err
}

// ListFollowing returns the caller's follow edges with the followed
// accounts' public fields attached.
func (s *accountService) ListFollowing(ctx context.Context, followerID primitive.ObjectID) ([]FollowEntry, error) {
	follows, err := s.followRepo.GetByFollower(ctx, followerID)
	if err != nil {
		return nil, err
	}

	entries := make([]FollowEntry, 0, len(follows))
	for _, f := range follows {
		followed, err := s.userRepo.GetByID(ctx, f.FollowingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue // account deleted since the edge was created
			}
			return nil, err
		}
		followed.PasswordHash = ""
		entries = append(entries, FollowEntry{Follow: f, Following: *followed})
	}
	return entries, nil
}

// === Trainer directory ===

// ListTrainers builds the denormalized directory: per trainer, plan count,
// follower count, active subscriber count and profile fields (with
// placeholders when no profile exists).
func (s *accountService) ListTrainers(ctx context.Context) ([]TrainerSummary, error) {
	trainers, err := s.userRepo.GetTrainers(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]TrainerSummary, 0, len(trainers))
	for _, t := range trainers {
		planCount, followerCount, subscriberCount, err := s.trainerCounts(ctx, t.ID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, buildTrainerSummary(t, planCount, followerCount, subscriberCount))
	}
	return summaries, nil
}

// GetTrainerDetail returns one trainer's directory entry plus their plans
// and whether the viewer follows them (false for anonymous viewers).
func (s *accountService) GetTrainerDetail(ctx context.Context, trainerID primitive.ObjectID, viewerID *primitive.ObjectID) (*TrainerDetail, error) {
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrTrainerNotFound
	}

	planCount, followerCount, subscriberCount, err := s.trainerCounts(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	plans, err := s.planRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != nil {
		follows, err := s.followRepo.GetByFollower(ctx, *viewerID)
		if err != nil {
			return nil, err
		}
		for _, f := range follows {
			if f.FollowingID == trainerID {
				isFollowing = true
				break
			}
		}
	}

	return &TrainerDetail{
		Summary:     buildTrainerSummary(*trainer, planCount, followerCount, subscriberCount),
		Plans:       plans,
		IsFollowing: isFollowing,
	}, nil
}

// buildTrainerSummary fills in the directory placeholders for accounts with
// no (or a partially empty) trainer profile.
func buildTrainerSummary(t domain.User, planCount, followerCount, subscriberCount int64) TrainerSummary {
	t.PasswordHash = ""
	summary := TrainerSummary{
		Trainer:         t,
		PlanCount:       planCount,
		FollowerCount:   followerCount,
		SubscriberCount: subscriberCount,
		Specialization:  defaultSpecialization,
		Certification:   defaultCertification,
		Rating:          defaultTrainerRating,
	}
	if t.TrainerProfile != nil {
		summary.ExperienceYears = t.TrainerProfile.ExperienceYears
		if t.TrainerProfile.Specialization != "" {
			summary.Specialization = t.TrainerProfile.Specialization
		}
		if t.TrainerProfile.Certification != "" {
			summary.Certification = t.TrainerProfile.Certification
		}
	}
	return summary
}

func (s *accountService) trainerCounts(ctx context.Context, trainerID primitive.ObjectID) (plans, followers, subscribers int64, err error) {
	plans, err = s.planRepo.CountByTrainerID(ctx, trainerID)
	if err != nil {
		return
	}
	followers, err = s.followRepo.CountFollowers(ctx, trainerID)
	if err != nil {
		return
	}

	trainerPlans, err := s.planRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return
	}
	planIDs := make([]primitive.ObjectID, len(trainerPlans))
	for i, p := range trainerPlans {
		planIDs[i] = p.ID
	}
	subscribers, err = s.subRepo.CountActiveByPlanIDs(ctx, planIDs)
	return
}
