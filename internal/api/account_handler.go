package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountHandler holds the account service dependency.
type AccountHandler struct {
	accountService service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// --- Request/Response Structs ---

type UpdateProfileRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=3"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"` // object key from the upload flow
}

type UpdateTrainerProfileRequest struct {
	Certification   string `json:"certification" binding:"required"`
	ExperienceYears int    `json:"experience_years" binding:"min=0"`
	Specialization  string `json:"specialization" binding:"required"`
}

type PictureUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

type PictureUploadResponse struct {
	ObjectKey string `json:"object_key"`
	UploadURL string `json:"upload_url"`
}

type FollowResponse struct {
	ID        string       `json:"id"`
	Following UserResponse `json:"following"`
	CreatedAt time.Time    `json:"created_at"`
}

type TrainerSummaryResponse struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Bio             string  `json:"bio"`
	ProfilePicture  string  `json:"profile_picture,omitempty"`
	Specialization  string  `json:"specialization"`
	Certification   string  `json:"certification"`
	ExperienceYears int     `json:"experience_years"`
	Rating          float64 `json:"rating"`
	PlanCount       int64   `json:"plan_count"`
	FollowerCount   int64   `json:"follower_count"`
	SubscriberCount int64   `json:"subscriber_count"`
}

type TrainerDetailResponse struct {
	TrainerSummaryResponse
	Plans       []PlanResponse `json:"plans"`
	IsFollowing bool           `json:"is_following"`
}

// --- Handler Methods ---

// GetProfile returns the caller's own account.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.accountService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load profile")
		}
		return
	}

	c.JSON(http.StatusOK, h.mapUser(c, user))
}

// UpdateProfile writes the caller's own mutable profile fields. Role and id
// are not accepted here at all.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.accountService.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Username:       req.Username,
		Email:          req.Email,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, h.mapUser(c, user))
}

// UpdateTrainerProfile writes the caller's certification fields.
// Trainer-only; the route carries RoleMiddleware.
func (h *AccountHandler) UpdateTrainerProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateTrainerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.accountService.UpdateTrainerProfile(c.Request.Context(), userID, domain.TrainerProfile{
		Certification:   req.Certification,
		ExperienceYears: req.ExperienceYears,
		Specialization:  req.Specialization,
	})
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrNotTrainer) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update trainer profile")
		}
		return
	}

	c.JSON(http.StatusOK, h.mapUser(c, user))
}

// RequestPictureUpload hands out a presigned PUT URL. The client uploads
// directly to object storage, then saves the returned key via UpdateProfile.
func (h *AccountHandler) RequestPictureUpload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PictureUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.accountService.ProfilePictureUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, PictureUploadResponse{
		ObjectKey: upload.ObjectKey,
		UploadURL: upload.UploadURL,
	})
}

// Follow creates a follow edge toward the trainer in the path.
func (h *AccountHandler) Follow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	trainerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	entry, err := h.accountService.Follow(c.Request.Context(), userID, trainerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyFollowing):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to follow trainer")
		}
		return
	}

	c.JSON(http.StatusCreated, h.mapFollow(c, entry))
}

// Unfollow removes the follow edge toward the trainer in the path.
func (h *AccountHandler) Unfollow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	trainerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.accountService.Unfollow(c.Request.Context(), userID, trainerID); err != nil {
		if errors.Is(err, service.ErrFollowNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to unfollow trainer")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFollowing returns the trainers the caller follows.
func (h *AccountHandler) ListFollowing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entries, err := h.accountService.ListFollowing(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load following list")
		return
	}

	resp := make([]FollowResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, h.mapFollow(c, &entries[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ListTrainers returns the public trainer directory.
func (h *AccountHandler) ListTrainers(c *gin.Context) {
	summaries, err := h.accountService.ListTrainers(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load trainers")
		return
	}

	resp := make([]TrainerSummaryResponse, 0, len(summaries))
	for i := range summaries {
		resp = append(resp, h.mapTrainerSummary(c, &summaries[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrainer returns one trainer's directory entry with their plans.
func (h *AccountHandler) GetTrainer(c *gin.Context) {
	trainerID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var viewerID *primitive.ObjectID
	if idStr, err := getUserIDFromContext(c); err == nil {
		if id, err := primitive.ObjectIDFromHex(idStr); err == nil {
			viewerID = &id
		}
	}

	detail, err := h.accountService.GetTrainerDetail(c.Request.Context(), trainerID, viewerID)
	if err != nil {
		if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load trainer")
		}
		return
	}

	trainerResp := h.mapUser(c, &detail.Summary.Trainer)
	resp := TrainerDetailResponse{
		TrainerSummaryResponse: h.mapTrainerSummary(c, &detail.Summary),
		Plans:                  make([]PlanResponse, 0, len(detail.Plans)),
		IsFollowing:            detail.IsFollowing,
	}
	for _, p := range detail.Plans {
		resp.Plans = append(resp.Plans, MapPlanPreview(p, trainerResp))
	}
	c.JSON(http.StatusOK, resp)
}

// --- Mapping helpers ---

func (h *AccountHandler) mapUser(c *gin.Context, user *domain.User) UserResponse {
	pictureURL := h.accountService.ProfilePictureURL(c.Request.Context(), user)
	return MapUserToResponse(user, pictureURL)
}

func (h *AccountHandler) mapFollow(c *gin.Context, entry *service.FollowEntry) FollowResponse {
	return FollowResponse{
		ID:        entry.Follow.ID.Hex(),
		Following: h.mapUser(c, &entry.Following),
		CreatedAt: entry.Follow.CreatedAt,
	}
}

func (h *AccountHandler) mapTrainerSummary(c *gin.Context, s *service.TrainerSummary) TrainerSummaryResponse {
	pictureURL := h.accountService.ProfilePictureURL(c.Request.Context(), &s.Trainer)
	return TrainerSummaryResponse{
		ID:              s.Trainer.ID.Hex(),
		Username:        s.Trainer.Username,
		Bio:             s.Trainer.Bio,
		ProfilePicture:  pictureURL,
		Specialization:  s.Specialization,
		Certification:   s.Certification,
		ExperienceYears: s.ExperienceYears,
		Rating:          s.Rating,
		PlanCount:       s.PlanCount,
		FollowerCount:   s.FollowerCount,
		SubscriberCount: s.SubscriberCount,
	}
}

// --- Shared request helpers ---

// currentUserID reads the authenticated user's ID from the context. It
// aborts with 401 itself so callers can just return on !ok.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user identity")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses an ObjectID path parameter, aborting with 400 on
// malformed input.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
