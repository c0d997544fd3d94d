package api

import (
	"errors"
	"net/http"
	"time"

	"fitplanhub/server/internal/service"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler holds the subscription and account service
// dependencies.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	accountService      service.AccountService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService, accountService service.AccountService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, accountService: accountService}
}

// --- Response Structs ---

type SubscriptionResponse struct {
	ID           string    `json:"id"`
	PlanID       string    `json:"plan_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	IsActive     bool      `json:"is_active"`
}

type SubscriptionEntryResponse struct {
	ID           string       `json:"id"`
	Plan         PlanResponse `json:"plan"`
	PurchaseDate time.Time    `json:"purchase_date"`
	IsActive     bool         `json:"is_active"`
}

type WeeklyProgressResponse struct {
	Week     string `json:"week"`
	Workouts int64  `json:"workouts"`
	Calories int64  `json:"calories"`
}

type ProgressResponse struct {
	TotalPlans        int64                    `json:"total_plans"`
	TotalDays         int64                    `json:"total_days"`
	CompletedDays     int64                    `json:"completed_days"`
	CompletionRate    int64                    `json:"completion_rate"`
	CurrentStreak     int64                    `json:"current_streak"`
	LongestStreak     int64                    `json:"longest_streak"`
	CaloriesBurned    int64                    `json:"calories_burned"`
	WorkoutsCompleted int64                    `json:"workouts_completed"`
	WeightLost        float64                  `json:"weight_lost"`
	MuscleGained      float64                  `json:"muscle_gained"`
	WeeklyProgress    []WeeklyProgressResponse `json:"weekly_progress"`
}

// --- Handler Methods ---

// Subscribe activates a subscription to the plan in the path. Repeats are
// idempotent and keep the original purchase date.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), userID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to subscribe")
		}
		return
	}

	c.JSON(http.StatusCreated, SubscriptionResponse{
		ID:           sub.ID.Hex(),
		PlanID:       sub.PlanID.Hex(),
		PurchaseDate: sub.PurchaseDate,
		IsActive:     sub.IsActive,
	})
}

// Unsubscribe deactivates the caller's subscription to the plan in the
// path.
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), userID, planID); err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to unsubscribe")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSubscriptions returns the caller's active subscriptions with full
// plan detail.
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entries, err := h.subscriptionService.ListMySubscriptions(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load subscriptions")
		return
	}

	resp := make([]SubscriptionEntryResponse, 0, len(entries))
	for _, e := range entries {
		pictureURL := h.accountService.ProfilePictureURL(c.Request.Context(), &e.Trainer)
		plan := MapPlanPreview(e.Plan, MapUserToResponse(&e.Trainer, pictureURL))
		// Active subscribers get the full shape.
		plan.Description = e.Plan.Description
		plan.Days = mapPlanDays(e.Days)
		subscribed := true
		plan.IsSubscribed = &subscribed

		resp = append(resp, SubscriptionEntryResponse{
			ID:           e.Subscription.ID.Hex(),
			Plan:         plan,
			PurchaseDate: e.Subscription.PurchaseDate,
			IsActive:     e.Subscription.IsActive,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Progress returns the caller's progress report.
func (h *SubscriptionHandler) Progress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.subscriptionService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load progress")
		return
	}

	weekly := make([]WeeklyProgressResponse, 0, len(report.WeeklyProgress))
	for _, w := range report.WeeklyProgress {
		weekly = append(weekly, WeeklyProgressResponse{Week: w.Week, Workouts: w.Workouts, Calories: w.Calories})
	}

	c.JSON(http.StatusOK, ProgressResponse{
		TotalPlans:        report.TotalPlans,
		TotalDays:         report.TotalDays,
		CompletedDays:     report.CompletedDays,
		CompletionRate:    report.CompletionRate,
		CurrentStreak:     report.CurrentStreak,
		LongestStreak:     report.LongestStreak,
		CaloriesBurned:    report.CaloriesBurned,
		WorkoutsCompleted: report.WorkoutsCompleted,
		WeightLost:        report.WeightLost,
		MuscleGained:      report.MuscleGained,
		WeeklyProgress:    weekly,
	})
}
