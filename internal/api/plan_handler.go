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

// PlanHandler holds the plan and account service dependencies.
type PlanHandler struct {
	planService    service.PlanService
	accountService service.AccountService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, accountService service.AccountService) *PlanHandler {
	return &PlanHandler{planService: planService, accountService: accountService}
}

// --- Request/Response Structs ---

type PlanRequest struct {
	Title              string  `json:"title" binding:"required"`
	Description        string  `json:"description" binding:"required"`
	PreviewDescription string  `json:"preview_description" binding:"required"`
	Price              float64 `json:"price" binding:"min=0"`
	DurationDays       int     `json:"duration_days" binding:"required,min=1"`
}

type PlanDayRequest struct {
	DayNumber       int    `json:"day_number" binding:"required,min=1"`
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Exercises       string `json:"exercises"`
	DurationMinutes int    `json:"duration_minutes" binding:"min=0"`
}

type PlanDayResponse struct {
	ID              string `json:"id"`
	DayNumber       int    `json:"day_number"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Exercises       string `json:"exercises"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PlanResponse covers both shapes. The preview omits description, days and
// is_subscribed; the full shape carries all of them.
type PlanResponse struct {
	ID                 string            `json:"id"`
	Trainer            UserResponse      `json:"trainer"`
	Title              string            `json:"title"`
	PreviewDescription string            `json:"preview_description"`
	Description        string            `json:"description,omitempty"`
	Price              float64           `json:"price"`
	DurationDays       int               `json:"duration_days"`
	Days               []PlanDayResponse `json:"days,omitempty"`
	IsSubscribed       *bool             `json:"is_subscribed,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

type TrainerStatsResponse struct {
	TotalPlans             int64   `json:"total_plans"`
	TotalSubscribers       int64   `json:"total_subscribers"`
	TotalEarnings          float64 `json:"total_earnings"`
	TotalFollowers         int64   `json:"total_followers"`
	RecentSubscribers      int64   `json:"recent_subscribers"`
	PopularPlanTitle       string  `json:"popular_plan"`
	PopularPlanSubscribers int64   `json:"popular_plan_subscribers"`
}

// --- Handler Methods ---

// ListPlans returns the public catalog. Each item is full or preview shaped
// depending on the viewer's relationship to it.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	views, err := h.planService.ListPlans(c.Request.Context(), optionalUserID(c))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load plans")
		return
	}
	c.JSON(http.StatusOK, h.mapViews(c, views))
}

// GetPlan returns one plan, full or preview shaped.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	view, err := h.planService.GetPlanDetail(c.Request.Context(), planID, optionalUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load plan")
		}
		return
	}
	c.JSON(http.StatusOK, h.mapView(c, view))
}

// ListTrainerPlans returns the authenticated trainer's own plans.
func (h *PlanHandler) ListTrainerPlans(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.planService.ListTrainerPlans(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load plans")
		return
	}
	c.JSON(http.StatusOK, h.mapViews(c, views))
}

// CreatePlan creates a plan owned by the authenticated trainer. The owner
// always comes from the token, never from the body.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), trainerID, planInput(req))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create plan")
		return
	}
	c.JSON(http.StatusCreated, h.mapOwnedPlan(c, plan))
}

// UpdatePlan rewrites one of the trainer's own plans.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), trainerID, planID, planInput(req))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update plan")
		}
		return
	}
	c.JSON(http.StatusOK, h.mapOwnedPlan(c, plan))
}

// DeletePlan removes one of the trainer's own plans along with its days and
// subscription rows.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), trainerID, planID); err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete plan")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPlanDays returns the day-by-day content of a plan, gated on owning or
// actively subscribing. No access means an empty list, not an error.
func (h *PlanHandler) ListPlanDays(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	days, err := h.planService.ListPlanDays(c.Request.Context(), userID, role, planID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load plan days")
		return
	}
	c.JSON(http.StatusOK, mapPlanDays(days))
}

// AddPlanDay appends day content to one of the trainer's own plans.
func (h *PlanHandler) AddPlanDay(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req PlanDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	day, err := h.planService.AddPlanDay(c.Request.Context(), trainerID, planID, planDayInput(req))
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add plan day")
		}
		return
	}
	c.JSON(http.StatusCreated, mapPlanDay(*day))
}

// UpdatePlanDay rewrites one day of one of the trainer's own plans.
func (h *PlanHandler) UpdatePlanDay(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}

	var req PlanDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	day, err := h.planService.UpdatePlanDay(c.Request.Context(), trainerID, planID, dayID, planDayInput(req))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPlanDayNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update plan day")
		}
		return
	}
	c.JSON(http.StatusOK, mapPlanDay(*day))
}

// DeletePlanDay removes one day from one of the trainer's own plans.
func (h *PlanHandler) DeletePlanDay(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	dayID, ok := pathObjectID(c, "dayId")
	if !ok {
		return
	}

	if err := h.planService.DeletePlanDay(c.Request.Context(), trainerID, planID, dayID); err != nil {
		if errors.Is(err, service.ErrPlanNotFound) || errors.Is(err, service.ErrPlanDayNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete plan day")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// TrainerStats returns the authenticated trainer's dashboard numbers.
func (h *PlanHandler) TrainerStats(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.planService.TrainerStats(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	c.JSON(http.StatusOK, TrainerStatsResponse{
		TotalPlans:             stats.TotalPlans,
		TotalSubscribers:       stats.TotalSubscribers,
		TotalEarnings:          stats.TotalEarnings,
		TotalFollowers:         stats.TotalFollowers,
		RecentSubscribers:      stats.RecentSubscribers,
		PopularPlanTitle:       stats.PopularPlanTitle,
		PopularPlanSubscribers: stats.PopularPlanSubscribers,
	})
}

// Feed returns the plans of followed trainers unioned with the caller's
// subscribed plans.
func (h *PlanHandler) Feed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.planService.GetFeed(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load feed")
		return
	}
	c.JSON(http.StatusOK, h.mapViews(c, views))
}

// --- Mapping helpers ---

func (h *PlanHandler) mapViews(c *gin.Context, views []service.PlanView) []PlanResponse {
	resp := make([]PlanResponse, 0, len(views))
	for i := range views {
		resp = append(resp, h.mapView(c, &views[i]))
	}
	return resp
}

func (h *PlanHandler) mapView(c *gin.Context, view *service.PlanView) PlanResponse {
	pictureURL := h.accountService.ProfilePictureURL(c.Request.Context(), &view.Trainer)
	trainerResp := MapUserToResponse(&view.Trainer, pictureURL)

	resp := MapPlanPreview(view.Plan, trainerResp)
	if view.Full {
		resp.Description = view.Plan.Description
		resp.Days = mapPlanDays(view.Days)
		subscribed := view.IsSubscribed
		resp.IsSubscribed = &subscribed
	}
	return resp
}

// mapOwnedPlan serializes a plan the caller just created or updated. The
// caller is the owner, so the shape is always full (with whatever days the
// plan has is left to the days endpoints).
func (h *PlanHandler) mapOwnedPlan(c *gin.Context, plan *domain.FitnessPlan) PlanResponse {
	view := service.PlanView{Plan: *plan, Full: true}
	if trainer, err := h.accountService.GetProfile(c.Request.Context(), plan.TrainerID); err == nil {
		view.Trainer = *trainer
	}
	return h.mapView(c, &view)
}

// MapPlanPreview builds the public preview shape: no full description, no
// days, no subscription flag.
func MapPlanPreview(plan domain.FitnessPlan, trainer UserResponse) PlanResponse {
	return PlanResponse{
		ID:                 plan.ID.Hex(),
		Trainer:            trainer,
		Title:              plan.Title,
		PreviewDescription: plan.PreviewDescription,
		Price:              plan.Price,
		DurationDays:       plan.DurationDays,
		CreatedAt:          plan.CreatedAt,
	}
}

func mapPlanDays(days []domain.PlanDay) []PlanDayResponse {
	resp := make([]PlanDayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, mapPlanDay(d))
	}
	return resp
}

func mapPlanDay(d domain.PlanDay) PlanDayResponse {
	return PlanDayResponse{
		ID:              d.ID.Hex(),
		DayNumber:       d.DayNumber,
		Title:           d.Title,
		Description:     d.Description,
		Exercises:       d.Exercises,
		DurationMinutes: d.DurationMinutes,
	}
}

func planInput(req PlanRequest) service.PlanInput {
	return service.PlanInput{
		Title:              req.Title,
		Description:        req.Description,
		PreviewDescription: req.PreviewDescription,
		Price:              req.Price,
		DurationDays:       req.DurationDays,
	}
}

func planDayInput(req PlanDayRequest) domain.PlanDay {
	return domain.PlanDay{
		DayNumber:       req.DayNumber,
		Title:           req.Title,
		Description:     req.Description,
		Exercises:       req.Exercises,
		DurationMinutes: req.DurationMinutes,
	}
}

// optionalUserID reads the viewer identity when present, nil when the
// request is anonymous.
func optionalUserID(c *gin.Context) *primitive.ObjectID {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return nil
	}
	return &id
}
