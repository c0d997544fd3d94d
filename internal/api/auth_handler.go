package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService    service.AuthService
	accountService service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, accountService service.AccountService) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Username string      `json:"username" binding:"required,min=3"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=user trainer"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID             string                  `json:"id"`
	Username       string                  `json:"username"`
	Email          string                  `json:"email"`
	Role           domain.Role             `json:"role"`
	Bio            string                  `json:"bio"`
	ProfilePicture string                  `json:"profile_picture,omitempty"`
	TrainerProfile *TrainerProfileResponse `json:"trainer_profile,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

type TrainerProfileResponse struct {
	Certification   string `json:"certification"`
	ExperienceYears int    `json:"experience_years"`
	Specialization  string `json:"specialization"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// --- Handler Methods ---

// Register creates a new account and, like login, hands back a token pair so
// the client is signed in immediately.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// Bind JSON request body and perform validation based on `binding` tags
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, tokens, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrInvalidRole) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}

	c.JSON(http.StatusCreated, TokenPairResponse{
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
		User:    h.mapUser(c, user),
	})
}

// Login authenticates username/password and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
		User:    h.mapUser(c, user),
	})
}

// ObtainToken is the bare token endpoint: same credentials check as Login
// but the response carries only the pair.
func (h *AuthHandler) ObtainToken(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	_, tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{Access: tokens.Access, Refresh: tokens.Refresh})
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during token refresh")
		}
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{Access: tokens.Access, Refresh: tokens.Refresh})
}

// mapUser resolves the stored picture key to a presigned URL on the way out.
func (h *AuthHandler) mapUser(c *gin.Context, user *domain.User) UserResponse {
	pictureURL := h.accountService.ProfilePictureURL(c.Request.Context(), user)
	return MapUserToResponse(user, pictureURL)
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
// Crucially excludes PasswordHash and converts ObjectIDs to strings.
// pictureURL is the already-resolved presigned URL ("" when there is none).
func MapUserToResponse(user *domain.User, pictureURL string) UserResponse {
	if user == nil {
		return UserResponse{}
	}

	resp := UserResponse{
		ID:             user.ID.Hex(),
		Username:       user.Username,
		Email:          user.Email,
		Role:           user.Role,
		Bio:            user.Bio,
		ProfilePicture: pictureURL,
		CreatedAt:      user.CreatedAt,
	}

	if user.TrainerProfile != nil {
		resp.TrainerProfile = &TrainerProfileResponse{
			Certification:   user.TrainerProfile.Certification,
			ExperienceYears: user.TrainerProfile.ExperienceYears,
			Specialization:  user.TrainerProfile.Specialization,
		}
	}

	return resp
}
