package service

import (
	"context"
	"errors"
	"time"

	"fitplanhub/server/internal/domain"
	"fitplanhub/server/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("account with this username or email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrInvalidRole          = errors.New("role must be user or trainer")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
)

// TokenPair carries the access/refresh token pair issued at registration,
// login and refresh.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthService issues accounts and token pairs.
type AuthService interface {
	Register(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, *TokenPair, error)
	Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetJWTSecret() string
}

// --- Service Implementation ---

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpiry, refreshExpiry time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if accessExpiry <= 0 {
		accessExpiry = time.Hour
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates a new account. Trainer registrations get an empty
// TrainerProfile attached immediately; a role is fixed at this point and no
// later endpoint changes it.
func (s *authService) Register(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, *TokenPair, error) {
	if username == "" || email == "" || password == "" {
		return nil, nil, errors.New("username, email and password cannot be empty")
	}
	if role != domain.RoleUser && role != domain.RoleTrainer {
		return nil, nil, ErrInvalidRole
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if role == domain.RoleTrainer {
		user.TrainerProfile = &domain.TrainerProfile{}
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique indexes on username and email are the authority; no
		// pre-check read, so concurrent registrations cannot slip through.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrUserAlreadyExists
		}
		return nil, nil, err
	}
	user.ID = userID

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return user, tokens, nil
}

// Login authenticates by username and password. A missing account and a
// wrong password both map to the same error.
func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	if username == "" || password == "" {
		return nil, nil, errors.New("username and password cannot be empty")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrAuthenticationFailed
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return user, tokens, nil
}

// Refresh validates a refresh token and issues a fresh pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidRefreshToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := claims.UserObjectID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Re-read the account so a pair minted from a stale token still carries
	// the current role.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, ErrTokenGeneration
	}
	return tokens, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

// --- JWT Helpers ---

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// jwtClaims defines the structure of the JWT payload. The API middleware
// mirrors this shape when validating access tokens.
type jwtClaims struct {
	UserID    string      `json:"uid"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

func (c *jwtClaims) UserObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.UserID)
}

func (s *authService) generateTokenPair(user *domain.User) (*TokenPair, error) {
	access, err := s.signToken(user, tokenTypeAccess, s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, tokenTypeRefresh, s.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *authService) signToken(user *domain.User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:    user.ID.Hex(),
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitplanhub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
