package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitplanhub/server/internal/domain"
)

func newTestAuthService() (AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	return NewAuthService(users, "test-secret", time.Hour, 24*time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, "coach", "coach@example.com", "password123", domain.RoleTrainer)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.TrainerProfile == nil {
		t.Error("Expected trainer registration to attach a trainer profile")
	}
	if user.PasswordHash != "" {
		t.Error("Expected password hash to be stripped from the returned user")
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Error("Expected a full token pair")
	}

	loggedIn, _, err := svc.Login(ctx, "coach", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Expected login to return the registered user, got %s", loggedIn.ID.Hex())
	}
}

func TestRegisterPlainUserHasNoTrainerProfile(t *testing.T) {
	svc, _ := newTestAuthService()

	user, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123", domain.RoleUser)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.TrainerProfile != nil {
		t.Error("Expected plain user registration to have no trainer profile")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "coach", "coach@example.com", "password123", domain.RoleTrainer); err != nil {
		t.Fatalf("First register failed: %v", err)
	}
	_, _, err := svc.Register(ctx, "coach", "other@example.com", "password123", domain.RoleTrainer)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestAuthService()

	_, _, err := svc.Register(context.Background(), "x", "x@example.com", "password123", domain.Role("admin"))
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "password123", domain.RoleUser); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Wrong password and unknown account must be indistinguishable.
	if _, _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed for unknown user, got %v", err)
	}
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, "alice", "alice@example.com", "password123", domain.RoleUser)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	fresh, err := svc.Refresh(ctx, tokens.Refresh)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh.Access == "" || fresh.Refresh == "" {
		t.Error("Expected a full token pair from refresh")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, "alice", "alice@example.com", "password123", domain.RoleUser)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Refresh(ctx, tokens.Access); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Expected ErrInvalidRefreshToken for an access token, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Expected ErrInvalidRefreshToken, got %v", err)
	}
}
