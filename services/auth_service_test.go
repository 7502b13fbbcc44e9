package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
)

// fakeSessionRepo, SessionRepository'nin in-memory test implementasyonu.
type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, userID, refreshToken string, expiresAt time.Time) (*models.Session, error) {
	s := &models.Session{
		ID:           refreshToken[:8],
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	r.sessions[refreshToken] = s
	return s, nil
}

func (r *fakeSessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	s, ok := r.sessions[refreshToken]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	if _, ok := r.sessions[refreshToken]; !ok {
		return pkg.ErrNotFound
	}
	delete(r.sessions, refreshToken)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

func newTestAuthService() (AuthService, *fakeUserRepo, *fakeSessionRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	svc := NewAuthService(users, sessions, "test-secret", 15*time.Minute, 7*24*time.Hour)
	return svc, users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &models.CreateUserRequest{
		Username: "alice",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	login, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "supersecret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(login.AccessToken)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	svc.Register(ctx, &models.CreateUserRequest{Username: "alice", Password: "supersecret"})

	_, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrongwrong"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	// Olmayan kullanıcı aynı hatayı döner — enumeration engeli
	_, err = svc.Login(ctx, &models.LoginRequest{Username: "ghost", Password: "supersecret"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	cases := []models.CreateUserRequest{
		{Username: "ab", Password: "supersecret"},      // çok kısa username
		{Username: "alice", Password: "short"},         // çok kısa şifre
		{Username: "bad name!", Password: "supersecret"}, // geçersiz karakter
	}
	for _, req := range cases {
		if _, err := svc.Register(ctx, &req); !errors.Is(err, pkg.ErrBadRequest) {
			t.Errorf("expected ErrBadRequest for %+v, got %v", req, err)
		}
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	resp, _ := svc.Register(ctx, &models.CreateUserRequest{Username: "alice", Password: "supersecret"})

	rotated, err := svc.Refresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if rotated.RefreshToken == resp.RefreshToken {
		t.Error("refresh token should rotate")
	}

	// Eski token artık geçersiz
	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for reused token, got %v", err)
	}

	// Yeni token çalışır
	if _, err := svc.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Errorf("rotated token should work: %v", err)
	}
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	resp, _ := svc.Register(ctx, &models.CreateUserRequest{Username: "alice", Password: "supersecret"})

	if err := svc.Logout(ctx, resp.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := svc.Refresh(ctx, resp.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestAuthService()

	for _, token := range []string{"", "garbage", "aaa.bbb.ccc"} {
		if _, err := svc.ValidateAccessToken(token); !errors.Is(err, pkg.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for %q, got %v", token, err)
		}
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	svc1, _, _ := newTestAuthService()

	users := newFakeUserRepo()
	svc2 := NewAuthService(users, newFakeSessionRepo(), "other-secret", 15*time.Minute, time.Hour)

	resp, _ := svc2.Register(context.Background(), &models.CreateUserRequest{Username: "alice", Password: "supersecret"})

	if _, err := svc1.ValidateAccessToken(resp.AccessToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for foreign token, got %v", err)
	}
}

func TestGetUserCaches(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	svc.Register(ctx, &models.CreateUserRequest{Username: "alice", Password: "supersecret"})

	user, err := svc.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}

	// Repo'dan sil — cache hâlâ servis eder
	delete(users.users, "alice")
	cached, err := svc.GetUser(ctx, "alice")
	if err != nil || cached.ID != user.ID {
		t.Errorf("expected cached user, got %v / %v", cached, err)
	}

	// Invalidation sonrası miss
	svc.InvalidateUser("alice")
	if _, err := svc.GetUser(ctx, "alice"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected ErrNotFound after invalidation, got %v", err)
	}
}
