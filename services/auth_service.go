// Package services, iş mantığı katmanıdır.
// Handler'lar HTTP detaylarını, repository'ler SQL'i bilir;
// aradaki kurallar burada yaşar.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/pkg/cache"
	"github.com/akinalp/quickchat/repository"
)

// bcryptCost 12: 2^12 iterasyon. Default 10'dan yavaş ama modern
// donanımda hâlâ ~250ms — brute-force maliyetini anlamlı artırır.
const bcryptCost = 12

// AuthService, kayıt, giriş ve token yönetimi interface'i.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(token string) (*models.TokenClaims, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	InvalidateUser(userID string)
	CleanupExpiredSessions(ctx context.Context)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository

	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// userCache, token doğrulamasında kullanıcı varlık kontrolünü
	// her request'te DB'ye gitmeden yapar. TTL kısa tutulur —
	// silinen kullanıcı en geç TTL süresi sonunda düşer.
	userCache *cache.TTLCache[string, *models.User]
}

// NewAuthService, constructor.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		userCache:  cache.New[string, *models.User](30*time.Second, 5*time.Minute),
	}
}

// Register, yeni kullanıcı oluşturur ve token çifti döner.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var displayName, bio *string
	if req.DisplayName != "" {
		displayName = &req.DisplayName
	}
	if req.Bio != "" {
		bio = &req.Bio
	}

	user, err := s.users.Create(ctx, req.Username, string(hash), displayName, bio)
	if err != nil {
		return nil, err
	}

	log.Printf("[auth] user registered: %s (%s)", user.Username, user.ID)
	return s.issueTokens(ctx, user)
}

// Login, kimlik bilgilerini doğrular ve token çifti döner.
// Kullanıcı yok ile şifre yanlış aynı hatayı döner —
// username enumeration engellenir.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", pkg.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", pkg.ErrUnauthorized)
	}

	log.Printf("[auth] user logged in: %s", user.Username)
	return s.issueTokens(ctx, user)
}

// Refresh, refresh token'ı doğrular, ROTATE eder ve yeni çift döner.
// Eski refresh token tek kullanımlıktır — çalınan token'ın ikinci
// kullanımı ErrUnauthorized ile düşer.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", pkg.ErrUnauthorized)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteByRefreshToken(ctx, refreshToken)
		return nil, fmt.Errorf("refresh token expired: %w", pkg.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("user no longer exists: %w", pkg.ErrUnauthorized)
	}

	if err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout, refresh token'ın oturumunu sonlandırır.
// Access token stateless olduğundan süresine kadar geçerli kalır —
// kısa TTL (15dk) bu pencereyi sınırlar.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("invalid refresh token: %w", pkg.ErrUnauthorized)
	}
	return nil
}

// ValidateAccessToken, JWT'yi doğrular ve claims döner.
// middleware.Auth ve ws.Handler tarafından her istekte çağrılır.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		// alg confusion saldırısına karşı imza yöntemi pin'lenir
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// GetUser, ID ile kullanıcıyı döner; kısa TTL cache üzerinden.
func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if user, ok := s.userCache.Get(userID); ok {
		return user, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.userCache.Set(userID, user)
	return user, nil
}

// InvalidateUser, profil güncellemesi sonrası cache'i düşürür.
func (s *authService) InvalidateUser(userID string) {
	s.userCache.Delete(userID)
}

// CleanupExpiredSessions, süresi geçmiş oturumları siler.
// main tarafında periyodik olarak çağrılır.
func (s *authService) CleanupExpiredSessions(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Printf("[auth] session cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[auth] cleaned up %d expired sessions", n)
	}
}

// issueTokens, access + refresh token çifti üretir ve oturumu kaydeder.
func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Subject:   user.ID,
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.Create(ctx, user.ID, refreshToken, now.Add(s.refreshTTL)); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// generateRefreshToken, 32 karakterlik opak hex token üretir.
// JWT değil — sunucu tarafında saklanır, iptal edilebilir.
func generateRefreshToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
