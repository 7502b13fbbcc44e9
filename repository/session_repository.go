package repository

import (
	"context"
	"time"

	"github.com/akinalp/quickchat/models"
)

// SessionRepository, refresh token oturumları için interface.
type SessionRepository interface {
	Create(ctx context.Context, userID, refreshToken string, expiresAt time.Time) (*models.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
