package repository

import (
	"context"

	"github.com/akinalp/quickchat/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
// Interface kullanmak test'te mock'lamayı ve ileride farklı
// veritabanına geçmeyi kolaylaştırır.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string, displayName, bio *string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAllExcept(ctx context.Context, userID string) ([]*models.User, error)
	UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error)
}
