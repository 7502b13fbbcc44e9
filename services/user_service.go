package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/repository"
)

// UserService, profil görüntüleme ve güncelleme.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.User, error)
}

type userService struct {
	users   repository.UserRepository
	uploads UploadService
	auth    AuthService // cache invalidation için
}

// NewUserService, constructor.
func NewUserService(users repository.UserRepository, uploads UploadService, auth AuthService) UserService {
	return &userService{users: users, uploads: uploads, auth: auth}
}

// GetProfile, kullanıcının public profilini döner.
func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile, display name ve bio'yu kısmi günceller.
// nil alan dokunulmaz, boş string alanı temizler.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.users.UpdateProfile(ctx, userID, req.DisplayName, req.Bio)
	if err != nil {
		return nil, err
	}

	s.auth.InvalidateUser(userID)
	return user, nil
}

// UpdateAvatar, profil fotoğrafını yükler ve kullanıcıya bağlar.
func (s *userService) UpdateAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*models.User, error) {
	avatarURL, err := s.uploads.SaveImage(file, header)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateAvatar(ctx, userID, avatarURL)
	if err != nil {
		return nil, err
	}

	s.auth.InvalidateUser(userID)
	return user, nil
}
