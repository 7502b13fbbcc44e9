package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/akinalp/quickchat/pkg"
)

// UploadService, resim yükleme iş mantığı.
// Mesaj resimleri ve profil fotoğrafları aynı akıştan geçer;
// dönen URL message.image_url veya user.avatar_url alanına yazılır.
type UploadService interface {
	SaveImage(file multipart.File, header *multipart.FileHeader) (string, error)
	Dir() string
}

type uploadService struct {
	uploadDir string
	maxSize   int64
}

// NewUploadService, upload dizinini oluşturur ve service'i döner.
func NewUploadService(uploadDir string, maxSize int64) (UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &uploadService{uploadDir: uploadDir, maxSize: maxSize}, nil
}

// allowedImageTypes, kabul edilen resim MIME type'ları.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SaveImage, resmi doğrular, diske kaydeder ve public URL'ini döner.
//
// Dosya adı tamamen sunucu üretimidir (uuid + uzantı) — client'ın
// gönderdiği isim diske hiç değmez, path traversal mümkün olmaz.
func (s *uploadService) SaveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", fmt.Errorf("%w: image too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	contentType := strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0])
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type: %s", pkg.ErrBadRequest, contentType)
	}

	diskFilename := uuid.NewString() + ext
	destPath := filepath.Join(s.uploadDir, diskFilename)

	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, file); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return "/api/uploads/" + diskFilename, nil
}

// Dir, statik dosya sunumu için upload dizinini döner.
func (s *uploadService) Dir() string {
	return s.uploadDir
}
