// Package main — Service katmanı başlatma.
package main

import (
	"log"
	"time"

	"github.com/akinalp/quickchat/config"
	"github.com/akinalp/quickchat/pkg/ratelimit"
	"github.com/akinalp/quickchat/pkg/unseen"
	"github.com/akinalp/quickchat/services"
	"github.com/akinalp/quickchat/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth    services.AuthService
	Message services.MessageService
	Upload  services.UploadService
	User    services.UserService
}

// RateLimiters, rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
}

// initServices, service'leri ve rate limiter'ları oluşturur.
// hub ve tracker service'ler arası paylaşılan dependency'lerdir.
func initServices(repos *Repositories, hub ws.Broadcaster, tracker *unseen.Tracker, cfg *config.Config) (*Services, *RateLimiters) {
	authService := services.NewAuthService(
		repos.User,
		repos.Session,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	uploadService, err := services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSizeBytes)
	if err != nil {
		log.Fatalf("[main] failed to init upload service: %v", err)
	}

	svcs := &Services{
		Auth:    authService,
		Message: services.NewMessageService(repos.Message, repos.User, hub, tracker),
		Upload:  uploadService,
		User:    services.NewUserService(repos.User, uploadService, authService),
	}

	// Login: 2 dakikada 5 deneme. Mesaj: 5 saniyede 5 mesaj, 15sn ceza.
	limiters := &RateLimiters{
		Login:   ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Message: ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
	}

	return svcs, limiters
}
