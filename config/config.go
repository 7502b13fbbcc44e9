// Package config, uygulama yapılandırmasını environment variable'lardan yükler.
//
// .env dosyası varsa godotenv ile okunur (development kolaylığı),
// production'da gerçek environment variable'lar kullanılır.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config, tüm uygulama yapılandırmasını içerir.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Upload   UploadConfig
}

// ServerConfig, HTTP sunucu ayarları.
type ServerConfig struct {
	Host string
	Port string
}

// Addr, http.Server için "host:port" adresini döner.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig, SQLite dosya yolu.
type DatabaseConfig struct {
	Path string
}

// JWTConfig, token üretim ayarları.
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// UploadConfig, resim yükleme ayarları.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// Load, environment'tan yapılandırmayı okur.
// Eksik değerler için development-uyumlu varsayılanlar kullanılır.
func Load() *Config {
	// .env yoksa hata değil — production'da env doğrudan set edilir
	if err := godotenv.Load(); err == nil {
		log.Println("[config] .env file loaded")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/quickchat.db"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSizeBytes: getEnvInt64("UPLOAD_MAX_SIZE", 5*1024*1024),
		},
	}

	if cfg.JWT.Secret == "dev-secret-change-in-production" {
		log.Println("[config] WARNING: using default JWT secret, set JWT_SECRET in production")
	}

	return cfg
}

// getEnv, environment variable okur; yoksa fallback döner.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("[config] invalid duration for %s, using default", key)
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("[config] invalid number for %s, using default", key)
	}
	return fallback
}
