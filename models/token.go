package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims, JWT access token'ın payload'ı.
//
// Bu struct models paketinde tanımlanır çünkü birden fazla katman
// (services, ws, middleware) tarafından kullanılır — her katman models'e
// bağımlı olabilir, circular dependency oluşmaz.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthResponse, register/login/refresh yanıtı.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshRequest, POST /api/auth/refresh body'si.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate, refresh token'ın boş olmadığını kontrol eder.
func (r *RefreshRequest) Validate() error {
	if r.RefreshToken == "" {
		return errors.New("refresh token is required")
	}
	return nil
}
