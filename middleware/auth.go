// Package middleware, HTTP request pipeline'ına eklenen ara katmanlar.
//
// Her middleware func(next http.Handler) http.Handler imzasındadır;
// kendi işini yapar, sorun yoksa next'i çağırır.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/quickchat/handlers"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/services"
)

// AuthMiddleware, JWT doğrulama.
type AuthMiddleware struct {
	authService services.AuthService
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Require, geçerli access token zorunlu kılar.
//
// Authorization: Bearer <token> header'ı doğrulanır, kullanıcı
// (cache'li lookup — token geçerli ama kullanıcı silinmiş olabilir)
// context'e konur. Hata durumunda next hiç çağrılmaz.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.authService.GetUser(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		// Hash response'lara sızmasın — kopya üzerinde temizle
		safeUser := *user
		safeUser.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, &safeUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
