// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model, veritabanındaki bir tablonun Go karşılığıdır; aynı zamanda
// API'den gelen/giden verilerin şeklini de belirler.
// json tag'leri struct field'larının JSON serialize formatını belirler.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// User, bir kullanıcıyı temsil eder.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  *string   `json:"display_name"` // *string = nullable
	Bio          *string   `json:"bio"`
	AvatarURL    *string   `json:"avatar_url"`
	PasswordHash string    `json:"-"` // json:"-" → API response'a DAHİL ETME
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest, kayıt olurken frontend'den gelen veri.
// PasswordHash yerine Password alırız — hash'leme service katmanında yapılır.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// Validate, CreateUserRequest'in geçerli olup olmadığını kontrol eder.
// Kurallar:
//   - Username: 3-32 karakter, alfanumerik + alt çizgi
//   - Password: minimum 8 karakter
//   - DisplayName: opsiyonel, max 32 karakter
//   - Bio: opsiyonel, max 200 karakter
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	usernameLen := utf8.RuneCountInString(r.Username)
	if usernameLen < 3 || usernameLen > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}

	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, and underscores")
		}
	}

	if utf8.RuneCountInString(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if utf8.RuneCountInString(r.DisplayName) > 32 {
		return fmt.Errorf("display name must be at most 32 characters")
	}

	r.Bio = strings.TrimSpace(r.Bio)
	if utf8.RuneCountInString(r.Bio) > 200 {
		return fmt.Errorf("bio must be at most 200 characters")
	}

	return nil
}

// LoginRequest, giriş yaparken frontend'den gelen veri.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// UpdateProfileRequest, profil güncellemesi için.
// Pointer alanlar — nil ise o alan değiştirilmez (partial update).
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

// Validate, UpdateProfileRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		trimmed := strings.TrimSpace(*r.DisplayName)
		if utf8.RuneCountInString(trimmed) > 32 {
			return fmt.Errorf("display name must be at most 32 characters")
		}
		r.DisplayName = &trimmed
	}
	if r.Bio != nil {
		trimmed := strings.TrimSpace(*r.Bio)
		if utf8.RuneCountInString(trimmed) > 200 {
			return fmt.Errorf("bio must be at most 200 characters")
		}
		r.Bio = &trimmed
	}
	return nil
}

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
