// Package main — HTTP route registration.
package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akinalp/quickchat/config"
	"github.com/akinalp/quickchat/middleware"
	"github.com/akinalp/quickchat/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: literal path'ler parametrik path'lerden önce
// tanımlanmalı — "/api/users/me", "/api/users/{id}" öncesinde gelir,
// yoksa router "me" kelimesini bir id olarak yorumlar.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService, cfg *config.Config) {
	authMw := middleware.NewAuthMiddleware(authService)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"quickchat"}`)
	})

	// Auth — public endpoint'ler
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// Users
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("PATCH /api/users/me", auth(h.User.UpdateProfile))
	mux.Handle("PUT /api/users/me/avatar", auth(h.User.UpdateAvatar))
	mux.Handle("GET /api/users/{id}", auth(h.User.GetProfile))

	// Chats — sidebar, geçmiş, gönderim, görüldü
	mux.Handle("GET /api/chats", auth(h.Chat.ListChats))
	mux.Handle("GET /api/chats/{userId}/messages", auth(h.Chat.GetMessages))
	mux.Handle("POST /api/chats/{userId}/messages", auth(h.Chat.SendMessage))
	mux.Handle("POST /api/chats/{userId}/seen", auth(h.Chat.MarkChatSeen))
	mux.Handle("POST /api/messages/{id}/seen", auth(h.Chat.MarkMessageSeen))

	// Static: yüklenen resimler. Düz dosya isimleri dışındaki path'ler
	// reddedilir — subdirectory traversal mümkün olmaz.
	uploadsHandler := http.StripPrefix("/api/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/") || strings.Contains(r.URL.Path, "\\") {
			http.NotFound(w, r)
			return
		}
		http.FileServer(http.Dir(cfg.Upload.Dir)).ServeHTTP(w, r)
	}))
	mux.Handle("GET /api/uploads/", uploadsHandler)

	// WebSocket — browser upgrade sırasında custom header gönderemez,
	// token query parameter ile taşınır; doğrulama ws handler'ın içinde.
	mux.HandleFunc("GET /ws", h.WS.ServeWS)
}
