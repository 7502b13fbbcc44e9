// Package main — Handler katmanı başlatma.
package main

import (
	"github.com/akinalp/quickchat/handlers"
	"github.com/akinalp/quickchat/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth *handlers.AuthHandler
	Chat *handlers.ChatHandler
	User *handlers.UserHandler
	WS   *ws.Handler
}

// initHandlers, handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub) *Handlers {
	return &Handlers{
		Auth: handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Chat: handlers.NewChatHandler(svcs.Message, svcs.Upload, limiters.Message),
		User: handlers.NewUserHandler(svcs.User),
		WS:   ws.NewHandler(hub, svcs.Auth),
	}
}
