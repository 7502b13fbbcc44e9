// Package main, quickchat sunucusunun giriş noktasıdır.
//
// Bu dosyanın görevi dependency injection wire-up:
// config → database → hub → repos → services → handlers → routes →
// HTTP server → graceful shutdown.
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/quickchat/config"
	"github.com/akinalp/quickchat/database"
	"github.com/akinalp/quickchat/pkg/unseen"
	"github.com/akinalp/quickchat/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] quickchat server starting...")

	cfg := config.Load()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to load embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	repos := initRepositories(db.Conn)

	hub := ws.NewHub()
	tracker := unseen.NewTracker()
	registerHubCallbacks(hub, tracker)
	go hub.Run()

	svcs, limiters := initServices(repos, hub, tracker, cfg)
	h := initHandlers(svcs, limiters, hub)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, cfg)

	// Süresi geçmiş refresh oturumları saatte bir temizlenir
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				svcs.Auth.CleanupExpiredSessions(context.Background())
			case <-cleanupDone:
				return
			}
		}
	}()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	close(cleanupDone)

	// Önce WebSocket bağlantıları kapanır, sonra HTTP server mevcut
	// request'lerin bitmesini bekleyerek durur.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
