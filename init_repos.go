// Package main — Repository katmanı başlatma.
package main

import (
	"database/sql"

	"github.com/akinalp/quickchat/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
// Tek struct, fonksiyon imzalarını parametre kalabalığından kurtarır.
type Repositories struct {
	User    repository.UserRepository
	Session repository.SessionRepository
	Message repository.MessageRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
// *sql.DB thread-safe connection pool'dur — paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:    repository.NewSQLiteUserRepo(conn),
		Session: repository.NewSQLiteSessionRepo(conn),
		Message: repository.NewSQLiteMessageRepo(conn),
	}
}
