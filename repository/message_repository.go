package repository

import (
	"context"
	"time"

	"github.com/akinalp/quickchat/models"
)

// MessageRepository, DM mesajları için veritabanı interface'i.
//
// Mesajlar immutable'dır — tek mutasyon seen bayrağının false'tan
// true'ya çevrilmesidir. Update/Delete operasyonu yoktur.
type MessageRepository interface {
	// Create, yeni mesajı kalıcılaştırır. createdAt caller tarafından
	// atanır (Go saati, UTC) — çift içi sıralama bu değere dayanır.
	Create(ctx context.Context, senderID, receiverID string, text, imageURL *string, seen bool, createdAt time.Time) (*models.Message, error)

	GetByID(ctx context.Context, id string) (*models.Message, error)

	// History, iki kullanıcı arasındaki tüm mesajları (her iki yön)
	// kronolojik artan sırayla döner.
	History(ctx context.Context, userA, userB string) ([]*models.Message, error)

	// MarkSeen, tek mesajı görüldü işaretler. Mesajın alıcısı
	// receiverID değilse pkg.ErrForbidden döner.
	MarkSeen(ctx context.Context, messageID, receiverID string) (*models.Message, error)

	// MarkAllSeenFrom, senderID'den receiverID'ye giden tüm görülmemiş
	// mesajları işaretler; etkilenen satır sayısını döner.
	MarkAllSeenFrom(ctx context.Context, senderID, receiverID string) (int64, error)

	// CountUnseen, receiverID'nin görülmemiş mesajlarını gönderen
	// bazında gruplar: map[senderID]count. Sayacı olmayan gönderen
	// map'te yer almaz.
	CountUnseen(ctx context.Context, receiverID string) (map[string]int, error)
}
