package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message, iki kullanıcı arasındaki tek bir mesajı temsil eder.
//
// Mesaj oluşturulduktan sonra immutable'dır — tek istisna Seen flag'i,
// o da sadece false → true yönünde değişebilir (mark-seen).
// Sıralama anahtarı CreatedAt'tır; aynı çift içinde ekleme sırası korunur.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       *string   `json:"text"`      // Nullable — sadece görsel içeren mesajlarda nil
	ImageURL   *string   `json:"image_url"` // Nullable — metin mesajlarında nil
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMessageRequest, yeni mesaj gönderme isteği.
//
// HasImage service katmanı tarafından set edilir — multipart form-data'dan
// görsel geldiyse true olur, bu durumda Text boş olabilir.
type CreateMessageRequest struct {
	Text     string `json:"text"`
	HasImage bool   `json:"-"` // JSON'a dahil değil
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
// Görsel ekli mesajlarda text boş olabilir.
func (r *CreateMessageRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	textLen := utf8.RuneCountInString(r.Text)

	if r.HasImage && textLen == 0 {
		return nil
	}

	if textLen < 1 {
		return fmt.Errorf("message text is required")
	}
	if textLen > 2000 {
		return fmt.Errorf("message text must be at most 2000 characters")
	}
	return nil
}

// ChatPartner, sohbet listesinde (sidebar) tek bir satırı temsil eder:
// karşı taraf kullanıcı bilgisi + o kullanıcıdan gelen okunmamış mesaj sayısı.
type ChatPartner struct {
	User        *User `json:"user"`
	UnseenCount int   `json:"unseen_count"`
}
