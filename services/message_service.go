package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/pkg/unseen"
	"github.com/akinalp/quickchat/repository"
	"github.com/akinalp/quickchat/ws"
)

// MessageService, DM gönderimi, geçmiş okuma ve görüldü takibi.
//
// Gönderim akışı sıralaması önemlidir: mesaj ÖNCE kalıcılaştırılır,
// SONRA push edilir. Push başarısızlığı (alıcı çevrimdışı, buffer dolu)
// mesajı kaybetmez — bir sonraki history okumasında gelir.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID string, req *models.CreateMessageRequest, imageURL *string) (*models.Message, error)
	History(ctx context.Context, userID, partnerID string) ([]*models.Message, error)
	MarkSeen(ctx context.Context, messageID, userID string) (*models.Message, error)
	MarkConversationSeen(ctx context.Context, userID, partnerID string) (int64, error)
	ChatPartners(ctx context.Context, userID string) ([]*models.ChatPartner, error)
}

type messageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	hub      ws.Broadcaster
	tracker  *unseen.Tracker
}

// NewMessageService, constructor.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	hub ws.Broadcaster,
	tracker *unseen.Tracker,
) MessageService {
	return &messageService{
		messages: messages,
		users:    users,
		hub:      hub,
		tracker:  tracker,
	}
}

// Send, mesajı kalıcılaştırır ve iki tarafın tüm bağlantılarına push eder.
//
// Alıcı gönderenle sohbeti o an açık tutuyorsa mesaj doğrudan seen=true
// yazılır — görülmemiş sayacı hiç artmaz. Değilse sayaç teslimle artar.
func (s *messageService) Send(ctx context.Context, senderID, receiverID string, req *models.CreateMessageRequest, imageURL *string) (*models.Message, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot message yourself: %w", pkg.ErrBadRequest)
	}

	req.HasImage = imageURL != nil
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, fmt.Errorf("receiver not found: %w", err)
	}

	var text *string
	if req.Text != "" {
		text = &req.Text
	}

	// Görüldü kararı persist ANINDA verilir — push sonrasında değil;
	// alıcının focus'u push sırasında değişse bile kayıt tutarlı kalır.
	seen := s.hub.IsViewingConversation(receiverID, senderID)

	msg, err := s.messages.Create(ctx, senderID, receiverID, text, imageURL, seen, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// Her iki tarafın TÜM bağlantılarına push — gönderenin diğer
	// cihazları da sohbeti güncel görür. Çevrimdışı taraf için no-op.
	s.hub.BroadcastToUser(receiverID, ws.OpNewMessage, msg)
	s.hub.BroadcastToUser(senderID, ws.OpNewMessage, msg)

	if !seen {
		s.tracker.Increment(receiverID, senderID)
	}

	log.Printf("[message] sent: %s -> %s (seen=%t)", senderID, receiverID, seen)
	return msg, nil
}

// History, iki kullanıcı arasındaki tüm mesajları kronolojik döner ve
// partner'dan gelen görülmemiş mesajları toplu görüldü işaretler —
// sohbeti açmak okumak demektir.
func (s *messageService) History(ctx context.Context, userID, partnerID string) ([]*models.Message, error) {
	if _, err := s.users.GetByID(ctx, partnerID); err != nil {
		return nil, fmt.Errorf("chat partner not found: %w", err)
	}

	messages, err := s.messages.History(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}

	n, err := s.messages.MarkAllSeenFrom(ctx, partnerID, userID)
	if err != nil {
		return nil, err
	}
	s.tracker.Zero(userID, partnerID)

	// Dönen slice DB'den seen=0 okunmuş olabilir — güncel durumu yansıt
	if n > 0 {
		for _, msg := range messages {
			if msg.SenderID == partnerID {
				msg.Seen = true
			}
		}
	}

	return messages, nil
}

// MarkSeen, tek mesajı görüldü işaretler. Sadece alıcı işaretleyebilir.
// Sayaç tekil azaltma yerine DB'den Sync edilir — sayaç hiç negatife düşmez.
func (s *messageService) MarkSeen(ctx context.Context, messageID, userID string) (*models.Message, error) {
	msg, err := s.messages.MarkSeen(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.messages.CountUnseen(ctx, userID)
	if err != nil {
		log.Printf("[message] unseen sync failed for %s: %v", userID, err)
	} else {
		s.tracker.Sync(userID, counts)
	}

	return msg, nil
}

// MarkConversationSeen, partner'dan gelen tüm görülmemiş mesajları
// işaretler; etkilenen mesaj sayısını döner.
func (s *messageService) MarkConversationSeen(ctx context.Context, userID, partnerID string) (int64, error) {
	n, err := s.messages.MarkAllSeenFrom(ctx, partnerID, userID)
	if err != nil {
		return 0, err
	}
	s.tracker.Zero(userID, partnerID)
	return n, nil
}

// ChatPartners, sidebar verisini döner: kullanıcı hariç tüm kullanıcılar
// ve her birinden gelen görülmemiş mesaj sayısı. Sayaçlar bu okumada
// veritabanından mutabakatlanır — olay bazlı sapma burada düzelir.
func (s *messageService) ChatPartners(ctx context.Context, userID string) ([]*models.ChatPartner, error) {
	users, err := s.users.GetAllExcept(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.messages.CountUnseen(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.tracker.Sync(userID, counts)

	partners := make([]*models.ChatPartner, 0, len(users))
	for _, user := range users {
		partners = append(partners, &models.ChatPartner{
			User:        user,
			UnseenCount: counts[user.ID],
		})
	}

	return partners, nil
}
