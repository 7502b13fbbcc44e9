package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/pkg/unseen"
)

// fakeUserRepo, UserRepository'nin in-memory test implementasyonu.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, id := range ids {
		r.users[id] = &models.User{ID: id, Username: id}
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, username, passwordHash string, displayName, bio *string) (*models.User, error) {
	u := &models.User{ID: username, Username: username, PasswordHash: passwordHash}
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.GetByID(ctx, username)
}

func (r *fakeUserRepo) GetAllExcept(ctx context.Context, userID string) ([]*models.User, error) {
	out := []*models.User{}
	for id, u := range r.users {
		if id != userID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (*models.User, error) {
	return r.GetByID(ctx, userID)
}

func (r *fakeUserRepo) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error) {
	return r.GetByID(ctx, userID)
}

// fakeMessageRepo, MessageRepository'nin in-memory test implementasyonu.
type fakeMessageRepo struct {
	messages []*models.Message
	nextID   int
	failNext bool
}

func (r *fakeMessageRepo) Create(ctx context.Context, senderID, receiverID string, text, imageURL *string, seen bool, createdAt time.Time) (*models.Message, error) {
	if r.failNext {
		r.failNext = false
		return nil, errors.New("db write failed")
	}
	r.nextID++
	msg := &models.Message{
		ID:         string(rune('a' + r.nextID)),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		Seen:       seen,
		CreatedAt:  createdAt,
	}
	r.messages = append(r.messages, msg)
	return msg, nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeMessageRepo) History(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	out := []*models.Message{}
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkSeen(ctx context.Context, messageID, receiverID string) (*models.Message, error) {
	msg, err := r.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ReceiverID != receiverID {
		return nil, pkg.ErrForbidden
	}
	msg.Seen = true
	return msg, nil
}

func (r *fakeMessageRepo) MarkAllSeenFrom(ctx context.Context, senderID, receiverID string) (int64, error) {
	var n int64
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Seen {
			m.Seen = true
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) CountUnseen(ctx context.Context, receiverID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && !m.Seen {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

// pushRecord, broadcast çağrılarının kaydı.
type pushRecord struct {
	userID string
	op     string
	data   any
}

// fakeBroadcaster, ws.Broadcaster'ın test implementasyonu.
type fakeBroadcaster struct {
	pushes  []pushRecord
	online  map[string]bool
	viewing map[string]string // userID -> partner
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		online:  make(map[string]bool),
		viewing: make(map[string]string),
	}
}

func (b *fakeBroadcaster) BroadcastToAll(op string, data any) {
	b.pushes = append(b.pushes, pushRecord{op: op, data: data})
}

func (b *fakeBroadcaster) BroadcastToUser(userID, op string, data any) {
	b.pushes = append(b.pushes, pushRecord{userID: userID, op: op, data: data})
}

func (b *fakeBroadcaster) OnlineUserIDs() []string { return nil }

func (b *fakeBroadcaster) IsOnline(userID string) bool { return b.online[userID] }

func (b *fakeBroadcaster) IsViewingConversation(userID, partnerID string) bool {
	return b.viewing[userID] == partnerID
}

func (b *fakeBroadcaster) pushesTo(userID string) []pushRecord {
	out := []pushRecord{}
	for _, p := range b.pushes {
		if p.userID == userID {
			out = append(out, p)
		}
	}
	return out
}

func newTestMessageService() (MessageService, *fakeMessageRepo, *fakeBroadcaster, *unseen.Tracker) {
	msgRepo := &fakeMessageRepo{}
	userRepo := newFakeUserRepo("alice", "bob", "carol")
	hub := newFakeBroadcaster()
	tracker := unseen.NewTracker()
	svc := NewMessageService(msgRepo, userRepo, hub, tracker)
	return svc, msgRepo, hub, tracker
}

func TestSendPersistsThenPushes(t *testing.T) {
	svc, repo, hub, tracker := newTestMessageService()

	msg, err := svc.Send(context.Background(), "alice", "bob",
		&models.CreateMessageRequest{Text: "hello"}, nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(repo.messages))
	}
	if msg.Seen {
		t.Error("receiver not viewing, message should be unseen")
	}

	// Her iki tarafa push
	if len(hub.pushesTo("bob")) != 1 || len(hub.pushesTo("alice")) != 1 {
		t.Errorf("expected push to both parties, got %+v", hub.pushes)
	}

	if got := tracker.GetFrom("bob", "alice"); got != 1 {
		t.Errorf("expected unseen counter 1, got %d", got)
	}
}

func TestSendFailedPersistNoPush(t *testing.T) {
	svc, repo, hub, tracker := newTestMessageService()
	repo.failNext = true

	_, err := svc.Send(context.Background(), "alice", "bob",
		&models.CreateMessageRequest{Text: "hello"}, nil)
	if err == nil {
		t.Fatal("expected error from failed persist")
	}

	// Kalıcılaşmayan mesaj push edilmez, sayaç artmaz
	if len(hub.pushes) != 0 {
		t.Errorf("expected no pushes, got %+v", hub.pushes)
	}
	if got := tracker.GetFrom("bob", "alice"); got != 0 {
		t.Errorf("expected counter 0, got %d", got)
	}
}

func TestSendToViewingReceiverMarkedSeen(t *testing.T) {
	svc, _, hub, tracker := newTestMessageService()
	hub.viewing["bob"] = "alice" // bob, alice sohbetini açık tutuyor

	msg, err := svc.Send(context.Background(), "alice", "bob",
		&models.CreateMessageRequest{Text: "hi"}, nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if !msg.Seen {
		t.Error("message to viewing receiver should persist seen=true")
	}
	if got := tracker.GetFrom("bob", "alice"); got != 0 {
		t.Errorf("counter should not increment for viewed delivery, got %d", got)
	}
}

func TestSendToSelfRejected(t *testing.T) {
	svc, _, _, _ := newTestMessageService()

	_, err := svc.Send(context.Background(), "alice", "alice",
		&models.CreateMessageRequest{Text: "hi"}, nil)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}

func TestSendToUnknownReceiver(t *testing.T) {
	svc, _, _, _ := newTestMessageService()

	_, err := svc.Send(context.Background(), "alice", "ghost",
		&models.CreateMessageRequest{Text: "hi"}, nil)
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSendEmptyRejected(t *testing.T) {
	svc, _, _, _ := newTestMessageService()

	_, err := svc.Send(context.Background(), "alice", "bob",
		&models.CreateMessageRequest{}, nil)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("expected ErrBadRequest for empty message, got %v", err)
	}

	// Resimli mesajda text opsiyonel
	imageURL := "/api/uploads/x.png"
	if _, err := svc.Send(context.Background(), "alice", "bob",
		&models.CreateMessageRequest{}, &imageURL); err != nil {
		t.Errorf("image-only message should be accepted: %v", err)
	}
}

func TestHistoryMarksPartnerMessagesSeen(t *testing.T) {
	svc, repo, _, tracker := newTestMessageService()

	// bob → alice iki mesaj, alice → bob bir mesaj
	svc.Send(context.Background(), "bob", "alice", &models.CreateMessageRequest{Text: "1"}, nil)
	svc.Send(context.Background(), "bob", "alice", &models.CreateMessageRequest{Text: "2"}, nil)
	svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "3"}, nil)

	messages, err := svc.History(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	// bob'dan gelenler görüldü, alice'inki bob görmedikçe unseen
	for _, m := range messages {
		if m.SenderID == "bob" && !m.Seen {
			t.Error("partner message should be marked seen after history read")
		}
	}

	counts, _ := repo.CountUnseen(context.Background(), "alice")
	if counts["bob"] != 0 {
		t.Errorf("expected 0 unseen from bob, got %d", counts["bob"])
	}
	if got := tracker.GetFrom("alice", "bob"); got != 0 {
		t.Errorf("tracker should be zeroed after history, got %d", got)
	}
}

func TestHistoryUnknownPartner(t *testing.T) {
	svc, _, _, _ := newTestMessageService()

	_, err := svc.History(context.Background(), "alice", "ghost")
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkSeenOnlyReceiver(t *testing.T) {
	svc, _, _, _ := newTestMessageService()

	msg, _ := svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "x"}, nil)

	// Gönderen kendi mesajını görüldü işaretleyemez
	if _, err := svc.MarkSeen(context.Background(), msg.ID, "alice"); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("expected ErrForbidden for sender, got %v", err)
	}

	// Üçüncü kişi de işaretleyemez
	if _, err := svc.MarkSeen(context.Background(), msg.ID, "carol"); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("expected ErrForbidden for third party, got %v", err)
	}

	updated, err := svc.MarkSeen(context.Background(), msg.ID, "bob")
	if err != nil {
		t.Fatalf("receiver mark seen failed: %v", err)
	}
	if !updated.Seen {
		t.Error("message should be seen")
	}
}

func TestMarkSeenSyncsTracker(t *testing.T) {
	svc, _, _, tracker := newTestMessageService()

	m1, _ := svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "1"}, nil)
	svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "2"}, nil)

	if got := tracker.GetFrom("bob", "alice"); got != 2 {
		t.Fatalf("expected 2 unseen, got %d", got)
	}

	if _, err := svc.MarkSeen(context.Background(), m1.ID, "bob"); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	// Tekil işaret sonrası sayaç DB'den mutabakatlanır
	if got := tracker.GetFrom("bob", "alice"); got != 1 {
		t.Errorf("expected 1 unseen after single mark, got %d", got)
	}
}

func TestMarkConversationSeen(t *testing.T) {
	svc, _, _, tracker := newTestMessageService()

	svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "1"}, nil)
	svc.Send(context.Background(), "alice", "bob", &models.CreateMessageRequest{Text: "2"}, nil)

	n, err := svc.MarkConversationSeen(context.Background(), "bob", "alice")
	if err != nil {
		t.Fatalf("mark conversation seen failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 marked, got %d", n)
	}
	if got := tracker.GetFrom("bob", "alice"); got != 0 {
		t.Errorf("expected counter zeroed, got %d", got)
	}

	// İkinci çağrı idempotent
	n, _ = svc.MarkConversationSeen(context.Background(), "bob", "alice")
	if n != 0 {
		t.Errorf("expected 0 marked on repeat, got %d", n)
	}
}

func TestChatPartnersCounts(t *testing.T) {
	svc, _, _, tracker := newTestMessageService()

	svc.Send(context.Background(), "bob", "alice", &models.CreateMessageRequest{Text: "1"}, nil)
	svc.Send(context.Background(), "bob", "alice", &models.CreateMessageRequest{Text: "2"}, nil)
	svc.Send(context.Background(), "carol", "alice", &models.CreateMessageRequest{Text: "3"}, nil)

	// Tracker'a sapma enjekte et — okuma mutabakatı düzeltmeli
	tracker.Increment("alice", "bob")
	tracker.Increment("alice", "bob")

	partners, err := svc.ChatPartners(context.Background(), "alice")
	if err != nil {
		t.Fatalf("chat partners failed: %v", err)
	}
	if len(partners) != 2 {
		t.Fatalf("expected 2 partners, got %d", len(partners))
	}

	byID := map[string]*models.ChatPartner{}
	for _, p := range partners {
		byID[p.User.ID] = p
	}
	if byID["bob"].UnseenCount != 2 {
		t.Errorf("expected 2 unseen from bob, got %d", byID["bob"].UnseenCount)
	}
	if byID["carol"].UnseenCount != 1 {
		t.Errorf("expected 1 unseen from carol, got %d", byID["carol"].UnseenCount)
	}

	// Mutabakat sonrası tracker otoriter değerlere döner
	if got := tracker.GetFrom("alice", "bob"); got != 2 {
		t.Errorf("expected tracker synced to 2, got %d", got)
	}
}
