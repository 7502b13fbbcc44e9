package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/pkg/ratelimit"
	"github.com/akinalp/quickchat/services"
)

// ChatHandler, sohbet listesi, mesaj geçmişi, gönderim ve görüldü
// endpoint'leri.
type ChatHandler struct {
	messageService services.MessageService
	uploadService  services.UploadService
	messageLimiter *ratelimit.MessageRateLimiter
}

// NewChatHandler, constructor.
// messageLimiter nil ise spam koruması devre dışı kalır.
func NewChatHandler(
	messageService services.MessageService,
	uploadService services.UploadService,
	messageLimiter *ratelimit.MessageRateLimiter,
) *ChatHandler {
	return &ChatHandler{
		messageService: messageService,
		uploadService:  uploadService,
		messageLimiter: messageLimiter,
	}
}

// ListChats godoc
// GET /api/chats — sidebar: diğer tüm kullanıcılar + unseen sayıları.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	partners, err := h.messageService.ChatPartners(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, partners)
}

// GetMessages godoc
// GET /api/chats/{userId}/messages — iki yönlü geçmiş, kronolojik.
// Yan etki: partner'dan gelen tüm görülmemiş mesajlar görüldü işaretlenir.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	partnerID := r.PathValue("userId")
	if partnerID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	messages, err := h.messageService.History(r.Context(), user.ID, partnerID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// SendMessage godoc
// POST /api/chats/{userId}/messages
//
// İki content type kabul edilir:
//   - application/json: {"text": "..."}
//   - multipart/form-data: text alanı + opsiyonel image dosyası
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	receiverID := r.PathValue("userId")
	if receiverID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		retryAfter := h.messageLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("sending too fast, please wait %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	req, imageURL, err := h.parseMessageBody(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, receiverID, req, imageURL)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// parseMessageBody, JSON veya multipart gövdeyi çözer.
// Multipart'ta image dosyası varsa önce diske kaydedilir.
func (h *ChatHandler) parseMessageBody(r *http.Request) (*models.CreateMessageRequest, *string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if !strings.HasPrefix(mediaType, "multipart/") {
		var req models.CreateMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, fmt.Errorf("invalid request body: %w", pkg.ErrBadRequest)
		}
		return &req, nil, nil
	}

	// 10MB parse limiti — dosya boyutu ayrıca upload service'te kontrol edilir
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart body: %w", pkg.ErrBadRequest)
	}

	req := &models.CreateMessageRequest{Text: r.FormValue("text")}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return req, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image field: %w", pkg.ErrBadRequest)
	}
	defer file.Close()

	imageURL, err := h.uploadService.SaveImage(file, header)
	if err != nil {
		return nil, nil, err
	}

	return req, &imageURL, nil
}

// MarkMessageSeen godoc
// POST /api/messages/{id}/seen — tek mesajı görüldü işaretle.
// Sadece mesajın alıcısı çağırabilir.
func (h *ChatHandler) MarkMessageSeen(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	messageID := r.PathValue("id")
	if messageID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "message id is required")
		return
	}

	msg, err := h.messageService.MarkSeen(r.Context(), messageID, user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, msg)
}

// MarkChatSeen godoc
// POST /api/chats/{userId}/seen — partner'dan gelen tüm görülmemiş
// mesajları toplu görüldü işaretle.
func (h *ChatHandler) MarkChatSeen(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	partnerID := r.PathValue("userId")
	if partnerID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	n, err := h.messageService.MarkConversationSeen(r.Context(), user.ID, partnerID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"marked": n})
}
