package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akinalp/quickchat/models"
)

// TokenValidator, access token doğrulaması için küçük interface.
// services.AuthService bunu karşılar; ws paketinin services'e
// import bağımlılığı oluşmaz (circular import engeli).
type TokenValidator interface {
	ValidateAccessToken(token string) (*models.TokenClaims, error)
}

// Handler, HTTP isteğini WebSocket'e upgrade eder.
type Handler struct {
	hub       *Hub
	validator TokenValidator
	upgrader  websocket.Upgrader
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, validator TokenValidator) *Handler {
	return &Handler{
		hub:       hub,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin kontrolü CORS middleware'inde değil burada anlamlı
			// olurdu ama SPA farklı domain'den bağlanabiliyor — token
			// zorunlu olduğu için origin serbest bırakıldı.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS, GET /ws?token=<access_token> isteğini karşılar.
//
// Token query parametresinde taşınır — browser WebSocket API'si
// custom header göndermeye izin vermez.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade hatasında yanıt zaten yazıldı
		log.Printf("[ws] upgrade failed for user=%s: %v", claims.UserID, err)
		return
	}

	client := NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
