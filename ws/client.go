package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait, tek bir yazma işleminin tamamlanması için tanınan süre.
	writeWait = 10 * time.Second

	// pongWait, client'tan yaşam belirtisi (pong veya heartbeat)
	// beklenen maksimum süre. Aşılırsa bağlantı ölü sayılır.
	pongWait = 90 * time.Second

	// pingPeriod, sunucunun ping gönderme aralığı. pongWait'ten
	// küçük olmalı ki deadline dolmadan ping gitsin.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize, client'tan kabul edilen maksimum frame boyutu.
	// DM içeriği HTTP'den gider; ws'ten sadece küçük kontrol
	// olayları gelir.
	maxMessageSize = 4096

	// sendBufferSize, client başına outbound buffer. Dolarsa client
	// yavaş kabul edilir ve bağlantı düşürülür.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
// Aynı kullanıcının her cihazı ayrı bir Client'tır.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	connID string // log correlation için benzersiz bağlantı ID'si

	// send, WritePump'ın tükettiği outbound kuyruk. Yazma tarafı
	// sendMu + sendClosed ile korunur — kapanmış channel'a gönderim
	// panic'i engellenir.
	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool

	// focus, client'ın açık tuttuğu sohbetin partner ID'si.
	// Boş string = hiçbir sohbete bakmıyor.
	focusMu sync.RWMutex
	focus   string
}

// NewClient, upgrade edilmiş bağlantı için yeni client oluşturur.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		connID: uuid.NewString(),
		send:   make(chan []byte, sendBufferSize),
	}
}

// UserID, bağlantının sahibini döner.
func (c *Client) UserID() string {
	return c.userID
}

// Focus, client'ın açık sohbet partner'ını döner.
func (c *Client) Focus() string {
	c.focusMu.RLock()
	defer c.focusMu.RUnlock()
	return c.focus
}

// SetFocus, açık sohbeti günceller. Boş string focus'u temizler.
func (c *Client) SetFocus(partnerID string) {
	c.focusMu.Lock()
	c.focus = partnerID
	c.focusMu.Unlock()
}

// trySend, payload'ı buffer'a non-blocking ekler.
// Buffer doluysa veya channel kapanmışsa false döner.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend, outbound kuyruğu kapatır; WritePump döngüsü sonlanır.
// Birden fazla çağrı güvenlidir.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// ReadPump, bağlantıdan gelen frame'leri okur ve olayları işler.
// Bağlantı başına tek okuma goroutine'i vardır — SetReadDeadline
// çağrıları hep bu goroutine'den yapılır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: user=%s conn=%s err=%v", c.userID, c.connID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[ws] malformed event dropped: user=%s conn=%s", c.userID, c.connID)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'tan gelen olayı opcode'a göre işler.
// Bilinmeyen opcode'lar bağlantıyı düşürmeden yoksayılır —
// eski sunucuya yeni client bağlanabilsin.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpTyping:
		var data TypingData
		if !decodeData(event.Data, &data) || data.To == "" {
			return
		}
		c.hub.BroadcastToUser(data.To, OpTyping, TypingData{From: c.userID})

	case OpConversationFocus:
		var data ConversationFocusData
		if !decodeData(event.Data, &data) {
			return
		}
		c.SetFocus(data.PartnerID)

	default:
		log.Printf("[ws] unknown op %q from user=%s", event.Op, c.userID)
	}
}

// sendEvent, olayı sadece bu bağlantıya kuyruklar.
func (c *Client) sendEvent(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if !c.trySend(payload) {
		go c.hub.Unregister(c)
	}
}

// decodeData, Event.Data'daki any değeri hedef struct'a çevirir.
// json.Unmarshal any alanı map[string]any olarak çözmüştür;
// re-marshal ile tipli struct'a aktarılır.
func decodeData(raw any, target any) bool {
	bytes, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(bytes, target) == nil
}

// WritePump, send kuyruğundaki payload'ları bağlantıya yazar ve
// periyodik ping gönderir. Bağlantı başına tek yazma goroutine'i vardır.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub kuyruğu kapattı — bağlantıyı nazikçe kapat
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
