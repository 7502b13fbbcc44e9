// Package ws, WebSocket bağlantı yönetimini içerir.
//
// Hub merkezi bağlantı kayıt defteridir: hangi kullanıcının hangi
// bağlantıları açık, kim çevrimiçi, kim hangi sohbete bakıyor.
// Bir kullanıcının birden fazla cihazdan bağlanması desteklenir —
// userID başına bağlantı seti tutulur, tek socket varsayımı yoktur.
package ws

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"sync/atomic"
)

// Hub, tüm aktif WebSocket bağlantılarını yönetir.
//
// Eşzamanlılık modeli:
// - clients map'i RWMutex ile korunur.
// - register/unregister istekleri channel üzerinden Run() döngüsünde işlenir.
// - Broadcast'ler alıcı listesinin snapshot'ını lock altında alır,
//   gönderimi lock dışında yapar — yavaş bir client kilidi tutamaz.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // userID -> bağlantı seti

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// seq, sunucu çıkışlı olaylara atanan global sıra numarası.
	seq atomic.Int64

	// Callback'ler main tarafında bağlanır (init_callbacks.go) —
	// hub'ın service katmanına import bağımlılığı oluşmaz.
	// Hub mutex'i tutulurken çağrılmazlar; goroutine ile tetiklenirler.
	onUserFirstConnect      func(userID string)
	onUserFullyDisconnected func(userID string)
}

// OnUserFirstConnect, kullanıcının İLK bağlantısı açıldığında (0 → 1)
// çağrılacak callback'i ayarlar. Run() başlamadan önce bağlanmalıdır.
func (h *Hub) OnUserFirstConnect(fn func(userID string)) {
	h.onUserFirstConnect = fn
}

// OnUserFullyDisconnected, kullanıcının SON bağlantısı kapandığında
// (1 → 0) çağrılacak callback'i ayarlar. Run() başlamadan önce bağlanmalıdır.
func (h *Hub) OnUserFullyDisconnected(fn func(userID string)) {
	h.onUserFullyDisconnected = fn
}

// NewHub, boş bir hub oluşturur. Run() ayrıca başlatılmalıdır.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run, register/unregister olaylarını işleyen ana döngüdür.
// Kendi goroutine'inde çalıştırılır: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Register, yeni bağlantıyı hub'a kaydeder.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister, bağlantıyı hub'dan düşürür. Aynı client için birden fazla
// çağrı güvenlidir — ikinci çağrı no-op olur.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	conns, existed := h.clients[client.userID]
	if !existed {
		conns = make(map[*Client]bool)
		h.clients[client.userID] = conns
	}
	firstConnect := len(conns) == 0
	conns[client] = true
	total := len(conns)
	h.mu.Unlock()

	log.Printf("[ws] client connected: user=%s conns=%d", client.userID, total)

	// Callback lock dışında, ayrı goroutine'de — callback hub'ın
	// broadcast metodlarını çağırabilir, deadlock oluşmaz.
	if firstConnect && h.onUserFirstConnect != nil {
		go h.onUserFirstConnect(client.userID)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		h.mu.Unlock()
		return
	}
	delete(conns, client)
	lastDisconnect := len(conns) == 0
	if lastDisconnect {
		delete(h.clients, client.userID)
	}
	remaining := len(conns)
	h.mu.Unlock()

	client.closeSend()

	log.Printf("[ws] client disconnected: user=%s conns=%d", client.userID, remaining)

	if lastDisconnect && h.onUserFullyDisconnected != nil {
		go h.onUserFullyDisconnected(client.userID)
	}
}

// OnlineUserIDs, şu an en az bir bağlantısı olan kullanıcıların
// ID listesini döner. Deterministik olsun diye sıralıdır.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// IsOnline, kullanıcının en az bir aktif bağlantısı olup olmadığını döner.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount, kullanıcının aktif bağlantı sayısını döner.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// IsViewingConversation, kullanıcının herhangi bir bağlantısında
// partnerID ile sohbetin açık olup olmadığını döner. Teslim anında
// mesajın doğrudan görüldü sayılıp sayılmayacağına karar verir.
func (h *Hub) IsViewingConversation(userID, partnerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		if client.Focus() == partnerID {
			return true
		}
	}
	return false
}

// BroadcastToAll, olayı tüm bağlantılara gönderir.
func (h *Hub) BroadcastToAll(op string, data any) {
	event := Event{Op: op, Data: data, Seq: h.seq.Add(1)}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event %s: %v", op, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, conns := range h.clients {
		for client := range conns {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.deliver(client, payload)
	}
}

// BroadcastToUser, olayı kullanıcının TÜM bağlantılarına gönderir.
// Kullanıcı çevrimdışıysa sessizce no-op — mesaj zaten kalıcı,
// bir sonraki history okumasında gelir.
func (h *Hub) BroadcastToUser(userID, op string, data any) {
	event := Event{Op: op, Data: data, Seq: h.seq.Add(1)}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event %s: %v", op, err)
		return
	}

	h.mu.RLock()
	conns := h.clients[userID]
	targets := make([]*Client, 0, len(conns))
	for client := range conns {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		h.deliver(client, payload)
	}
}

// deliver, payload'ı client'ın send buffer'ına non-blocking yazar.
// Buffer doluysa client yavaş demektir — bağlantı düşürülür;
// bir bağlantının tıkanması diğer teslimatları geciktiremez.
func (h *Hub) deliver(client *Client, payload []byte) {
	if !client.trySend(payload) {
		log.Printf("[ws] send buffer full, dropping client: user=%s", client.userID)
		go h.Unregister(client)
	}
}

// Shutdown, tüm bağlantıları kapatır ve Run döngüsünü durdurur.
func (h *Hub) Shutdown() {
	close(h.done)

	h.mu.Lock()
	for _, conns := range h.clients {
		for client := range conns {
			client.closeSend()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	log.Println("[ws] hub shut down")
}
