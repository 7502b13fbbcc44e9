package ws

// Event, WebSocket üzerinden taşınan zarf yapısıdır.
// Op olay tipini belirler, Data olaya özel payload taşır.
// Seq sunucu çıkışlı olaylara atanan monoton artan sıra numarasıdır —
// client tarafında out-of-order tespiti için.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server opcode'ları
const (
	// OpHeartbeat, bağlantının canlı olduğunu bildirir; sunucu
	// read deadline'ı yeniler ve heartbeat_ack döner.
	OpHeartbeat = "heartbeat"

	// OpTyping, karşı tarafa yazıyor göstergesi iletir.
	OpTyping = "typing"

	// OpConversationFocus, client'ın hangi sohbeti açık tuttuğunu bildirir.
	// Boş partner ID'si "hiçbir sohbete bakmıyorum" demektir.
	OpConversationFocus = "conversation_focus"
)

// Server → Client opcode'ları
const (
	// OpOnlineUsers, tam çevrimiçi kullanıcı listesi. Delta değil
	// snapshot'tır — client listeyi olduğu gibi replace eder.
	OpOnlineUsers = "getOnlineUsers"

	// OpNewMessage, yeni DM teslimi.
	OpNewMessage = "newMessage"

	// OpHeartbeatAck, heartbeat yanıtı.
	OpHeartbeatAck = "heartbeat_ack"
)

// TypingData, typing olayının payload'ı.
type TypingData struct {
	To   string `json:"to,omitempty"`   // client → server: hedef kullanıcı
	From string `json:"from,omitempty"` // server → client: yazan kullanıcı
}

// ConversationFocusData, conversation_focus olayının payload'ı.
type ConversationFocusData struct {
	PartnerID string `json:"partnerId"`
}
