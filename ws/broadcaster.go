package ws

// Broadcaster, service katmanının hub'dan ihtiyaç duyduğu yüzeydir.
// Interface üzerinden bağımlılık test'te mock'lamayı kolaylaştırır;
// *Hub bu interface'i karşılar.
type Broadcaster interface {
	BroadcastToAll(op string, data any)
	BroadcastToUser(userID, op string, data any)
	OnlineUserIDs() []string
	IsOnline(userID string) bool
	IsViewingConversation(userID, partnerID string) bool
}

var _ Broadcaster = (*Hub)(nil)
