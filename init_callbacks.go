// Package main — WebSocket Hub callback wire-up.
//
// Hub ws paketinde yaşar ama presence yayını ve sayaç temizliği üst
// katman bilgisi gerektirir. Hub'ın service'lere bağımlı olmaması için
// callback'ler burada, wire-up noktasında bağlanır.
//
// Callback'ler hub mutex'i tutulmadan, ayrı goroutine'de çalışır —
// içlerinden BroadcastToAll çağırmak deadlock yaratmaz.
package main

import (
	"log"

	"github.com/akinalp/quickchat/pkg/unseen"
	"github.com/akinalp/quickchat/ws"
)

// registerHubCallbacks, presence callback'lerini bağlar.
// Run() başlamadan önce çağrılmalıdır.
func registerHubCallbacks(hub *ws.Hub, tracker *unseen.Tracker) {
	// Kullanıcının ilk bağlantısı: herkese güncel çevrimiçi listesi.
	// Liste delta değil snapshot'tır — yeni bağlanan client da
	// aynı yayından tam listeyi alır, ayrıca initial push gerekmez.
	hub.OnUserFirstConnect(func(userID string) {
		hub.BroadcastToAll(ws.OpOnlineUsers, hub.OnlineUserIDs())
		log.Printf("[presence] user %s is now online", userID)
	})

	// Son bağlantı koptu: güncel listeyi yayınla, kullanıcının sıcak
	// sayaçlarını at — bir sonraki girişte DB'den Sync edilir.
	hub.OnUserFullyDisconnected(func(userID string) {
		hub.BroadcastToAll(ws.OpOnlineUsers, hub.OnlineUserIDs())
		tracker.Forget(userID)
		log.Printf("[presence] user %s is now offline", userID)
	})
}
