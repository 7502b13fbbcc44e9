// Package unseen, kullanıcı başına görülmemiş mesaj sayaçlarını bellekte tutar.
//
// Sayaçlar olay bazlı artırılır (mesaj teslimi) ve sıfırlanır (görüldü
// işareti); sidebar okumasında veritabanından Sync ile mutabakat yapılır.
// Kaynak her zaman veritabanıdır — bu yapı sadece sıcak kopyadır.
package unseen

import "sync"

// Tracker, viewer → sender → count sayaçlarını thread-safe tutar.
type Tracker struct {
	mu     sync.RWMutex
	counts map[string]map[string]int // viewerID -> senderID -> unseen
}

// NewTracker, boş bir sayaç tablosu oluşturur.
func NewTracker() *Tracker {
	return &Tracker{
		counts: make(map[string]map[string]int),
	}
}

// Increment, viewer'ın sender'dan gelen görülmemiş sayacını bir artırır.
func (t *Tracker) Increment(viewerID, senderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inner, ok := t.counts[viewerID]
	if !ok {
		inner = make(map[string]int)
		t.counts[viewerID] = inner
	}
	inner[senderID]++
}

// Zero, viewer'ın sender'dan gelen sayacını sıfırlar.
// Sayaç hiç negatife düşmez — decrement yok, sadece sıfırlama var;
// görüldü işareti toplu olduğundan tekil azaltmaya gerek kalmaz.
func (t *Tracker) Zero(viewerID, senderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if inner, ok := t.counts[viewerID]; ok {
		delete(inner, senderID)
		if len(inner) == 0 {
			delete(t.counts, viewerID)
		}
	}
}

// Get, viewer'ın tüm sayaçlarının kopyasını döner.
// Kopya döndürmek caller'ın lock dışında güvenle gezinmesini sağlar.
func (t *Tracker) Get(viewerID string) map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]int)
	for senderID, count := range t.counts[viewerID] {
		result[senderID] = count
	}
	return result
}

// GetFrom, viewer'ın tek bir gönderene ait sayacını döner.
func (t *Tracker) GetFrom(viewerID, senderID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[viewerID][senderID]
}

// Sync, viewer'ın sayaçlarını veritabanından gelen otoriter değerlerle
// değiştirir. Olay bazlı sayaçla DB arasında sapma oluşursa (kaçan olay,
// restart) okuma anında burada düzeltilir.
func (t *Tracker) Sync(viewerID string, authoritative map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(authoritative) == 0 {
		delete(t.counts, viewerID)
		return
	}

	inner := make(map[string]int, len(authoritative))
	for senderID, count := range authoritative {
		if count > 0 {
			inner[senderID] = count
		}
	}
	t.counts[viewerID] = inner
}

// Forget, viewer'ın tüm sayaçlarını bellekten atar.
// Kullanıcının tüm bağlantıları koptuğunda çağrılır — bir sonraki
// girişte Sync ile yeniden doldurulur.
func (t *Tracker) Forget(viewerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, viewerID)
}
