package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// waitFor, koşul sağlanana kadar bekler — hub olayları ayrı
// goroutine'de işlendiği için testler polling yapar.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func newTestClient(hub *Hub, userID string) *Client {
	// conn nil — pump'lar çalıştırılmadığı sürece kullanılmaz
	return NewClient(hub, nil, userID)
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload := <-c.send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received within timeout")
		return Event{}
	}
}

func TestRegisterTracksOnlineUsers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")

	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 2 && hub.IsOnline("bob") })

	ids := hub.OnlineUserIDs()
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Errorf("unexpected online users: %v", ids)
	}
}

func TestMultiDeviceDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	hub.Register(alice1)
	hub.Register(alice2)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 2 })

	// Bir cihaz kopsa kullanıcı hâlâ çevrimiçi
	hub.Unregister(alice1)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 1 })
	if !hub.IsOnline("alice") {
		t.Error("user should stay online while a connection remains")
	}

	hub.Unregister(alice2)
	waitFor(t, time.Second, func() bool { return !hub.IsOnline("alice") })
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") })

	hub.Unregister(alice)
	hub.Unregister(alice)
	waitFor(t, time.Second, func() bool { return !hub.IsOnline("alice") })
}

func TestPresenceCallbacks(t *testing.T) {
	hub := NewHub()

	firstConnects := make(chan string, 10)
	disconnects := make(chan string, 10)
	hub.OnUserFirstConnect(func(userID string) { firstConnects <- userID })
	hub.OnUserFullyDisconnected(func(userID string) { disconnects <- userID })

	go hub.Run()
	defer hub.Shutdown()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")

	hub.Register(alice1)
	select {
	case id := <-firstConnects:
		if id != "alice" {
			t.Errorf("expected alice, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("first connect callback not fired")
	}

	// İkinci bağlantı callback tetiklemez
	hub.Register(alice2)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 2 })
	select {
	case <-firstConnects:
		t.Fatal("first connect callback fired for second connection")
	default:
	}

	// İlk kopuşta tetiklenmez, son kopuşta tetiklenir
	hub.Unregister(alice1)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 1 })
	select {
	case <-disconnects:
		t.Fatal("disconnect callback fired while a connection remains")
	default:
	}

	hub.Unregister(alice2)
	select {
	case id := <-disconnects:
		if id != "alice" {
			t.Errorf("expected alice, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("fully disconnected callback not fired")
	}
}

func TestBroadcastToUserReachesAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 2 && hub.IsOnline("bob") })

	hub.BroadcastToUser("alice", OpNewMessage, map[string]string{"id": "m1"})

	for _, c := range []*Client{alice1, alice2} {
		event := recvEvent(t, c)
		if event.Op != OpNewMessage {
			t.Errorf("expected %s, got %s", OpNewMessage, event.Op)
		}
	}

	select {
	case <-bob.send:
		t.Fatal("bob should not receive alice's event")
	default:
	}
}

func TestBroadcastToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	// Panic veya blokaj olmamalı
	hub.BroadcastToUser("ghost", OpNewMessage, nil)
}

func TestBroadcastToAll(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") && hub.IsOnline("bob") })

	hub.BroadcastToAll(OpOnlineUsers, []string{"alice", "bob"})

	for _, c := range []*Client{alice, bob} {
		event := recvEvent(t, c)
		if event.Op != OpOnlineUsers {
			t.Errorf("expected %s, got %s", OpOnlineUsers, event.Op)
		}
	}
}

func TestSeqMonotonic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") })

	var last int64
	for i := 0; i < 5; i++ {
		hub.BroadcastToUser("alice", OpNewMessage, nil)
		event := recvEvent(t, alice)
		if event.Seq <= last {
			t.Fatalf("seq not increasing: %d after %d", event.Seq, last)
		}
		last = event.Seq
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") })

	// Buffer'ı doldur — kimse tüketmiyor
	for i := 0; i < sendBufferSize+10; i++ {
		hub.BroadcastToUser("alice", OpNewMessage, map[string]int{"n": i})
	}

	// Dolu buffer'lı client düşürülür
	waitFor(t, 2*time.Second, func() bool { return !hub.IsOnline("alice") })
}

func TestConversationFocus(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	hub.Register(alice1)
	hub.Register(alice2)
	waitFor(t, time.Second, func() bool { return hub.ConnectionCount("alice") == 2 })

	if hub.IsViewingConversation("alice", "bob") {
		t.Error("no focus set yet")
	}

	// Tek cihazın focus'u yeterli
	alice2.SetFocus("bob")
	if !hub.IsViewingConversation("alice", "bob") {
		t.Error("expected alice viewing bob")
	}
	if hub.IsViewingConversation("alice", "carol") {
		t.Error("alice is not viewing carol")
	}

	alice2.SetFocus("")
	if hub.IsViewingConversation("alice", "bob") {
		t.Error("focus cleared, should not be viewing")
	}
}

func TestTypingForwarded(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") && hub.IsOnline("bob") })

	alice.handleEvent(Event{Op: OpTyping, Data: map[string]any{"to": "bob"}})

	event := recvEvent(t, bob)
	if event.Op != OpTyping {
		t.Fatalf("expected typing event, got %s", event.Op)
	}
	var data TypingData
	raw, _ := json.Marshal(event.Data)
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("failed to decode typing data: %v", err)
	}
	if data.From != "alice" {
		t.Errorf("expected from=alice, got %s", data.From)
	}
}

func TestFocusEventUpdatesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	alice := newTestClient(hub, "alice")
	hub.Register(alice)
	waitFor(t, time.Second, func() bool { return hub.IsOnline("alice") })

	alice.handleEvent(Event{Op: OpConversationFocus, Data: map[string]any{"partnerId": "bob"}})
	if alice.Focus() != "bob" {
		t.Errorf("expected focus=bob, got %q", alice.Focus())
	}

	alice.handleEvent(Event{Op: OpConversationFocus, Data: map[string]any{"partnerId": ""}})
	if alice.Focus() != "" {
		t.Errorf("expected focus cleared, got %q", alice.Focus())
	}
}
