package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
)

func newTestClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func newTestRun(id string) *service.RunResult {
	return &service.RunResult{
		ID:     id,
		Status: engine.Completed,
		Output: &document.Output{
			Visited: []engine.Position{{X: 0, Y: 0}},
			Cleaned: []engine.Position{},
			Final:   document.Final{X: 0, Y: 0, Facing: "N"},
			Battery: 4,
		},
	}
}

func receive(t *testing.T, client *Client) *Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return &message
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.topics == nil {
		t.Error("Hub topics map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialized")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "lobby")
	client2 := newTestClient(hub, "lobby")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount("lobby") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("lobby"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("lobby") != 1 {
		t.Errorf("Expected 1 client remaining, got %d", hub.ClientCount("lobby"))
	}
	if !hub.topics["lobby"][client2] {
		t.Error("client2 should still be registered")
	}

	// Unregistering twice is a no-op
	hub.unregisterClient(client1)

	hub.unregisterClient(client2)
	if _, exists := hub.topics["lobby"]; exists {
		t.Error("Topic should have been cleaned up after last client unregistered")
	}
}

func TestHubBroadcastRunRouting(t *testing.T) {
	hub := NewHub()
	lobby := newTestClient(hub, "lobby")
	hall := newTestClient(hub, "hall")
	all := newTestClient(hub, AllTopics)
	hub.registerClient(lobby)
	hub.registerClient(hall)
	hub.registerClient(all)

	hub.broadcastMessage(&Message{Topic: "lobby", Event: EventRunCompleted, Run: newTestRun("r1")})

	for _, client := range []*Client{lobby, all} {
		message := receive(t, client)
		if message.Event != EventRunCompleted {
			t.Errorf("Expected event %s, got %s", EventRunCompleted, message.Event)
		}
		if message.Topic != "lobby" {
			t.Errorf("Expected topic lobby, got %s", message.Topic)
		}
		if message.Run == nil || message.Run.ID != "r1" || message.Run.Output.Battery != 4 {
			t.Errorf("Run not correctly transmitted: %+v", message.Run)
		}
	}

	select {
	case data := <-hall.send:
		t.Errorf("hall subscriber should not receive lobby runs, got %s", data)
	default:
	}
}

func TestHubBroadcastToAllOnlyOnce(t *testing.T) {
	hub := NewHub()
	all := newTestClient(hub, AllTopics)
	hub.registerClient(all)

	hub.broadcastMessage(&Message{Topic: AllTopics, Event: "ping"})

	receive(t, all)
	select {
	case data := <-all.send:
		t.Errorf("expected a single delivery, got a second message %s", data)
	default:
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, topic: "lobby", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{Topic: "lobby", Event: "ping"})

	if hub.ClientCount("lobby") != 0 {
		t.Error("Client with a full send channel should be dropped")
	}
	if _, ok := <-slow.send; ok {
		t.Error("Dropped client's send channel should be closed")
	}
}

func TestHubBroadcastEventThroughRun(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := newTestClient(hub, "lobby")
	hub.register <- client

	hub.BroadcastEvent("lobby", "custom-event", "test-data")

	message := receive(t, client)
	if message.Event != "custom-event" {
		t.Errorf("Expected event 'custom-event', got %s", message.Event)
	}
	if message.Data != "test-data" {
		t.Errorf("Expected data 'test-data', got %v", message.Data)
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := newTestClient(hub, "lobby")
	hub.register <- client

	hub.Stop()
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if hub.ClientCount("lobby") != 0 {
		t.Error("Stop should disconnect every client")
	}

	// Broadcasting after Stop must not block
	hub.BroadcastRun("lobby", newTestRun("late"))
}

func newTestServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("scenario"))
	}))
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := newTestServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?scenario=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 })
}

func TestWebSocketReceivesRun(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := newTestServer(hub)
	defer server.Close()

	// No scenario parameter subscribes to every run
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount(AllTopics) == 1 })

	hub.BroadcastRun("hall", newTestRun("r42"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Topic != "hall" || message.Event != EventRunCompleted {
		t.Errorf("Unexpected message header: topic=%s event=%s", message.Topic, message.Event)
	}
	if message.Run == nil || message.Run.ID != "r42" || message.Run.Status != engine.Completed {
		t.Errorf("Run not correctly received: %+v", message.Run)
	}
}
