package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/solaropoly/game/service"
)

func newTestClient(hub *Hub, boardID string) *Client {
	return &Client{
		hub:     hub,
		boardID: boardID,
		send:    make(chan []byte, 256),
	}
}

func testBoardInfo(id string) *service.BoardInfo {
	return &service.BoardInfo{
		ID:      id,
		Summary: "Board [squares=6, groups=2]",
		Size:    6,
		Squares: []service.SquareView{{Index: 0, ID: "go", Name: "GO", Kind: "start"}},
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.boards == nil {
		t.Error("Hub boards map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialized")
	}
	if hub.logger == nil {
		t.Error("Hub logger is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-board")

	hub.registerClient(client)

	if !hub.boards["test-board"][client] {
		t.Error("Client was not registered for board")
	}
	if hub.ClientCount("test-board") != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount("test-board"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub, "test-board")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.boards["test-board"]; exists {
		t.Error("Board should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsOnBoard(t *testing.T) {
	hub := NewHub(nil)
	boardID := "multi-client-board"

	client1 := newTestClient(hub, boardID)
	client2 := newTestClient(hub, boardID)
	other := newTestClient(hub, "other")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if hub.ClientCount(boardID) != 2 {
		t.Errorf("Expected 2 clients on board, got %d", hub.ClientCount(boardID))
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(boardID) != 1 {
		t.Errorf("Expected 1 client remaining on board, got %d", hub.ClientCount(boardID))
	}
	if !hub.boards[boardID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub(nil)
	boardID := "broadcast-test"

	client := newTestClient(hub, boardID)
	other := newTestClient(hub, "other")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{BoardID: boardID, Board: testBoardInfo(boardID), Event: "board_update"})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.BoardID != boardID {
			t.Errorf("Expected board %s, got %s", boardID, message.BoardID)
		}
		if message.Event != "board_update" {
			t.Errorf("Expected event 'board_update', got %s", message.Event)
		}
		if message.Board == nil || message.Board.Size != 6 {
			t.Error("Board snapshot not correctly transmitted")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Clients of other boards must not receive the message")
	default:
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, boardID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{BoardID: "slow", Event: "board_update"})

	if hub.ClientCount("slow") != 0 {
		t.Error("Client with a full send channel should be dropped")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.BoardID != "event-test" {
			t.Errorf("Expected board 'event-test', got %s", message.BoardID)
		}
		if message.Event != "custom-event" {
			t.Errorf("Expected event 'custom-event', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubBroadcastDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		// no Run loop: the queue fills and later messages are dropped
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.BroadcastToBoard("b", testBoardInfo("b"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastToBoard blocked without a running hub")
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected %d queued messages, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boardID := r.URL.Query().Get("board")
		if boardID == "" {
			boardID = "default"
		}
		hub.ServeWS(w, r, boardID)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebSocketUpgrade(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	server := newTestServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?board=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	if !waitFor(t, func() bool { return hub.ClientCount("ws-test") == 1 }) {
		t.Errorf("Expected 1 client on board, got %d", hub.ClientCount("ws-test"))
	}

	conn.Close()

	if !waitFor(t, func() bool { return hub.ClientCount("ws-test") == 0 }) {
		t.Error("Board should have been cleaned up after WebSocket close")
	}
}

func TestWebSocketMessageReceive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	server := newTestServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?board=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	if !waitFor(t, func() bool { return hub.ClientCount("msg-test") == 1 }) {
		t.Fatal("Client never registered")
	}

	hub.BroadcastToBoard("msg-test", testBoardInfo("msg-test"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.BoardID != "msg-test" {
		t.Errorf("Expected board 'msg-test', got %s", message.BoardID)
	}
	if message.Board == nil || message.Board.Summary != "Board [squares=6, groups=2]" {
		t.Error("Board snapshot not correctly received")
	}
	if len(message.Board.Squares) != 1 || message.Board.Squares[0].ID != "go" {
		t.Error("Board squares not correctly received")
	}
}
