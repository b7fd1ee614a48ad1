package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"where-money-moves/internal/domain"
)

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", want, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	c1 := dialHub(t, server.URL)
	defer c1.Close()
	c2 := dialHub(t, server.URL)
	defer c2.Close()
	waitClients(t, hub, 2)

	hub.Notify(domain.Notification{Title: "Mint Successful!", Severity: domain.SeverityNormal, AttemptID: "a1"})

	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var n domain.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if n.Title != "Mint Successful!" || n.AttemptID != "a1" {
			t.Errorf("Unexpected notification %+v", n)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	c := dialHub(t, server.URL)
	waitClients(t, hub, 1)

	c.Close()
	waitClients(t, hub, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.SendBuffer = 1
	hub := NewHub(&cfg, nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	c := dialHub(t, server.URL)
	defer c.Close()
	waitClients(t, hub, 1)

	// the client never reads; once the socket buffers fill the queue overflows
	big := domain.Notification{Title: strings.Repeat("x", 64*1024)}
	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		hub.Notify(big)
	}
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	hub.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Expected dial to fail after Close")
	}
	if resp == nil || resp.StatusCode != 503 {
		t.Errorf("Expected 503, got %v", resp)
	}
}

func TestHub_CloseDuringConnects(t *testing.T) {
	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err == nil {
				defer conn.Close()
				_ = conn.SetReadDeadline(time.Now().Add(time.Second))
				_, _, _ = conn.ReadMessage()
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		hub.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	wg.Wait()
	if n := hub.Clients(); n != 0 {
		t.Errorf("Expected no clients after Close, have %d", n)
	}
}
