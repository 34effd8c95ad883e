package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// subscribe manda a assinatura e espera o pong de um ping em seguida, pra
// garantir que o hub já processou a mensagem anterior
func subscribe(t *testing.T, conn *websocket.Conn, sport string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Sport: sport}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("esperava pong, veio %v (%v)", pong, err)
	}
}

func TestHubBroadcastBySport(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, "cs2")

	hub.Broadcast(events.ValueAlert{ReferenceID: "r1", Sport: "cs2", BestBet: "home", BestEVPct: 3.2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var alert events.ValueAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if alert.ReferenceID != "r1" || alert.BestBet != "home" {
		t.Errorf("alerta inesperado: %+v", alert)
	}
}

func TestHubSportFilter(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, "lol")

	// Alerta de outro esporte não chega pra quem filtrou
	hub.Broadcast(events.ValueAlert{ReferenceID: "r1", Sport: "cs2"})

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("não devia receber alerta de cs2 assinando lol")
	}
}

func TestHubWildcardSubscription(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	conn := dialHub(t, hub)
	subscribe(t, conn, "")

	hub.Broadcast(events.ValueAlert{ReferenceID: "r2", Sport: "lol"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var alert events.ValueAlert
	if err := conn.ReadJSON(&alert); err != nil {
		t.Fatalf("read: %v", err)
	}
	if alert.ReferenceID != "r2" {
		t.Errorf("alerta inesperado: %+v", alert)
	}
}
