package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

// allSports é a chave de assinatura curinga.
const allSports = "all"

// Hub gerencia conexões WebSocket e assinaturas de alertas de valor
// subs: mapeia sport ("cs2", "lol" ou "all") para o conjunto de conexões
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*websocket.Conn]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
	}
}

func subKey(sport string) string {
	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" {
		return allSports
	}
	return sport
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe por esporte e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			key := subKey(msg.Sport)
			h.mu.Lock()
			if _, ok := h.subs[key]; !ok {
				h.subs[key] = make(map[*websocket.Conn]struct{})
			}
			h.subs[key][conn] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			key := subKey(msg.Sport)
			h.mu.Lock()
			if m, ok := h.subs[key]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, key)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for _, set := range h.subs {
		delete(set, conn)
	}
	h.mu.Unlock()
}

// Broadcast envia um alerta pros clientes inscritos no esporte dele e pros
// inscritos no curinga
func (h *Hub) Broadcast(alert events.ValueAlert) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]struct{}, len(h.subs[allSports]))
	for c := range h.subs[allSports] {
		conns[c] = struct{}{}
	}
	for c := range h.subs[subKey(alert.Sport)] {
		conns[c] = struct{}{}
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(alert)
	for c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
