package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Sport: opcional; vazio assina todos os esportes
type ClientMsg struct {
	Type  string `json:"type"`
	Sport string `json:"sport"`
}
