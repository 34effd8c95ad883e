package events

import "time"

// ValueAlert é publicado quando um ciclo encontra EV positivo em um mercado
// pareado. Vai pro Kafka (tópico "value_alerts") e pro canal Pub/Sub do Redis
// que alimenta o hub WebSocket.
type ValueAlert struct {
	ReferenceID string    `json:"reference_id"`
	RetailID    string    `json:"retail_id"`
	Event       string    `json:"event"`
	Sport       string    `json:"sport"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	BestBet     string    `json:"best_bet"` // "home" ou "away"
	BestEVPct   float64   `json:"best_ev_pct"`
	RetailOdds  float64   `json:"retail_odds"` // odd oferecida no lado do best_bet
	StartTime   time.Time `json:"start_time"`
	DetectedAt  time.Time `json:"detected_at"`
}
