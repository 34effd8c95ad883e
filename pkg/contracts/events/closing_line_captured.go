package events

import "time"

// Evento publicado no tópico "closing_lines_captured" após cada passada de
// captura. Consumidores downstream (análise de CLV, auditoria) ficam fora
// deste repositório.
type ClosingLineCaptured struct {
	ReferenceID     string    `json:"reference_id"`
	Event           string    `json:"event"`
	Sport           string    `json:"sport"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	HomeClosingOdds float64   `json:"home_closing_odds"`
	AwayClosingOdds float64   `json:"away_closing_odds"`
	StartTime       time.Time `json:"start_time"`
	CapturedAt      time.Time `json:"captured_at"`
}
