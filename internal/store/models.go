package store

import "time"

// ReferenceMarket é o snapshot de um mercado moneyline do sharp book, já
// de-vigado nos dois métodos. Substituído por inteiro a cada scrape; os
// únicos campos mutados depois são os de closing line.
type ReferenceMarket struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Sport    string `json:"sport"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`

	// Método power (primário)
	HomeFairOdds float64 `json:"home_fair_odds"`
	AwayFairOdds float64 `json:"away_fair_odds"`
	HomeFairProb float64 `json:"home_fair_prob"`
	AwayFairProb float64 `json:"away_fair_prob"`

	// Método proporcional (secundário, pode faltar em linhas antigas)
	HomePropOdds *float64 `json:"home_prop_odds,omitempty"`
	AwayPropOdds *float64 `json:"away_prop_odds,omitempty"`
	HomePropProb *float64 `json:"home_prop_prob,omitempty"`
	AwayPropProb *float64 `json:"away_prop_prob,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`

	// Closing line: imutável depois de capturada
	HomeClosingOdds   *float64   `json:"home_closing_odds,omitempty"`
	AwayClosingOdds   *float64   `json:"away_closing_odds,omitempty"`
	ClosingCapturedAt *time.Time `json:"closing_captured_at,omitempty"`

	ScrapedAt time.Time `json:"scraped_at"`
	IsActive  bool      `json:"is_active"`
}

// RetailMarket é o snapshot de um mercado do soft book. Odds usadas como
// estão, sem de-vig.
type RetailMarket struct {
	MatchID   string     `json:"match_id"`
	EventName string     `json:"event_name"`
	Sport     string     `json:"sport"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	HomeOdds  float64    `json:"home_odds"`
	AwayOdds  float64    `json:"away_odds"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Status    string     `json:"status"`
	ScrapedAt time.Time  `json:"scraped_at"`
	IsActive  bool       `json:"is_active"`
}

// MatchedMarket é a linha da projeção de EV: junção de um mercado reference
// com seu par retail via mapping, com EV calculado na leitura.
type MatchedMarket struct {
	ReferenceID string     `json:"reference_id"`
	Event       string     `json:"event"`
	Sport       string     `json:"sport"`
	HomeTeam    string     `json:"home_team"`
	AwayTeam    string     `json:"away_team"`
	StartTime   *time.Time `json:"start_time,omitempty"`

	HomeFairOdds float64  `json:"home_fair_odds"`
	AwayFairOdds float64  `json:"away_fair_odds"`
	HomePropOdds *float64 `json:"home_prop_odds,omitempty"`
	AwayPropOdds *float64 `json:"away_prop_odds,omitempty"`

	RetailID       string  `json:"retail_id"`
	RetailHomeTeam string  `json:"retail_home_team"`
	RetailAwayTeam string  `json:"retail_away_team"`
	RetailHomeOdds float64 `json:"retail_home_odds"`
	RetailAwayOdds float64 `json:"retail_away_odds"`

	Confidence float64 `json:"confidence"`

	// Método power (primário)
	HomeEV    float64 `json:"home_ev"`
	AwayEV    float64 `json:"away_ev"`
	HomeEVPct float64 `json:"home_ev_pct"`
	AwayEVPct float64 `json:"away_ev_pct"`

	// Método proporcional (cai pro power quando indisponível)
	HomePropEV    float64 `json:"home_prop_ev"`
	AwayPropEV    float64 `json:"away_prop_ev"`
	HomePropEVPct float64 `json:"home_prop_ev_pct"`
	AwayPropEVPct float64 `json:"away_prop_ev_pct"`

	// BestBet é nil quando nenhum lado tem EV positivo ("sem edge", não
	// "sem dados"); BestEVPct então reporta o menos negativo dos dois.
	BestBet   *string `json:"best_bet"`
	BestEVPct float64 `json:"best_ev_pct"`
}

// UnmatchedMarkets agrupa os mercados ativos ainda sem mapping dos dois lados.
type UnmatchedMarkets struct {
	Reference []ReferenceMarket `json:"reference"`
	Retail    []RetailMarket    `json:"retail"`
}

// Bet é uma aposta registrada pelo usuário. As métricas de EV são um snapshot
// do momento da colocação; resultado e CLV entram depois.
type Bet struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	Event       string `json:"event"`
	Sport       string `json:"sport"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`

	BetSide string  `json:"bet_side"` // "home" ou "away"
	BetTeam string  `json:"bet_team"`
	Odds    float64 `json:"odds"`
	Stake   float64 `json:"stake"`

	ExpectedValue   float64 `json:"expected_value"`
	EVPercentage    float64 `json:"ev_percentage"`
	FairOdds        float64 `json:"fair_odds"`
	PotentialReturn float64 `json:"potential_return"`
	PotentialProfit float64 `json:"potential_profit"`

	StartTime *time.Time `json:"start_time,omitempty"`
	PlacedAt  time.Time  `json:"placed_at"`

	Status       string   `json:"status"` // pending | won | lost | void
	Result       *string  `json:"result,omitempty"`
	ActualReturn *float64 `json:"actual_return,omitempty"`

	ClosingOdds   *float64 `json:"closing_odds,omitempty"`
	CLV           *float64 `json:"clv,omitempty"`
	CLVPercentage *float64 `json:"clv_percentage,omitempty"`

	Notes *string `json:"notes,omitempty"`
}

// BetStats é o resumo agregado das apostas.
type BetStats struct {
	TotalBets       int     `json:"total_bets"`
	TotalStaked     float64 `json:"total_staked"`
	TotalPotential  float64 `json:"total_potential"`
	SettledBets     int     `json:"settled_bets"`
	PendingBets     int     `json:"pending_bets"`
	TotalProfit     float64 `json:"total_profit"`
	AvgEV           float64 `json:"avg_ev"`
	BetsWithCLV     int     `json:"bets_with_clv"`
	PositiveCLV     int     `json:"positive_clv_count"`
	PositiveCLVRate float64 `json:"positive_clv_rate"`
	AvgCLV          float64 `json:"avg_clv"`
}

// ArchiveStats resume os mercados reference já iniciados.
type ArchiveStats struct {
	TotalArchived int            `json:"total_archived"`
	WithClosing   int            `json:"with_closing"`
	BySport       map[string]int `json:"by_sport"`
}

// CapturedLine é uma linha de fechamento recém-congelada, devolvida pela
// passada de captura pra alimentar o evento Kafka e o recálculo de CLV.
type CapturedLine struct {
	ReferenceID     string
	Event           string
	Sport           string
	HomeTeam        string
	AwayTeam        string
	HomeClosingOdds float64
	AwayClosingOdds float64
	StartTime       *time.Time
	CapturedAt      time.Time
}
