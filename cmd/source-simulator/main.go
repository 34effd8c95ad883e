package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/shared/config"
	"github.com/radieske/esports-ev-finder/internal/shared/logger"
	"github.com/radieske/esports-ev-finder/internal/shared/metrics"
)

var (
	// Métricas Prometheus para monitoramento do simulador
	requestsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_requests_total",
		Help: "Requests servidos por endpoint",
	}, []string{"endpoint"})
	oddsDrifts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simulator_odds_drifts_total",
		Help: "Passadas de drift de odds",
	})
)

// simMatch é uma partida simulada vista pelos dois books ao mesmo tempo: o
// sharp book em odds americanas com vig, o soft book em decimais com nomes
// ligeiramente diferentes.
type simMatch struct {
	ID          int64
	RetailID    string
	League      string
	Sport       string
	SharpHome   string
	SharpAway   string
	RetailHome  string
	RetailAway  string
	RetailEvent string
	StartsIn    time.Duration

	// odds americanas correntes do sharp book; o soft book deriva as dele
	homePrice int
	awayPrice int
}

func catalog() []*simMatch {
	return []*simMatch{
		{ID: 1001, RetailID: "ret_1001", League: "BLAST Premier", Sport: "CS2",
			SharpHome: "G2 Esports", SharpAway: "Team Vitality",
			RetailHome: "G2", RetailAway: "Vitality",
			RetailEvent: "BLAST Premier Fall", StartsIn: 45 * time.Minute,
			homePrice: -130, awayPrice: 110},
		{ID: 1002, RetailID: "ret_1002", League: "IEM Katowice", Sport: "CS2",
			SharpHome: "Natus Vincere", SharpAway: "FaZe Clan",
			RetailHome: "NAVI", RetailAway: "FaZe",
			RetailEvent: "IEM Katowice", StartsIn: 3 * time.Hour,
			homePrice: -155, awayPrice: 135},
		{ID: 1003, RetailID: "ret_1003", League: "LCK", Sport: "League of Legends",
			SharpHome: "T1", SharpAway: "Gen.G",
			RetailHome: "T1", RetailAway: "GenG",
			RetailEvent: "LCK Summer", StartsIn: 2 * time.Hour,
			homePrice: 120, awayPrice: -140},
		{ID: 1004, RetailID: "ret_1004", League: "LEC", Sport: "League of Legends",
			SharpHome: "G2 Esports", SharpAway: "Fnatic",
			RetailHome: "G2", RetailAway: "FNC",
			RetailEvent: "LEC Summer", StartsIn: 4 * time.Minute,
			homePrice: -200, awayPrice: 170},
	}
}

// book segura o catálogo e dá drift nas odds num intervalo fixo
type book struct {
	mu      sync.RWMutex
	matches []*simMatch
	started time.Time
	log     *zap.Logger
}

func newBook(log *zap.Logger) *book {
	return &book{matches: catalog(), started: time.Now().UTC(), log: log}
}

func (b *book) startTime(m *simMatch) time.Time {
	return b.started.Add(m.StartsIn)
}

// drift mexe as odds americanas alguns pontos pra cada lado, mantendo o sinal
func (b *book) drift() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.matches {
		m.homePrice = driftPrice(m.homePrice)
		m.awayPrice = driftPrice(m.awayPrice)
	}
	oddsDrifts.Inc()
}

func driftPrice(price int) int {
	price += rand.Intn(11) - 5
	// odds americanas não existem entre -100 e +100
	if price > -100 && price < 100 {
		if price < 0 {
			price = -101
		} else {
			price = 101
		}
	}
	return price
}

// americanToDecimalLoose converte sem arredondar; o soft book publica as
// decimais dele com uma margem extra em cima
func americanToDecimalLoose(price int) float64 {
	if price > 0 {
		return 1 + float64(price)/100
	}
	return 1 + 100/float64(-price)
}

func (b *book) matchupsHandler(w http.ResponseWriter, r *http.Request) {
	requestsServed.WithLabelValues("matchups").Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()

	type participant struct {
		Name      string `json:"name"`
		Alignment string `json:"alignment"`
	}
	var out []map[string]any
	for _, m := range b.matches {
		out = append(out, map[string]any{
			"id":         m.ID,
			"league":     m.League,
			"sport":      m.Sport,
			"start_time": b.startTime(m).Format(time.RFC3339),
			"is_live":    false,
			"participants": []participant{
				{Name: m.SharpHome, Alignment: "home"},
				{Name: m.SharpAway, Alignment: "away"},
			},
		})
	}
	writeJSON(w, out)
}

func (b *book) marketsHandler(w http.ResponseWriter, r *http.Request) {
	requestsServed.WithLabelValues("markets").Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()

	type price struct {
		Designation string `json:"designation"`
		Price       int    `json:"price"`
	}
	var out []map[string]any
	for _, m := range b.matches {
		out = append(out, map[string]any{
			"matchup_id": m.ID,
			"type":       "moneyline",
			"period":     0,
			"prices": []price{
				{Designation: "home", Price: m.homePrice},
				{Designation: "away", Price: m.awayPrice},
			},
		})
	}
	writeJSON(w, out)
}

func (b *book) eventHandler(w http.ResponseWriter, r *http.Request) {
	requestsServed.WithLabelValues("events").Inc()
	id := chi.URLParam(r, "id")

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, m := range b.matches {
		if m.RetailID != id {
			continue
		}
		// O soft book cobra margem: odds um pouco piores que a conversão crua
		homeOdds := round2(americanToDecimalLoose(m.homePrice) * 0.97)
		awayOdds := round2(americanToDecimalLoose(m.awayPrice) * 0.97)
		writeJSON(w, map[string]any{
			"match_id":   m.RetailID,
			"event_name": m.RetailEvent,
			"sport":      sportSlug(m.Sport),
			"start_time": b.startTime(m).Format(time.RFC3339),
			"status":     "open",
			"competitors": []map[string]any{
				{"name": m.RetailHome, "home": true},
				{"name": m.RetailAway, "home": false},
			},
			"markets": []map[string]any{
				{
					"type": "moneyline",
					"selections": []map[string]any{
						{"side": "home", "odds": homeOdds},
						{"side": "away", "odds": awayOdds},
					},
				},
			},
		})
		return
	}
	http.NotFound(w, r)
}

// matchIDsHandler lista os ids retail disponíveis, pra alimentar o serviço
func (b *book) matchIDsHandler(w http.ResponseWriter, r *http.Request) {
	requestsServed.WithLabelValues("matchids").Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, 0, len(b.matches))
	for _, m := range b.matches {
		ids = append(ids, m.RetailID)
	}
	writeJSON(w, map[string][]string{"match_ids": ids})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }

func sportSlug(sport string) string {
	if sport == "CS2" {
		return "cs2"
	}
	return "lol"
}

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "source-simulator"
		cfg.HTTPPort = "8091"
		cfg.MetricsPort = "9094"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	b := newBook(log)
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			b.drift()
		}
	}()

	r := chi.NewRouter()
	r.Get("/matchups", b.matchupsHandler)
	r.Get("/markets", b.marketsHandler)
	r.Get("/events/{id}", b.eventHandler)
	r.Get("/matchids", b.matchIDsHandler)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	log.Info("simulator listening", zap.String("port", cfg.HTTPPort))
	if err := http.ListenAndServe(":"+cfg.HTTPPort, r); err != nil {
		log.Fatal("simulator failed", zap.Error(err))
	}
}
