package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/normalize"
	"github.com/radieske/esports-ev-finder/internal/store"
)

// batchTimeout limita a varredura inteira do soft book, não cada request.
const batchTimeout = 30 * time.Second

// Formato de wire do soft book: um evento por request, odds já decimais.
type retailEvent struct {
	MatchID     string `json:"match_id"`
	EventName   string `json:"event_name"`
	Sport       string `json:"sport"`
	StartTime   string `json:"start_time"`
	Status      string `json:"status"`
	Competitors []struct {
		Name string `json:"name"`
		Home bool   `json:"home"`
	} `json:"competitors"`
	Markets []struct {
		Type       string `json:"type"`
		Selections []struct {
			Side string  `json:"side"`
			Odds float64 `json:"odds"`
		} `json:"selections"`
	} `json:"markets"`
}

// RetailClient busca mercados individuais do soft book pelos match ids
// registrados.
type RetailClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRetailClient cria o client com timeout de 10s por request.
func NewRetailClient(baseURL string, logger *zap.Logger) *RetailClient {
	return &RetailClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// FetchMarket busca um evento e extrai o moneyline. Evento sem moneyline
// completo é erro: o chamador descarta e segue.
func (c *RetailClient) FetchMarket(ctx context.Context, matchID string) (store.RetailMarket, error) {
	var m store.RetailMarket

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events/"+matchID, nil)
	if err != nil {
		return m, fmt.Errorf("erro ao montar request do evento %s: %w", matchID, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return m, fmt.Errorf("erro ao chamar evento %s: %w", matchID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return m, fmt.Errorf("status inesperado no evento %s: %d", matchID, resp.StatusCode)
	}

	var ev retailEvent
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		return m, fmt.Errorf("erro ao decodificar evento %s: %w", matchID, err)
	}

	var home, away string
	for _, comp := range ev.Competitors {
		if comp.Home {
			home = comp.Name
		} else {
			away = comp.Name
		}
	}
	if home == "" || away == "" {
		return m, fmt.Errorf("evento %s sem os dois competidores", matchID)
	}

	var homeOdds, awayOdds float64
	for _, mk := range ev.Markets {
		if mk.Type != "moneyline" {
			continue
		}
		for _, sel := range mk.Selections {
			switch sel.Side {
			case "home":
				homeOdds = sel.Odds
			case "away":
				awayOdds = sel.Odds
			}
		}
		break
	}
	if homeOdds <= 1.0 || awayOdds <= 1.0 {
		return m, fmt.Errorf("evento %s sem moneyline completo", matchID)
	}

	sport := ev.Sport
	if sport == "" {
		sport = string(normalize.InferSport(ev.EventName))
	}

	var startTime *time.Time
	if ev.StartTime != "" {
		if ts, err := time.Parse(time.RFC3339, ev.StartTime); err == nil {
			startTime = &ts
		}
	}

	return store.RetailMarket{
		MatchID:   ev.MatchID,
		EventName: ev.EventName,
		Sport:     sport,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeOdds:  homeOdds,
		AwayOdds:  awayOdds,
		StartTime: startTime,
		Status:    ev.Status,
	}, nil
}

// FetchAll busca todos os ids em paralelo com deadline de 30s pro lote
// inteiro. Falhas individuais são logadas e filtradas, nunca derrubam o lote.
func (c *RetailClient) FetchAll(ctx context.Context, matchIDs []string) []store.RetailMarket {
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	results := make([]*store.RetailMarket, len(matchIDs))
	var wg sync.WaitGroup
	for i, id := range matchIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			m, err := c.FetchMarket(ctx, id)
			if err != nil {
				c.logger.Warn("evento retail descartado", zap.String("match_id", id), zap.Error(err))
				return
			}
			results[i] = &m
		}(i, id)
	}
	wg.Wait()

	out := make([]store.RetailMarket, 0, len(matchIDs))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	c.logger.Info("soft book raspado",
		zap.Int("pedidos", len(matchIDs)),
		zap.Int("mercados", len(out)))
	return out
}
