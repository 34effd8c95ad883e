package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/normalize"
	"github.com/radieske/esports-ev-finder/internal/oddsmath"
	"github.com/radieske/esports-ev-finder/internal/store"
)

// Formato de wire do sharp book: matchups e markets em endpoints separados,
// odds em formato americano.
type referenceMatchup struct {
	ID           int64  `json:"id"`
	League       string `json:"league"`
	Sport        string `json:"sport"`
	StartTime    string `json:"start_time"`
	IsLive       bool   `json:"is_live"`
	Participants []struct {
		Name      string `json:"name"`
		Alignment string `json:"alignment"` // "home" | "away"
	} `json:"participants"`
}

type referenceMarket struct {
	MatchupID int64  `json:"matchup_id"`
	Type      string `json:"type"`
	Period    int    `json:"period"`
	Prices    []struct {
		Designation string `json:"designation"`
		Price       int    `json:"price"` // americano
	} `json:"prices"`
}

// ReferenceClient busca e de-viga os mercados moneyline do sharp book.
type ReferenceClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewReferenceClient cria o client com timeout de 15s por request.
func NewReferenceClient(baseURL string, logger *zap.Logger) *ReferenceClient {
	return &ReferenceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (c *ReferenceClient) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("erro ao montar request %s: %w", path, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao chamar %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status inesperado em %s: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("erro ao decodificar %s: %w", path, err)
	}
	return nil
}

// FetchMarkets busca matchups e moneylines, filtra pra CS2/LoL pré-jogo e
// devolve os mercados já de-vigados nos dois métodos. Matchups ao vivo, já
// iniciados, de outro esporte ou sem moneyline completo são descartados.
func (c *ReferenceClient) FetchMarkets(ctx context.Context) ([]store.ReferenceMarket, error) {
	var matchups []referenceMatchup
	if err := c.getJSON(ctx, "/matchups", &matchups); err != nil {
		return nil, err
	}
	var markets []referenceMarket
	if err := c.getJSON(ctx, "/markets", &markets); err != nil {
		return nil, err
	}

	// Só moneyline de jogo inteiro; primeiro preço de cada matchup vence
	moneylines := make(map[int64]referenceMarket)
	for _, m := range markets {
		if m.Type != "moneyline" || m.Period != 0 {
			continue
		}
		if _, seen := moneylines[m.MatchupID]; !seen {
			moneylines[m.MatchupID] = m
		}
	}

	now := time.Now().UTC()
	seen := make(map[int64]struct{})
	var out []store.ReferenceMarket

	for _, mu := range matchups {
		if _, dup := seen[mu.ID]; dup {
			continue
		}
		seen[mu.ID] = struct{}{}

		if mu.IsLive {
			continue
		}
		sport := normalize.InferSport(mu.League + " " + mu.Sport)
		if sport == normalize.SportUnknown {
			continue
		}

		var startTime *time.Time
		if mu.StartTime != "" {
			ts, err := time.Parse(time.RFC3339, mu.StartTime)
			if err != nil {
				c.logger.Warn("start_time inválido no sharp book",
					zap.Int64("matchup_id", mu.ID), zap.String("start_time", mu.StartTime))
				continue
			}
			if ts.Before(now) {
				continue
			}
			startTime = &ts
		}

		var home, away string
		for _, p := range mu.Participants {
			switch p.Alignment {
			case "home":
				home = p.Name
			case "away":
				away = p.Name
			}
		}
		if home == "" || away == "" {
			continue
		}

		ml, ok := moneylines[mu.ID]
		if !ok {
			continue
		}
		var homePrice, awayPrice int
		for _, p := range ml.Prices {
			switch p.Designation {
			case "home":
				homePrice = p.Price
			case "away":
				awayPrice = p.Price
			}
		}

		homeDec, err := oddsmath.AmericanToDecimal(homePrice)
		if err != nil {
			c.logger.Warn("odds americanas inválidas", zap.Int64("matchup_id", mu.ID), zap.Error(err))
			continue
		}
		awayDec, err := oddsmath.AmericanToDecimal(awayPrice)
		if err != nil {
			c.logger.Warn("odds americanas inválidas", zap.Int64("matchup_id", mu.ID), zap.Error(err))
			continue
		}

		power, err := oddsmath.PowerDevig(homeDec, awayDec)
		if err != nil {
			c.logger.Warn("de-vig power falhou", zap.Int64("matchup_id", mu.ID), zap.Error(err))
			continue
		}
		prop, err := oddsmath.ProportionalDevig(homeDec, awayDec)
		if err != nil {
			c.logger.Warn("de-vig proporcional falhou", zap.Int64("matchup_id", mu.ID), zap.Error(err))
			continue
		}

		out = append(out, store.ReferenceMarket{
			ID:           fmt.Sprintf("%d", mu.ID),
			Event:        mu.League,
			Sport:        string(sport),
			HomeTeam:     home,
			AwayTeam:     away,
			HomeFairOdds: power.HomeOdds,
			AwayFairOdds: power.AwayOdds,
			HomeFairProb: power.HomeProb,
			AwayFairProb: power.AwayProb,
			HomePropOdds: &prop.HomeOdds,
			AwayPropOdds: &prop.AwayOdds,
			HomePropProb: &prop.HomeProb,
			AwayPropProb: &prop.AwayProb,
			StartTime:    startTime,
		})
	}

	c.logger.Info("sharp book raspado",
		zap.Int("matchups", len(matchups)),
		zap.Int("mercados", len(out)))
	return out, nil
}
