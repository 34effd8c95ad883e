package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/radieske/esports-ev-finder/internal/oddsmath"
)

// projectEV preenche os campos derivados de uma MatchedMarket: EV dos dois
// métodos contra as odds retail e o best bet. Função pura, o resto é scan.
func projectEV(row *MatchedMarket, homeFairProb, awayFairProb float64, homePropProb, awayPropProb *float64) {
	row.HomeEV = oddsmath.EV(homeFairProb, row.RetailHomeOdds)
	row.AwayEV = oddsmath.EV(awayFairProb, row.RetailAwayOdds)
	row.HomeEVPct = oddsmath.EVPercent(homeFairProb, row.RetailHomeOdds)
	row.AwayEVPct = oddsmath.EVPercent(awayFairProb, row.RetailAwayOdds)

	// Método proporcional cai pro power quando a linha não tem os dados
	if homePropProb != nil && awayPropProb != nil {
		row.HomePropEV = oddsmath.EV(*homePropProb, row.RetailHomeOdds)
		row.AwayPropEV = oddsmath.EV(*awayPropProb, row.RetailAwayOdds)
		row.HomePropEVPct = oddsmath.EVPercent(*homePropProb, row.RetailHomeOdds)
		row.AwayPropEVPct = oddsmath.EVPercent(*awayPropProb, row.RetailAwayOdds)
	} else {
		row.HomePropEV = row.HomeEV
		row.AwayPropEV = row.AwayEV
		row.HomePropEVPct = row.HomeEVPct
		row.AwayPropEVPct = row.AwayEVPct
	}

	// Best bet decidido pelo método power. Sem lado positivo, BestBet fica
	// nil e BestEVPct reporta o menos negativo.
	if row.HomeEVPct > 0 || row.AwayEVPct > 0 {
		side := "away"
		if row.HomeEVPct > row.AwayEVPct {
			side = "home"
		}
		row.BestBet = &side
	}
	row.BestEVPct = row.AwayEVPct
	if row.HomeEVPct > row.AwayEVPct {
		row.BestEVPct = row.HomeEVPct
	}
}

// MatchedMarkets devolve a projeção de EV de todos os pares mapeados ativos,
// ordenada por best_ev_pct decrescente.
func (s *Store) MatchedMarkets(ctx context.Context) ([]MatchedMarket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.event, r.sport, r.home_team, r.away_team, r.start_time,
		       r.home_fair_odds, r.away_fair_odds, r.home_fair_prob, r.away_fair_prob,
		       r.home_prop_odds, r.away_prop_odds, r.home_prop_prob, r.away_prop_prob,
		       t.match_id, t.home_team, t.away_team, t.home_odds, t.away_odds,
		       m.confidence
		FROM match_mappings m
		JOIN reference_markets r ON r.id = m.reference_id
		JOIN retail_markets t ON t.match_id = m.retail_id
		WHERE r.is_active = TRUE AND t.is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar mercados mapeados: %w", err)
	}
	defer rows.Close()

	var out []MatchedMarket
	for rows.Next() {
		var row MatchedMarket
		var homeFairProb, awayFairProb float64
		var homePropProb, awayPropProb *float64
		if err := rows.Scan(
			&row.ReferenceID, &row.Event, &row.Sport, &row.HomeTeam, &row.AwayTeam, &row.StartTime,
			&row.HomeFairOdds, &row.AwayFairOdds, &homeFairProb, &awayFairProb,
			&row.HomePropOdds, &row.AwayPropOdds, &homePropProb, &awayPropProb,
			&row.RetailID, &row.RetailHomeTeam, &row.RetailAwayTeam, &row.RetailHomeOdds, &row.RetailAwayOdds,
			&row.Confidence,
		); err != nil {
			return nil, fmt.Errorf("erro ao ler mercado mapeado: %w", err)
		}
		projectEV(&row, homeFairProb, awayFairProb, homePropProb, awayPropProb)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BestEVPct > out[j].BestEVPct })
	return out, nil
}

// PositiveEVMarkets filtra a projeção pelos pares com best bet e EV acima do
// mínimo pedido. Sport vazio não filtra.
func (s *Store) PositiveEVMarkets(ctx context.Context, minEVPct float64, sport string) ([]MatchedMarket, error) {
	all, err := s.MatchedMarkets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MatchedMarket, 0, len(all))
	for _, row := range all {
		if row.BestBet == nil || row.BestEVPct < minEVPct {
			continue
		}
		if sport != "" && !strings.EqualFold(row.Sport, sport) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
