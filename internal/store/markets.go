package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReplaceReferenceMarkets aplica o snapshot do sharp book numa transação só:
// marca tudo inativo e reativa via upsert o que veio no lote. Colunas de
// closing line nunca são tocadas pelo upsert.
func (s *Store) ReplaceReferenceMarkets(ctx context.Context, markets []ReferenceMarket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE reference_markets SET is_active = FALSE"); err != nil {
		return fmt.Errorf("erro ao desativar reference markets: %w", err)
	}

	const upsert = `
		INSERT INTO reference_markets (
			id, event, sport, home_team, away_team,
			home_fair_odds, away_fair_odds, home_fair_prob, away_fair_prob,
			home_prop_odds, away_prop_odds, home_prop_prob, away_prop_prob,
			start_time, scraped_at, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),TRUE)
		ON CONFLICT (id) DO UPDATE SET
			event = EXCLUDED.event,
			sport = EXCLUDED.sport,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_fair_odds = EXCLUDED.home_fair_odds,
			away_fair_odds = EXCLUDED.away_fair_odds,
			home_fair_prob = EXCLUDED.home_fair_prob,
			away_fair_prob = EXCLUDED.away_fair_prob,
			home_prop_odds = EXCLUDED.home_prop_odds,
			away_prop_odds = EXCLUDED.away_prop_odds,
			home_prop_prob = EXCLUDED.home_prop_prob,
			away_prop_prob = EXCLUDED.away_prop_prob,
			start_time = EXCLUDED.start_time,
			scraped_at = now(),
			is_active = TRUE`

	for _, m := range markets {
		if _, err := tx.ExecContext(ctx, upsert,
			m.ID, m.Event, m.Sport, m.HomeTeam, m.AwayTeam,
			m.HomeFairOdds, m.AwayFairOdds, m.HomeFairProb, m.AwayFairProb,
			m.HomePropOdds, m.AwayPropOdds, m.HomePropProb, m.AwayPropProb,
			m.StartTime,
		); err != nil {
			return fmt.Errorf("erro ao upsert reference market %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// ReplaceRetailMarkets faz o mesmo pro soft book.
func (s *Store) ReplaceRetailMarkets(ctx context.Context, markets []RetailMarket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("erro ao abrir transação: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE retail_markets SET is_active = FALSE"); err != nil {
		return fmt.Errorf("erro ao desativar retail markets: %w", err)
	}

	const upsert = `
		INSERT INTO retail_markets (
			match_id, event_name, sport, home_team, away_team,
			home_odds, away_odds, start_time, status, scraped_at, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),TRUE)
		ON CONFLICT (match_id) DO UPDATE SET
			event_name = EXCLUDED.event_name,
			sport = EXCLUDED.sport,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_odds = EXCLUDED.home_odds,
			away_odds = EXCLUDED.away_odds,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			scraped_at = now(),
			is_active = TRUE`

	for _, m := range markets {
		if _, err := tx.ExecContext(ctx, upsert,
			m.MatchID, m.EventName, m.Sport, m.HomeTeam, m.AwayTeam,
			m.HomeOdds, m.AwayOdds, m.StartTime, m.Status,
		); err != nil {
			return fmt.Errorf("erro ao upsert retail market %s: %w", m.MatchID, err)
		}
	}
	return tx.Commit()
}

const referenceColumns = `
	id, event, sport, home_team, away_team,
	home_fair_odds, away_fair_odds, home_fair_prob, away_fair_prob,
	home_prop_odds, away_prop_odds, home_prop_prob, away_prop_prob,
	start_time, home_closing_odds, away_closing_odds, closing_captured_at,
	scraped_at, is_active`

func scanReferenceMarket(rows *sql.Rows) (ReferenceMarket, error) {
	var m ReferenceMarket
	err := rows.Scan(
		&m.ID, &m.Event, &m.Sport, &m.HomeTeam, &m.AwayTeam,
		&m.HomeFairOdds, &m.AwayFairOdds, &m.HomeFairProb, &m.AwayFairProb,
		&m.HomePropOdds, &m.AwayPropOdds, &m.HomePropProb, &m.AwayPropProb,
		&m.StartTime, &m.HomeClosingOdds, &m.AwayClosingOdds, &m.ClosingCapturedAt,
		&m.ScrapedAt, &m.IsActive,
	)
	return m, err
}

// GetActiveReferenceMarkets devolve os mercados reference do snapshot atual.
func (s *Store) GetActiveReferenceMarkets(ctx context.Context) ([]ReferenceMarket, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+referenceColumns+" FROM reference_markets WHERE is_active = TRUE ORDER BY start_time NULLS LAST")
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar reference markets: %w", err)
	}
	defer rows.Close()

	var out []ReferenceMarket
	for rows.Next() {
		m, err := scanReferenceMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler reference market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const retailColumns = `
	match_id, event_name, sport, home_team, away_team,
	home_odds, away_odds, start_time, status, scraped_at, is_active`

func scanRetailMarket(rows *sql.Rows) (RetailMarket, error) {
	var m RetailMarket
	err := rows.Scan(
		&m.MatchID, &m.EventName, &m.Sport, &m.HomeTeam, &m.AwayTeam,
		&m.HomeOdds, &m.AwayOdds, &m.StartTime, &m.Status, &m.ScrapedAt, &m.IsActive,
	)
	return m, err
}

// GetActiveRetailMarkets devolve os mercados retail do snapshot atual.
func (s *Store) GetActiveRetailMarkets(ctx context.Context) ([]RetailMarket, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+retailColumns+" FROM retail_markets WHERE is_active = TRUE ORDER BY start_time NULLS LAST")
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar retail markets: %w", err)
	}
	defer rows.Close()

	var out []RetailMarket
	for rows.Next() {
		m, err := scanRetailMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler retail market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertMapping registra (ou atualiza a confiança de) um par reference/retail.
func (s *Store) UpsertMapping(ctx context.Context, referenceID, retailID string, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_mappings (reference_id, retail_id, confidence)
		VALUES ($1, $2, $3)
		ON CONFLICT (reference_id, retail_id) DO UPDATE SET confidence = EXCLUDED.confidence`,
		referenceID, retailID, confidence)
	if err != nil {
		return fmt.Errorf("erro ao gravar mapping %s->%s: %w", referenceID, retailID, err)
	}
	return nil
}

// GetMappedReferenceIDs devolve os ids reference que já têm mapping; o
// matcher usa isso pra só trabalhar nos pendentes.
func (s *Store) GetMappedReferenceIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT reference_id FROM match_mappings")
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar mappings: %w", err)
	}
	defer rows.Close()

	mapped := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("erro ao ler mapping: %w", err)
		}
		mapped[id] = struct{}{}
	}
	return mapped, rows.Err()
}

// UnmatchedMarkets lista os mercados ativos sem mapping dos dois lados.
func (s *Store) UnmatchedMarkets(ctx context.Context) (UnmatchedMarkets, error) {
	var out UnmatchedMarkets

	refRows, err := s.db.QueryContext(ctx, `
		SELECT `+referenceColumns+`
		FROM reference_markets r
		WHERE r.is_active = TRUE
		  AND NOT EXISTS (SELECT 1 FROM match_mappings m WHERE m.reference_id = r.id)
		ORDER BY r.start_time NULLS LAST`)
	if err != nil {
		return out, fmt.Errorf("erro ao buscar reference sem match: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		m, err := scanReferenceMarket(refRows)
		if err != nil {
			return out, fmt.Errorf("erro ao ler reference sem match: %w", err)
		}
		out.Reference = append(out.Reference, m)
	}
	if err := refRows.Err(); err != nil {
		return out, err
	}

	retRows, err := s.db.QueryContext(ctx, `
		SELECT `+retailColumns+`
		FROM retail_markets t
		WHERE t.is_active = TRUE
		  AND NOT EXISTS (SELECT 1 FROM match_mappings m WHERE m.retail_id = t.match_id)
		ORDER BY t.start_time NULLS LAST`)
	if err != nil {
		return out, fmt.Errorf("erro ao buscar retail sem match: %w", err)
	}
	defer retRows.Close()
	for retRows.Next() {
		m, err := scanRetailMarket(retRows)
		if err != nil {
			return out, fmt.Errorf("erro ao ler retail sem match: %w", err)
		}
		out.Retail = append(out.Retail, m)
	}
	return out, retRows.Err()
}
