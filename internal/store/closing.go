package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/esports-ev-finder/internal/oddsmath"
)

// ErrBetNotFound indica id de aposta inexistente.
var ErrBetNotFound = errors.New("aposta não encontrada")

// CaptureClosingLines congela a closing line dos mercados ativos que entraram
// na janela de 5 minutos antes do início e ainda não têm captura. O snapshot
// prefere as odds proporcionais e cai pras power quando faltam. Idempotente:
// a condição home_closing_odds IS NULL garante captura única.
func (s *Store) CaptureClosingLines(ctx context.Context) ([]CapturedLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE reference_markets
		SET home_closing_odds = COALESCE(home_prop_odds, home_fair_odds),
		    away_closing_odds = COALESCE(away_prop_odds, away_fair_odds),
		    closing_captured_at = now()
		WHERE is_active = TRUE
		  AND start_time IS NOT NULL
		  AND home_closing_odds IS NULL
		  AND start_time <= now() + interval '5 minutes'
		RETURNING id, event, sport, home_team, away_team,
		          home_closing_odds, away_closing_odds, start_time, closing_captured_at`)
	if err != nil {
		return nil, fmt.Errorf("erro ao capturar closing lines: %w", err)
	}
	defer rows.Close()

	var out []CapturedLine
	for rows.Next() {
		var c CapturedLine
		if err := rows.Scan(
			&c.ReferenceID, &c.Event, &c.Sport, &c.HomeTeam, &c.AwayTeam,
			&c.HomeClosingOdds, &c.AwayClosingOdds, &c.StartTime, &c.CapturedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao ler closing line: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdatePendingCLV calcula CLV pra toda aposta que ainda não tem e cujo
// mercado já tem closing line. Devolve quantas foram atualizadas.
func (s *Store) UpdatePendingCLV(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.bet_side, b.odds, r.home_closing_odds, r.away_closing_odds
		FROM bets b
		JOIN reference_markets r ON r.id = b.reference_id
		WHERE b.clv IS NULL AND r.home_closing_odds IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("erro ao buscar apostas sem CLV: %w", err)
	}

	type pending struct {
		id      string
		side    string
		odds    float64
		homeCls float64
		awayCls float64
	}
	var batch []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.side, &p.odds, &p.homeCls, &p.awayCls); err != nil {
			rows.Close()
			return 0, fmt.Errorf("erro ao ler aposta sem CLV: %w", err)
		}
		batch = append(batch, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range batch {
		closing := p.awayCls
		if p.side == "home" {
			closing = p.homeCls
		}
		if err := s.applyCLV(ctx, p.id, p.odds, closing); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// UpdateBetCLV calcula o CLV de uma aposta específica. Devolve false quando a
// closing line ainda não existe; segunda chamada com CLV já gravado é no-op.
func (s *Store) UpdateBetCLV(ctx context.Context, betID string) (bool, error) {
	var side string
	var odds float64
	var clv, homeCls, awayCls *float64
	err := s.db.QueryRowContext(ctx, `
		SELECT b.bet_side, b.odds, b.clv, r.home_closing_odds, r.away_closing_odds
		FROM bets b
		JOIN reference_markets r ON r.id = b.reference_id
		WHERE b.id = $1`, betID).Scan(&side, &odds, &clv, &homeCls, &awayCls)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrBetNotFound
	}
	if err != nil {
		return false, fmt.Errorf("erro ao buscar aposta %s: %w", betID, err)
	}
	if clv != nil {
		return false, nil
	}
	if homeCls == nil || awayCls == nil {
		return false, nil
	}
	closing := *awayCls
	if side == "home" {
		closing = *homeCls
	}
	if err := s.applyCLV(ctx, betID, odds, closing); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) applyCLV(ctx context.Context, betID string, betOdds, closingOdds float64) error {
	clv := oddsmath.CLV(betOdds, closingOdds)
	clvPct := oddsmath.CLVPercent(betOdds, closingOdds)
	_, err := s.db.ExecContext(ctx,
		"UPDATE bets SET closing_odds = $1, clv = $2, clv_percentage = $3 WHERE id = $4",
		closingOdds, clv, clvPct, betID)
	if err != nil {
		return fmt.Errorf("erro ao gravar CLV da aposta %s: %w", betID, err)
	}
	return nil
}

// PurgeStaleUnmatched apaga mercados reference já iniciados que nunca foram
// mapeados. Mercados com aposta ficam, mesmo sem mapping.
func (s *Store) PurgeStaleUnmatched(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reference_markets r
		WHERE r.start_time IS NOT NULL
		  AND r.start_time < now()
		  AND NOT EXISTS (SELECT 1 FROM match_mappings m WHERE m.reference_id = r.id)
		  AND NOT EXISTS (SELECT 1 FROM bets b WHERE b.reference_id = r.id)`)
	if err != nil {
		return 0, fmt.Errorf("erro ao purgar mercados órfãos: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ArchivedMarkets lista os mercados reference já iniciados (o histórico de
// closing lines). Sport vazio não filtra; limit <= 0 vira 100.
func (s *Store) ArchivedMarkets(ctx context.Context, sport string, limit int) ([]ReferenceMarket, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+referenceColumns+`
		FROM reference_markets
		WHERE start_time IS NOT NULL AND start_time < now()
		  AND ($1 = '' OR lower(sport) = lower($1))
		ORDER BY start_time DESC
		LIMIT $2`, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar arquivo: %w", err)
	}
	defer rows.Close()

	var out []ReferenceMarket
	for rows.Next() {
		m, err := scanReferenceMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler mercado arquivado: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ArchivedMarket busca um mercado arquivado pelo id.
func (s *Store) ArchivedMarket(ctx context.Context, id string) (*ReferenceMarket, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+referenceColumns+" FROM reference_markets WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar mercado %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	m, err := scanReferenceMarket(rows)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler mercado %s: %w", id, err)
	}
	return &m, nil
}

// ArchiveStats resume o arquivo: total de iniciados, quantos têm closing line
// e a quebra por sport.
func (s *Store) ArchiveStats(ctx context.Context) (ArchiveStats, error) {
	stats := ArchiveStats{BySport: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT count(*), count(home_closing_odds)
		FROM reference_markets
		WHERE start_time IS NOT NULL AND start_time < now()`).
		Scan(&stats.TotalArchived, &stats.WithClosing)
	if err != nil {
		return stats, fmt.Errorf("erro ao agregar arquivo: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sport, count(*)
		FROM reference_markets
		WHERE start_time IS NOT NULL AND start_time < now()
		GROUP BY sport`)
	if err != nil {
		return stats, fmt.Errorf("erro ao agregar arquivo por sport: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sport string
		var n int
		if err := rows.Scan(&sport, &n); err != nil {
			return stats, fmt.Errorf("erro ao ler agregado por sport: %w", err)
		}
		stats.BySport[sport] = n
	}
	return stats, rows.Err()
}

// ClearArchive apaga os mercados arquivados sem aposta associada. Devolve
// quantos saíram.
func (s *Store) ClearArchive(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reference_markets r
		WHERE r.start_time IS NOT NULL
		  AND r.start_time < now()
		  AND NOT EXISTS (SELECT 1 FROM bets b WHERE b.reference_id = r.id)`)
	if err != nil {
		return 0, fmt.Errorf("erro ao limpar arquivo: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
