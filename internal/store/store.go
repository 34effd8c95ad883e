package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Store encapsula o acesso ao Postgres. Toda lógica de EV/CLV mora aqui ou
// em internal/oddsmath; quem chama só orquestra.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New cria o Store sobre uma conexão já aberta.
func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// InitSchema cria as tabelas se não existirem. Idempotente, roda no boot.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reference_markets (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			sport TEXT NOT NULL DEFAULT '',
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_fair_odds DOUBLE PRECISION NOT NULL,
			away_fair_odds DOUBLE PRECISION NOT NULL,
			home_fair_prob DOUBLE PRECISION NOT NULL,
			away_fair_prob DOUBLE PRECISION NOT NULL,
			home_prop_odds DOUBLE PRECISION,
			away_prop_odds DOUBLE PRECISION,
			home_prop_prob DOUBLE PRECISION,
			away_prop_prob DOUBLE PRECISION,
			start_time TIMESTAMPTZ,
			home_closing_odds DOUBLE PRECISION,
			away_closing_odds DOUBLE PRECISION,
			closing_captured_at TIMESTAMPTZ,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS retail_markets (
			match_id TEXT PRIMARY KEY,
			event_name TEXT NOT NULL,
			sport TEXT NOT NULL DEFAULT '',
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_odds DOUBLE PRECISION NOT NULL,
			away_odds DOUBLE PRECISION NOT NULL,
			start_time TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT '',
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS match_mappings (
			id SERIAL PRIMARY KEY,
			reference_id TEXT NOT NULL REFERENCES reference_markets(id) ON DELETE CASCADE,
			retail_id TEXT NOT NULL REFERENCES retail_markets(match_id) ON DELETE CASCADE,
			confidence DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (reference_id, retail_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			id TEXT PRIMARY KEY,
			reference_id TEXT NOT NULL,
			event TEXT NOT NULL,
			sport TEXT NOT NULL DEFAULT '',
			home_team TEXT NOT NULL,
			away_team TEXT NOT NULL,
			bet_side TEXT NOT NULL,
			bet_team TEXT NOT NULL,
			odds DOUBLE PRECISION NOT NULL,
			stake DOUBLE PRECISION NOT NULL,
			expected_value DOUBLE PRECISION NOT NULL,
			ev_percentage DOUBLE PRECISION NOT NULL,
			fair_odds DOUBLE PRECISION NOT NULL,
			potential_return DOUBLE PRECISION NOT NULL,
			potential_profit DOUBLE PRECISION NOT NULL,
			start_time TIMESTAMPTZ,
			placed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			status TEXT NOT NULL DEFAULT 'pending',
			result TEXT,
			actual_return DOUBLE PRECISION,
			closing_odds DOUBLE PRECISION,
			clv DOUBLE PRECISION,
			clv_percentage DOUBLE PRECISION,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reference_active ON reference_markets (is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_retail_active ON retail_markets (is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_reference ON match_mappings (reference_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_status ON bets (status)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("erro ao criar schema: %w", err)
		}
	}
	s.logger.Info("schema inicializado")
	return nil
}

// ClearAll apaga todos os dados de mercado e mappings. Bets ficam.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, table := range []string{"match_mappings", "reference_markets", "retail_markets"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("erro ao limpar %s: %w", table, err)
		}
	}
	return nil
}

// ClearMappings apaga só os mappings, pra forçar um re-match completo.
func (s *Store) ClearMappings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM match_mappings")
	if err != nil {
		return 0, fmt.Errorf("erro ao limpar mappings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
