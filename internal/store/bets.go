package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/esports-ev-finder/internal/oddsmath"
)

// PlaceBetInput é o que o usuário informa; o resto do registro é snapshot
// calculado aqui.
type PlaceBetInput struct {
	ReferenceID string  `json:"reference_id"`
	BetSide     string  `json:"bet_side"`
	Odds        float64 `json:"odds"`
	Stake       float64 `json:"stake"`
	Notes       string  `json:"notes"`
}

// PlaceBet grava uma aposta congelando as métricas de EV do momento. A odd
// justa e a probabilidade vêm do mercado reference no lado apostado.
func (s *Store) PlaceBet(ctx context.Context, in PlaceBetInput) (*Bet, error) {
	if in.BetSide != "home" && in.BetSide != "away" {
		return nil, fmt.Errorf("bet_side inválido: %q", in.BetSide)
	}
	if in.Odds <= 1.0 {
		return nil, fmt.Errorf("odds inválidas: %.2f", in.Odds)
	}
	if in.Stake <= 0 {
		return nil, fmt.Errorf("stake inválido: %.2f", in.Stake)
	}

	var m ReferenceMarket
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event, sport, home_team, away_team,
		       home_fair_odds, away_fair_odds, home_fair_prob, away_fair_prob, start_time
		FROM reference_markets WHERE id = $1`, in.ReferenceID).
		Scan(&m.ID, &m.Event, &m.Sport, &m.HomeTeam, &m.AwayTeam,
			&m.HomeFairOdds, &m.AwayFairOdds, &m.HomeFairProb, &m.AwayFairProb, &m.StartTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mercado %s não encontrado", in.ReferenceID)
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar mercado %s: %w", in.ReferenceID, err)
	}

	fairOdds, fairProb, team := m.AwayFairOdds, m.AwayFairProb, m.AwayTeam
	if in.BetSide == "home" {
		fairOdds, fairProb, team = m.HomeFairOdds, m.HomeFairProb, m.HomeTeam
	}

	bet := Bet{
		ID:              uuid.NewString(),
		ReferenceID:     m.ID,
		Event:           m.Event,
		Sport:           m.Sport,
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		BetSide:         in.BetSide,
		BetTeam:         team,
		Odds:            in.Odds,
		Stake:           in.Stake,
		ExpectedValue:   oddsmath.EV(fairProb, in.Odds),
		EVPercentage:    oddsmath.EVPercent(fairProb, in.Odds),
		FairOdds:        fairOdds,
		PotentialReturn: oddsmath.Round2(in.Stake * in.Odds),
		PotentialProfit: oddsmath.Round2(in.Stake * (in.Odds - 1)),
		StartTime:       m.StartTime,
		Status:          "pending",
	}
	var notes *string
	if in.Notes != "" {
		notes = &in.Notes
	}
	bet.Notes = notes

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO bets (
			id, reference_id, event, sport, home_team, away_team,
			bet_side, bet_team, odds, stake,
			expected_value, ev_percentage, fair_odds,
			potential_return, potential_profit, start_time, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING placed_at`,
		bet.ID, bet.ReferenceID, bet.Event, bet.Sport, bet.HomeTeam, bet.AwayTeam,
		bet.BetSide, bet.BetTeam, bet.Odds, bet.Stake,
		bet.ExpectedValue, bet.EVPercentage, bet.FairOdds,
		bet.PotentialReturn, bet.PotentialProfit, bet.StartTime, bet.Notes,
	).Scan(&bet.PlacedAt)
	if err != nil {
		return nil, fmt.Errorf("erro ao gravar aposta: %w", err)
	}
	return &bet, nil
}

const betColumns = `
	id, reference_id, event, sport, home_team, away_team,
	bet_side, bet_team, odds, stake,
	expected_value, ev_percentage, fair_odds,
	potential_return, potential_profit, start_time, placed_at,
	status, result, actual_return, closing_odds, clv, clv_percentage, notes`

func scanBet(rows *sql.Rows) (Bet, error) {
	var b Bet
	err := rows.Scan(
		&b.ID, &b.ReferenceID, &b.Event, &b.Sport, &b.HomeTeam, &b.AwayTeam,
		&b.BetSide, &b.BetTeam, &b.Odds, &b.Stake,
		&b.ExpectedValue, &b.EVPercentage, &b.FairOdds,
		&b.PotentialReturn, &b.PotentialProfit, &b.StartTime, &b.PlacedAt,
		&b.Status, &b.Result, &b.ActualReturn, &b.ClosingOdds, &b.CLV, &b.CLVPercentage, &b.Notes,
	)
	return b, err
}

// ListBets devolve as apostas mais recentes primeiro. Status vazio não filtra.
func (s *Store) ListBets(ctx context.Context, status string) ([]Bet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE ($1 = '' OR status = $1)
		ORDER BY placed_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar apostas: %w", err)
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler aposta: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBet busca uma aposta pelo id.
func (s *Store) GetBet(ctx context.Context, id string) (*Bet, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+betColumns+" FROM bets WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar aposta %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrBetNotFound
	}
	b, err := scanBet(rows)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler aposta %s: %w", id, err)
	}
	return &b, nil
}

// SettleBet aplica o resultado: win vira won com retorno cheio, loss vira
// lost com retorno zero, void vira void devolvendo o stake.
func (s *Store) SettleBet(ctx context.Context, id, result string) (*Bet, error) {
	bet, err := s.GetBet(ctx, id)
	if err != nil {
		return nil, err
	}

	var status string
	var actualReturn float64
	switch result {
	case "win":
		status = "won"
		actualReturn = oddsmath.Round2(bet.Stake * bet.Odds)
	case "loss":
		status = "lost"
		actualReturn = 0
	case "void":
		status = "void"
		actualReturn = bet.Stake
	default:
		return nil, fmt.Errorf("resultado inválido: %q", result)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE bets SET status = $1, result = $2, actual_return = $3 WHERE id = $4",
		status, result, actualReturn, id)
	if err != nil {
		return nil, fmt.Errorf("erro ao liquidar aposta %s: %w", id, err)
	}
	bet.Status = status
	bet.Result = &result
	bet.ActualReturn = &actualReturn
	return bet, nil
}

// DeleteBet remove uma aposta.
func (s *Store) DeleteBet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("erro ao apagar aposta %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBetNotFound
	}
	return nil
}

// GetBetStats agrega o desempenho das apostas. positive_clv_rate é zero
// quando nenhuma aposta tem CLV, nunca divisão por zero.
func (s *Store) GetBetStats(ctx context.Context) (BetStats, error) {
	var stats BetStats
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*),
		       COALESCE(sum(stake), 0),
		       COALESCE(sum(potential_return), 0),
		       count(*) FILTER (WHERE status <> 'pending'),
		       count(*) FILTER (WHERE status = 'pending'),
		       COALESCE(sum(actual_return - stake) FILTER (WHERE status <> 'pending'), 0),
		       COALESCE(avg(ev_percentage), 0),
		       count(clv),
		       count(*) FILTER (WHERE clv > 0),
		       COALESCE(avg(clv), 0)
		FROM bets`).
		Scan(&stats.TotalBets, &stats.TotalStaked, &stats.TotalPotential,
			&stats.SettledBets, &stats.PendingBets, &stats.TotalProfit,
			&stats.AvgEV, &stats.BetsWithCLV, &stats.PositiveCLV, &stats.AvgCLV)
	if err != nil {
		return stats, fmt.Errorf("erro ao agregar apostas: %w", err)
	}
	if stats.BetsWithCLV > 0 {
		stats.PositiveCLVRate = oddsmath.Round2(float64(stats.PositiveCLV) / float64(stats.BetsWithCLV) * 100)
	}
	stats.TotalStaked = oddsmath.Round2(stats.TotalStaked)
	stats.TotalPotential = oddsmath.Round2(stats.TotalPotential)
	stats.TotalProfit = oddsmath.Round2(stats.TotalProfit)
	stats.AvgEV = oddsmath.Round2(stats.AvgEV)
	stats.AvgCLV = oddsmath.Round2(stats.AvgCLV)
	return stats, nil
}
