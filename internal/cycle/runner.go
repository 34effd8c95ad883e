package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/matcher"
	"github.com/radieske/esports-ev-finder/internal/store"
	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

// ErrCycleRunning indica que um ciclo já está em andamento; ciclos nunca se
// sobrepõem.
var ErrCycleRunning = errors.New("ciclo já em execução")

// MarketStore é o recorte do store que o ciclo usa.
type MarketStore interface {
	ReplaceReferenceMarkets(ctx context.Context, markets []store.ReferenceMarket) error
	ReplaceRetailMarkets(ctx context.Context, markets []store.RetailMarket) error
	GetActiveReferenceMarkets(ctx context.Context) ([]store.ReferenceMarket, error)
	GetActiveRetailMarkets(ctx context.Context) ([]store.RetailMarket, error)
	GetMappedReferenceIDs(ctx context.Context) (map[string]struct{}, error)
	UpsertMapping(ctx context.Context, referenceID, retailID string, confidence float64) error
	PositiveEVMarkets(ctx context.Context, minEVPct float64, sport string) ([]store.MatchedMarket, error)
	CaptureClosingLines(ctx context.Context) ([]store.CapturedLine, error)
	UpdatePendingCLV(ctx context.Context) (int, error)
	PurgeStaleUnmatched(ctx context.Context) (int64, error)
}

// ReferenceSource scrapeia o sharp book.
type ReferenceSource interface {
	FetchMarkets(ctx context.Context) ([]store.ReferenceMarket, error)
}

// RetailSource scrapeia o soft book pros ids pedidos.
type RetailSource interface {
	FetchAll(ctx context.Context, matchIDs []string) []store.RetailMarket
}

// MatchIDSource fornece os ids retail a buscar.
type MatchIDSource interface {
	All(ctx context.Context) ([]string, error)
}

// Result resume um ciclo: contagens e o status de cada etapa.
type Result struct {
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       time.Time         `json:"finished_at"`
	ReferenceMarkets int               `json:"reference_markets"`
	RetailMarkets    int               `json:"retail_markets"`
	NewMappings      int               `json:"new_mappings"`
	ClosingCaptured  int               `json:"closing_captured"`
	CLVUpdated       int               `json:"clv_updated"`
	Purged           int64             `json:"purged"`
	AlertsSent       int               `json:"alerts_sent"`
	Steps            map[string]string `json:"steps"`
}

// Runner executa o ciclo completo: scrape dos dois books, matching dos
// pendentes, captura de closing line, CLV e purga. Cada etapa falha sozinha;
// as seguintes rodam mesmo assim.
type Runner struct {
	store     MarketStore
	reference ReferenceSource
	retail    RetailSource
	matchIDs  MatchIDSource
	matcher   *matcher.Matcher
	notifier  Notifier
	logger    *zap.Logger

	// AlertMinEVPct é o corte pra publicar value alerts.
	AlertMinEVPct float64

	mu sync.Mutex
}

func NewRunner(st MarketStore, ref ReferenceSource, ret RetailSource, ids MatchIDSource, m *matcher.Matcher, n Notifier, logger *zap.Logger) *Runner {
	return &Runner{
		store:         st,
		reference:     ref,
		retail:        ret,
		matchIDs:      ids,
		matcher:       m,
		notifier:      n,
		logger:        logger,
		AlertMinEVPct: 2.0,
	}
}

func (r *Runner) stepFailed(res *Result, step string, err error) {
	res.Steps[step] = "error: " + err.Error()
	cycleStepErrors.WithLabelValues(step).Inc()
	r.logger.Error("etapa do ciclo falhou", zap.String("step", step), zap.Error(err))
}

// RunCycle roda um ciclo completo. Devolve ErrCycleRunning se outro ciclo
// ainda está no ar.
func (r *Runner) RunCycle(ctx context.Context) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrCycleRunning
	}
	defer r.mu.Unlock()

	start := time.Now().UTC()
	res := &Result{StartedAt: start, Steps: make(map[string]string)}
	defer func() {
		res.FinishedAt = time.Now().UTC()
		cyclesTotal.Inc()
		cycleDuration.Observe(time.Since(start).Seconds())
	}()

	// 1. sharp book
	if n, err := r.ScrapeReference(ctx); err != nil {
		r.stepFailed(res, "scrape_reference", err)
	} else {
		res.ReferenceMarkets = n
		res.Steps["scrape_reference"] = "ok"
	}

	// 2. soft book
	if ids, err := r.matchIDs.All(ctx); err != nil {
		r.stepFailed(res, "scrape_retail", err)
	} else if len(ids) == 0 {
		res.Steps["scrape_retail"] = "skipped: nenhum match id registrado"
	} else if n, err := r.ScrapeRetail(ctx); err != nil {
		r.stepFailed(res, "scrape_retail", err)
	} else {
		res.RetailMarkets = n
		res.Steps["scrape_retail"] = "ok"
	}

	// 3. matching dos pendentes
	if created, err := r.MatchPending(ctx); err != nil {
		r.stepFailed(res, "match", err)
	} else {
		res.NewMappings = created
		res.Steps["match"] = "ok"
	}

	// 4. alertas de EV positivo
	if sent, err := r.publishAlerts(ctx); err != nil {
		r.stepFailed(res, "alerts", err)
	} else {
		res.AlertsSent = sent
		res.Steps["alerts"] = "ok"
	}

	// 5. closing lines + CLV
	if captured, err := r.CaptureClosing(ctx); err != nil {
		r.stepFailed(res, "closing", err)
	} else {
		res.ClosingCaptured = captured
		res.Steps["closing"] = "ok"
	}
	if updated, err := r.store.UpdatePendingCLV(ctx); err != nil {
		r.stepFailed(res, "clv", err)
	} else {
		res.CLVUpdated = updated
		res.Steps["clv"] = "ok"
	}

	// 6. purga dos órfãos já iniciados
	if purged, err := r.store.PurgeStaleUnmatched(ctx); err != nil {
		r.stepFailed(res, "purge", err)
	} else {
		res.Purged = purged
		res.Steps["purge"] = "ok"
	}

	r.logger.Info("ciclo concluído",
		zap.Int("reference_markets", res.ReferenceMarkets),
		zap.Int("retail_markets", res.RetailMarkets),
		zap.Int("new_mappings", res.NewMappings),
		zap.Int("closing_captured", res.ClosingCaptured),
		zap.Int("clv_updated", res.CLVUpdated),
		zap.Int64("purged", res.Purged),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// ScrapeReference atualiza o snapshot do sharp book e devolve quantos
// mercados vieram.
func (r *Runner) ScrapeReference(ctx context.Context) (int, error) {
	markets, err := r.reference.FetchMarkets(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.store.ReplaceReferenceMarkets(ctx, markets); err != nil {
		return 0, err
	}
	return len(markets), nil
}

// ScrapeRetail atualiza o snapshot do soft book pros match ids registrados.
func (r *Runner) ScrapeRetail(ctx context.Context) (int, error) {
	ids, err := r.matchIDs.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	markets := r.retail.FetchAll(ctx, ids)
	if err := r.store.ReplaceRetailMarkets(ctx, markets); err != nil {
		return 0, err
	}
	return len(markets), nil
}

// MatchPending roda o matcher só nos mercados reference sem mapping contra os
// retail ainda livres. Rodar duas vezes seguidas não cria nada novo.
func (r *Runner) MatchPending(ctx context.Context) (int, error) {
	refs, err := r.store.GetActiveReferenceMarkets(ctx)
	if err != nil {
		return 0, err
	}
	retail, err := r.store.GetActiveRetailMarkets(ctx)
	if err != nil {
		return 0, err
	}
	mappedRefs, err := r.store.GetMappedReferenceIDs(ctx)
	if err != nil {
		return 0, err
	}

	// Todos os retail ativos concorrem, inclusive os já mapeados: a seleção
	// é gulosa por mercado reference, sem unicidade bipartida.
	candidates := make([]matcher.Game, 0, len(retail))
	for _, m := range retail {
		candidates = append(candidates, retailGame(m))
	}

	created := 0
	for _, ref := range refs {
		if _, done := mappedRefs[ref.ID]; done {
			continue
		}
		best, confidence, ok := r.matcher.FindBestMatch(referenceGame(ref), candidates)
		if !ok {
			continue
		}
		if err := r.store.UpsertMapping(ctx, ref.ID, best.ID, confidence); err != nil {
			return created, err
		}
		created++
		mappingsCreated.Inc()
		r.logger.Info("mapping criado",
			zap.String("reference_id", ref.ID),
			zap.String("retail_id", best.ID),
			zap.Float64("confidence", confidence))
	}
	return created, nil
}

// CaptureClosing congela as closing lines vencidas e publica um evento por
// captura.
func (r *Runner) CaptureClosing(ctx context.Context) (int, error) {
	captured, err := r.store.CaptureClosingLines(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range captured {
		closingCaptured.Inc()
		ev := events.ClosingLineCaptured{
			ReferenceID:     c.ReferenceID,
			Event:           c.Event,
			Sport:           c.Sport,
			HomeTeam:        c.HomeTeam,
			AwayTeam:        c.AwayTeam,
			HomeClosingOdds: c.HomeClosingOdds,
			AwayClosingOdds: c.AwayClosingOdds,
			CapturedAt:      c.CapturedAt,
		}
		if c.StartTime != nil {
			ev.StartTime = *c.StartTime
		}
		if err := r.notifier.NotifyClosingLine(ctx, ev); err != nil {
			r.logger.Warn("erro ao notificar closing line",
				zap.String("reference_id", c.ReferenceID), zap.Error(err))
		}
	}
	return len(captured), nil
}

func (r *Runner) publishAlerts(ctx context.Context) (int, error) {
	rows, err := r.store.PositiveEVMarkets(ctx, r.AlertMinEVPct, "")
	if err != nil {
		return 0, err
	}
	sent := 0
	now := time.Now().UTC()
	for _, row := range rows {
		if row.BestBet == nil {
			continue
		}
		retailOdds := row.RetailAwayOdds
		if *row.BestBet == "home" {
			retailOdds = row.RetailHomeOdds
		}
		ev := events.ValueAlert{
			ReferenceID: row.ReferenceID,
			RetailID:    row.RetailID,
			Event:       row.Event,
			Sport:       row.Sport,
			HomeTeam:    row.HomeTeam,
			AwayTeam:    row.AwayTeam,
			BestBet:     *row.BestBet,
			BestEVPct:   row.BestEVPct,
			RetailOdds:  retailOdds,
			DetectedAt:  now,
		}
		if row.StartTime != nil {
			ev.StartTime = *row.StartTime
		}
		if err := r.notifier.NotifyValueAlert(ctx, ev); err != nil {
			r.logger.Warn("erro ao publicar alerta",
				zap.String("reference_id", row.ReferenceID), zap.Error(err))
			continue
		}
		sent++
		valueAlertsSent.Inc()
	}
	return sent, nil
}

func referenceGame(m store.ReferenceMarket) matcher.Game {
	g := matcher.Game{ID: m.ID, HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam, Event: fmt.Sprintf("%s %s", m.Event, m.Sport)}
	if m.StartTime != nil {
		g.StartTime = *m.StartTime
	}
	return g
}

func retailGame(m store.RetailMarket) matcher.Game {
	g := matcher.Game{ID: m.MatchID, HomeTeam: m.HomeTeam, AwayTeam: m.AwayTeam, Event: fmt.Sprintf("%s %s", m.EventName, m.Sport)}
	if m.StartTime != nil {
		g.StartTime = *m.StartTime
	}
	return g
}
