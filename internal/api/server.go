package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/api/ws"
	"github.com/radieske/esports-ev-finder/internal/cycle"
	"github.com/radieske/esports-ev-finder/internal/store"
)

// API expõe os endpoints REST do serviço: projeção de EV, apostas, closing
// lines, arquivo e controle do ciclo.
type API struct {
	// BaseCtx é o contexto de vida do serviço; o loop do scheduler roda
	// nele, não no contexto da request que o iniciou.
	BaseCtx   context.Context
	Store     *store.Store
	MatchIDs  *store.MatchIDSet
	Runner    *cycle.Runner
	Scheduler *cycle.Scheduler
	Cache     *ViewCache
	Hub       *ws.Hub
	Logger    *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	// Projeção de mercados
	r.Get("/v1/markets", a.listMarkets)
	r.Get("/v1/markets/positive", a.listPositiveMarkets)
	r.Get("/v1/markets/unmatched", a.listUnmatchedMarkets)
	r.Get("/v1/stats", a.getStats)

	// Gatilhos manuais do ciclo
	r.Post("/v1/cycle", a.runCycle)
	r.Post("/v1/scrape/reference", a.scrapeReference)
	r.Post("/v1/scrape/retail", a.scrapeRetail)
	r.Post("/v1/match", a.runMatch)
	r.Post("/v1/rematch", a.runRematch)
	r.Post("/v1/closing/capture", a.captureClosing)

	// Apostas
	r.Post("/v1/bets", a.placeBet)
	r.Get("/v1/bets", a.listBets)
	r.Get("/v1/bets/stats/summary", a.betStats)
	r.Get("/v1/bets/{id}", a.getBet)
	r.Post("/v1/bets/{id}/result", a.settleBet)
	r.Post("/v1/bets/{id}/clv", a.updateBetCLV)
	r.Delete("/v1/bets/{id}", a.deleteBet)

	// Arquivo de closing lines
	r.Get("/v1/archive", a.listArchive)
	r.Get("/v1/archive/stats", a.archiveStats)
	r.Get("/v1/archive/{id}", a.getArchived)
	r.Delete("/v1/archive", a.clearArchive)

	// Scheduler
	r.Get("/v1/scheduler", a.schedulerStatus)
	r.Post("/v1/scheduler/start", a.schedulerStart)
	r.Post("/v1/scheduler/stop", a.schedulerStop)
	r.Put("/v1/scheduler/interval", a.schedulerInterval)

	// Match ids do soft book
	r.Post("/v1/matchids", a.addMatchIDs)
	r.Get("/v1/matchids", a.listMatchIDs)
	r.Delete("/v1/matchids", a.clearMatchIDs)

	r.Delete("/v1/data", a.clearData)

	r.Get("/ws", a.Hub.HandleWS)
	return r
}

func (a *API) baseCtx() context.Context {
	if a.BaseCtx != nil {
		return a.BaseCtx
	}
	return context.Background()
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// listMarkets retorna a projeção de EV dos pares mapeados, com cache curto
func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	var cached []store.MatchedMarket
	if ok, _ := a.Cache.GetMarkets(r.Context(), &cached); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	markets, err := a.Store.MatchedMarkets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if markets == nil {
		markets = []store.MatchedMarket{}
	}
	_ = a.Cache.SetMarkets(r.Context(), markets)
	writeJSON(w, http.StatusOK, markets)
}

// listPositiveMarkets filtra por EV mínimo (?min_ev=) e esporte (?sport=)
func (a *API) listPositiveMarkets(w http.ResponseWriter, r *http.Request) {
	minEV := 0.0
	if raw := r.URL.Query().Get("min_ev"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("min_ev inválido"))
			return
		}
		minEV = v
	}
	sport := strings.TrimSpace(r.URL.Query().Get("sport"))

	markets, err := a.Store.PositiveEVMarkets(r.Context(), minEV, sport)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, markets)
}

func (a *API) listUnmatchedMarkets(w http.ResponseWriter, r *http.Request) {
	unmatched, err := a.Store.UnmatchedMarkets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, unmatched)
}

// getStats resume o estado corrente: contagens dos dois books, pares
// mapeados, quantos têm EV positivo e a quebra por esporte
func (a *API) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	refs, err := a.Store.GetActiveReferenceMarkets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	retail, err := a.Store.GetActiveRetailMarkets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	matched, err := a.Store.MatchedMarkets(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	positive := 0
	bySport := make(map[string]int)
	for _, m := range matched {
		bySport[m.Sport]++
		if m.BestBet != nil && m.BestEVPct > 0 {
			positive++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reference_markets": len(refs),
		"retail_markets":    len(retail),
		"matched_pairs":     len(matched),
		"positive_ev":       positive,
		"matched_by_sport":  bySport,
		"scheduler":         a.Scheduler.Status(),
	})
}

func (a *API) runCycle(w http.ResponseWriter, r *http.Request) {
	res, err := a.Runner.RunCycle(r.Context())
	if errors.Is(err, cycle.ErrCycleRunning) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, res)
}

func (a *API) scrapeReference(w http.ResponseWriter, r *http.Request) {
	n, err := a.Runner.ScrapeReference(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"reference_markets": n})
}

func (a *API) scrapeRetail(w http.ResponseWriter, r *http.Request) {
	n, err := a.Runner.ScrapeRetail(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"retail_markets": n})
}

func (a *API) runMatch(w http.ResponseWriter, r *http.Request) {
	created, err := a.Runner.MatchPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"new_mappings": created})
}

// runRematch descarta todos os mappings e roda o matcher do zero
func (a *API) runRematch(w http.ResponseWriter, r *http.Request) {
	removed, err := a.Store.ClearMappings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	created, err := a.Runner.MatchPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"removed_mappings": removed,
		"new_mappings":     created,
	})
}

// captureClosing congela as closing lines vencidas e recalcula CLV pendente
func (a *API) captureClosing(w http.ResponseWriter, r *http.Request) {
	captured, err := a.Runner.CaptureClosing(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	updated, err := a.Store.UpdatePendingCLV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"closing_captured": captured,
		"clv_updated":      updated,
	})
}

func (a *API) schedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Scheduler.Status())
}

func (a *API) schedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := a.Scheduler.Start(a.baseCtx()); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Scheduler.Status())
}

func (a *API) schedulerStop(w http.ResponseWriter, r *http.Request) {
	a.Scheduler.Stop()
	writeJSON(w, http.StatusOK, a.Scheduler.Status())
}

func (a *API) schedulerInterval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.Scheduler.UpdateInterval(a.baseCtx(), body.Minutes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Scheduler.Status())
}

func (a *API) addMatchIDs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MatchIDs []string `json:"match_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.MatchIDs) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("match_ids vazio"))
		return
	}
	added, err := a.MatchIDs.Add(r.Context(), body.MatchIDs...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"added": added})
}

func (a *API) listMatchIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := a.MatchIDs.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"match_ids": ids})
}

func (a *API) clearMatchIDs(w http.ResponseWriter, r *http.Request) {
	if err := a.MatchIDs.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clearData limpa mercados e mappings; apostas ficam intactas
func (a *API) clearData(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	_ = a.Cache.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
