package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/esports-ev-finder/internal/store"
)

// placeBet registra uma aposta congelando EV e odd justa do momento
func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var in store.PlaceBetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bet, err := a.Store.PlaceBet(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	bets, err := a.Store.ListBets(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if bets == nil {
		bets = []store.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

func (a *API) getBet(w http.ResponseWriter, r *http.Request) {
	bet, err := a.Store.GetBet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrBetNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// settleBet aplica o resultado: win, loss ou void
func (a *API) settleBet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bet, err := a.Store.SettleBet(r.Context(), chi.URLParam(r, "id"), body.Result)
	if errors.Is(err, store.ErrBetNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// updateBetCLV calcula o CLV se a closing line já existe; senão informa que
// ainda não está pronta
func (a *API) updateBetCLV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	updated, err := a.Store.UpdateBetCLV(r.Context(), id)
	if errors.Is(err, store.ErrBetNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !updated {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false, "reason": "closing line ainda não capturada"})
		return
	}
	bet, err := a.Store.GetBet(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true, "bet": bet})
}

func (a *API) deleteBet(w http.ResponseWriter, r *http.Request) {
	err := a.Store.DeleteBet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrBetNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) betStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Store.GetBetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// listArchive lista mercados já iniciados (?sport=, ?limit=)
func (a *API) listArchive(w http.ResponseWriter, r *http.Request) {
	sport := strings.TrimSpace(r.URL.Query().Get("sport"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("limit inválido"))
			return
		}
		limit = v
	}
	markets, err := a.Store.ArchivedMarkets(r.Context(), sport, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if markets == nil {
		markets = []store.ReferenceMarket{}
	}
	writeJSON(w, http.StatusOK, markets)
}

func (a *API) getArchived(w http.ResponseWriter, r *http.Request) {
	m, err := a.Store.ArchivedMarket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, errors.New("mercado não encontrado"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) archiveStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Store.ArchiveStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) clearArchive(w http.ResponseWriter, r *http.Request) {
	removed, err := a.Store.ClearArchive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
