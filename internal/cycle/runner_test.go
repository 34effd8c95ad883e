package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/matcher"
	"github.com/radieske/esports-ev-finder/internal/normalize"
	"github.com/radieske/esports-ev-finder/internal/store"
	"github.com/radieske/esports-ev-finder/pkg/contracts/events"
)

type fakeStore struct {
	reference []store.ReferenceMarket
	retail    []store.RetailMarket
	mappings  map[string]string // reference_id -> retail_id

	replaceRefErr error
	captureErr    error

	captured []store.CapturedLine
	purged   int64
	positive []store.MatchedMarket
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: make(map[string]string)}
}

func (f *fakeStore) ReplaceReferenceMarkets(_ context.Context, m []store.ReferenceMarket) error {
	if f.replaceRefErr != nil {
		return f.replaceRefErr
	}
	f.reference = m
	return nil
}

func (f *fakeStore) ReplaceRetailMarkets(_ context.Context, m []store.RetailMarket) error {
	f.retail = m
	return nil
}

func (f *fakeStore) GetActiveReferenceMarkets(context.Context) ([]store.ReferenceMarket, error) {
	return f.reference, nil
}

func (f *fakeStore) GetActiveRetailMarkets(context.Context) ([]store.RetailMarket, error) {
	return f.retail, nil
}

func (f *fakeStore) GetMappedReferenceIDs(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for ref := range f.mappings {
		out[ref] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) UpsertMapping(_ context.Context, refID, retID string, _ float64) error {
	f.mappings[refID] = retID
	return nil
}

func (f *fakeStore) PositiveEVMarkets(context.Context, float64, string) ([]store.MatchedMarket, error) {
	return f.positive, nil
}

func (f *fakeStore) CaptureClosingLines(context.Context) ([]store.CapturedLine, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	out := f.captured
	f.captured = nil // segunda passada não devolve nada, como o WHERE ... IS NULL real
	return out, nil
}

func (f *fakeStore) UpdatePendingCLV(context.Context) (int, error) { return 0, nil }

func (f *fakeStore) PurgeStaleUnmatched(context.Context) (int64, error) { return f.purged, nil }

type fakeReference struct {
	markets []store.ReferenceMarket
	err     error
}

func (f *fakeReference) FetchMarkets(context.Context) ([]store.ReferenceMarket, error) {
	return f.markets, f.err
}

type fakeRetail struct{ markets []store.RetailMarket }

func (f *fakeRetail) FetchAll(context.Context, []string) []store.RetailMarket { return f.markets }

type fakeIDs struct{ ids []string }

func (f *fakeIDs) All(context.Context) ([]string, error) { return f.ids, nil }

type fakeNotifier struct {
	closings []events.ClosingLineCaptured
	alerts   []events.ValueAlert
}

func (f *fakeNotifier) NotifyClosingLine(_ context.Context, ev events.ClosingLineCaptured) error {
	f.closings = append(f.closings, ev)
	return nil
}

func (f *fakeNotifier) NotifyValueAlert(_ context.Context, ev events.ValueAlert) error {
	f.alerts = append(f.alerts, ev)
	return nil
}

func testMatcher() *matcher.Matcher {
	return matcher.New(matcher.NewSequenceProvider(), normalize.DefaultAliases())
}

func refMarket(id, home, away string, start time.Time) store.ReferenceMarket {
	return store.ReferenceMarket{
		ID: id, Event: "BLAST Premier", Sport: "cs2",
		HomeTeam: home, AwayTeam: away,
		HomeFairOdds: 1.90, AwayFairOdds: 2.10,
		HomeFairProb: 0.526, AwayFairProb: 0.474,
		StartTime: &start,
	}
}

func retMarket(id, home, away string, start time.Time) store.RetailMarket {
	return store.RetailMarket{
		MatchID: id, EventName: "BLAST Premier", Sport: "cs2",
		HomeTeam: home, AwayTeam: away,
		HomeOdds: 2.00, AwayOdds: 1.95,
		StartTime: &start,
	}
}

func newTestRunner(st *fakeStore, ref *fakeReference, ret *fakeRetail, ids *fakeIDs, n *fakeNotifier) *Runner {
	return NewRunner(st, ref, ret, ids, testMatcher(), n, zap.NewNop())
}

func TestRunCycleHappyPath(t *testing.T) {
	start := time.Now().UTC().Add(3 * time.Hour)
	st := newFakeStore()
	ref := &fakeReference{markets: []store.ReferenceMarket{
		refMarket("r1", "G2 Esports", "Team Vitality", start),
	}}
	ret := &fakeRetail{markets: []store.RetailMarket{
		retMarket("m1", "G2", "Vitality", start),
	}}
	n := &fakeNotifier{}
	runner := newTestRunner(st, ref, ret, &fakeIDs{ids: []string{"m1"}}, n)

	res, err := runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.ReferenceMarkets != 1 || res.RetailMarkets != 1 {
		t.Errorf("contagens de scrape: ref=%d retail=%d", res.ReferenceMarkets, res.RetailMarkets)
	}
	if res.NewMappings != 1 {
		t.Fatalf("NewMappings = %d, esperava 1", res.NewMappings)
	}
	if st.mappings["r1"] != "m1" {
		t.Errorf("mapping gravado: %v", st.mappings)
	}
	for _, step := range []string{"scrape_reference", "scrape_retail", "match", "closing", "clv", "purge"} {
		if res.Steps[step] != "ok" {
			t.Errorf("etapa %s = %q", step, res.Steps[step])
		}
	}
}

func TestRunCycleStepIsolation(t *testing.T) {
	// Scrape do sharp book falha; matching e purga ainda rodam.
	start := time.Now().UTC().Add(time.Hour)
	st := newFakeStore()
	st.reference = []store.ReferenceMarket{refMarket("r1", "G2 Esports", "Team Vitality", start)}
	st.purged = 3
	ref := &fakeReference{err: errors.New("sharp book fora do ar")}
	ret := &fakeRetail{markets: []store.RetailMarket{retMarket("m1", "G2", "Vitality", start)}}
	runner := newTestRunner(st, ref, ret, &fakeIDs{ids: []string{"m1"}}, &fakeNotifier{})

	res, err := runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Steps["scrape_reference"] == "ok" {
		t.Error("scrape_reference devia ter falhado")
	}
	if res.NewMappings != 1 {
		t.Errorf("matching devia rodar mesmo com scrape falho, NewMappings = %d", res.NewMappings)
	}
	if res.Purged != 3 {
		t.Errorf("Purged = %d, esperava 3", res.Purged)
	}
}

func TestRunCycleSkipsRetailWithoutIDs(t *testing.T) {
	st := newFakeStore()
	runner := newTestRunner(st, &fakeReference{}, &fakeRetail{}, &fakeIDs{}, &fakeNotifier{})

	res, err := runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Steps["scrape_retail"] == "ok" {
		t.Errorf("scrape_retail = %q, esperava skip", res.Steps["scrape_retail"])
	}
}

func TestMatchPendingIdempotent(t *testing.T) {
	start := time.Now().UTC().Add(2 * time.Hour)
	st := newFakeStore()
	st.reference = []store.ReferenceMarket{refMarket("r1", "G2 Esports", "Team Vitality", start)}
	st.retail = []store.RetailMarket{retMarket("m1", "G2", "Vitality", start)}
	runner := newTestRunner(st, &fakeReference{}, &fakeRetail{}, &fakeIDs{}, &fakeNotifier{})

	created, err := runner.MatchPending(context.Background())
	if err != nil {
		t.Fatalf("MatchPending: %v", err)
	}
	if created != 1 {
		t.Fatalf("primeira passada criou %d, esperava 1", created)
	}

	created, err = runner.MatchPending(context.Background())
	if err != nil {
		t.Fatalf("MatchPending: %v", err)
	}
	if created != 0 {
		t.Errorf("segunda passada criou %d, esperava 0", created)
	}
}

func TestCaptureClosingPublishesEvents(t *testing.T) {
	start := time.Now().UTC().Add(2 * time.Minute)
	st := newFakeStore()
	st.captured = []store.CapturedLine{{
		ReferenceID: "r1", Event: "BLAST Premier", Sport: "cs2",
		HomeTeam: "G2 Esports", AwayTeam: "Team Vitality",
		HomeClosingOdds: 1.88, AwayClosingOdds: 2.05,
		StartTime: &start, CapturedAt: time.Now().UTC(),
	}}
	n := &fakeNotifier{}
	runner := newTestRunner(st, &fakeReference{}, &fakeRetail{}, &fakeIDs{}, n)

	captured, err := runner.CaptureClosing(context.Background())
	if err != nil {
		t.Fatalf("CaptureClosing: %v", err)
	}
	if captured != 1 || len(n.closings) != 1 {
		t.Fatalf("captured=%d eventos=%d", captured, len(n.closings))
	}
	if n.closings[0].HomeClosingOdds != 1.88 {
		t.Errorf("evento com odds erradas: %+v", n.closings[0])
	}

	// Segunda passada: nada novo pra capturar, nenhum evento repetido
	captured, err = runner.CaptureClosing(context.Background())
	if err != nil {
		t.Fatalf("CaptureClosing: %v", err)
	}
	if captured != 0 || len(n.closings) != 1 {
		t.Errorf("segunda passada: captured=%d eventos=%d", captured, len(n.closings))
	}
}

func TestRunCyclePublishesValueAlerts(t *testing.T) {
	side := "home"
	st := newFakeStore()
	st.positive = []store.MatchedMarket{{
		ReferenceID: "r1", RetailID: "m1", Event: "BLAST Premier", Sport: "cs2",
		HomeTeam: "G2 Esports", AwayTeam: "Team Vitality",
		RetailHomeOdds: 2.10, RetailAwayOdds: 1.80,
		BestBet: &side, BestEVPct: 4.5,
	}}
	n := &fakeNotifier{}
	runner := newTestRunner(st, &fakeReference{}, &fakeRetail{}, &fakeIDs{}, n)

	res, err := runner.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.AlertsSent != 1 || len(n.alerts) != 1 {
		t.Fatalf("alerts=%d eventos=%d", res.AlertsSent, len(n.alerts))
	}
	alert := n.alerts[0]
	if alert.BestBet != "home" || alert.RetailOdds != 2.10 {
		t.Errorf("alerta inesperado: %+v", alert)
	}
}

func TestRunCycleNoOverlap(t *testing.T) {
	runner := newTestRunner(newFakeStore(), &fakeReference{}, &fakeRetail{}, &fakeIDs{}, &fakeNotifier{})
	runner.mu.Lock()
	defer runner.mu.Unlock()

	if _, err := runner.RunCycle(context.Background()); !errors.Is(err, ErrCycleRunning) {
		t.Fatalf("esperava ErrCycleRunning, veio %v", err)
	}
}
