package matcher_test

import (
	"math"
	"testing"
	"time"

	"github.com/radieske/esports-ev-finder/internal/matcher"
	"github.com/radieske/esports-ev-finder/internal/normalize"
)

// fakeProvider devolve similaridades fixas por par canônico, com limiar
// configurável. Determinístico por construção.
type fakeProvider struct {
	sims      map[[2]string]float64
	threshold float64
}

func (f *fakeProvider) Name() string       { return "fake" }
func (f *fakeProvider) Threshold() float64 { return f.threshold }
func (f *fakeProvider) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if v, ok := f.sims[[2]string{a, b}]; ok {
		return v
	}
	if v, ok := f.sims[[2]string{b, a}]; ok {
		return v
	}
	return 0
}

func TestSequenceSimilarity(t *testing.T) {
	p := matcher.NewSequenceProvider()

	tests := []struct {
		a, b string
		want float64
	}{
		{"g2", "g2", 1.0},
		{"", "g2", 0.0},
		{"", "", 0.0},
		{"abcd", "wxyz", 0.0},
		// blocos "vitality" (8) casam em "team vitality" (13): 2*8/(8+13)
		{"vitality", "team vitality", 16.0 / 21.0},
	}

	for _, tt := range tests {
		got := p.Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of [0,1]", tt.a, tt.b, got)
		}
	}

	// case-insensitive e simétrico
	if p.Similarity("NaVi", "navi") != 1.0 {
		t.Error("similarity should be case-insensitive")
	}
	if p.Similarity("faze clan", "faze") != p.Similarity("faze", "faze clan") {
		t.Error("similarity should be symmetric")
	}
}

func TestScoreBonuses(t *testing.T) {
	prov := &fakeProvider{threshold: 0.6}
	m := matcher.New(prov, normalize.DefaultAliases())

	start := time.Date(2025, 10, 3, 18, 0, 0, 0, time.UTC)
	ref := matcher.Game{HomeTeam: "G2 Esports", AwayTeam: "Team Vitality", Event: "CS2 - ESL Pro League", StartTime: start}

	// times idênticos após canônico, mesma modalidade, mesmo horário:
	// 1.0 + 0.2 + 0.1, limitado a 1.0
	cand := matcher.Game{HomeTeam: "G2", AwayTeam: "Vitality", Event: "Counter-Strike", StartTime: start}
	if got := m.Score(ref, cand); got != 1.0 {
		t.Errorf("score = %v, want capped 1.0", got)
	}

	// 1h30 de distância: bônus de tempo cai pra 0.1
	cand2 := cand
	cand2.StartTime = start.Add(90 * time.Minute)
	if got := m.Score(ref, cand2); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("score = %v, want 1.0 (1.0 + 0.1 + 0.1 capped)", got)
	}

	// modalidades divergentes: sem bônus de sport
	cand3 := cand
	cand3.Event = "League of Legends - LCK"
	cand3.StartTime = time.Time{}
	if got := m.Score(ref, cand3); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("score = %v, want 1.0 (team score alone)", got)
	}

	// lado vazio zera a similaridade daquele lado
	cand4 := cand
	cand4.AwayTeam = ""
	cand4.StartTime = time.Time{}
	cand4.Event = ""
	if got := m.Score(ref, cand4); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5 (only home side matches)", got)
	}
}

func TestFindBestMatchThreshold(t *testing.T) {
	prov := &fakeProvider{
		threshold: 0.6,
		sims: map[[2]string]float64{
			{"g2", "weak"}:       0.55,
			{"vitality", "weak"}: 0.55,
		},
	}
	m := matcher.New(prov, normalize.DefaultAliases())

	ref := matcher.Game{HomeTeam: "G2", AwayTeam: "Vitality"}

	// score 0.55 não passa do limiar 0.6 (comparação estrita)
	_, _, ok := m.FindBestMatch(ref, []matcher.Game{{ID: "1", HomeTeam: "weak", AwayTeam: "weak"}})
	if ok {
		t.Error("candidate below threshold must not match")
	}

	// candidato exato vence
	best, conf, ok := m.FindBestMatch(ref, []matcher.Game{
		{ID: "1", HomeTeam: "weak", AwayTeam: "weak"},
		{ID: "2", HomeTeam: "G2", AwayTeam: "Vitality"},
	})
	if !ok || best.ID != "2" {
		t.Fatalf("expected candidate 2, got ok=%v best=%+v", ok, best)
	}
	if conf != 1.0 {
		t.Errorf("confidence = %v, want 1.0", conf)
	}
}

// Rodar o matcher duas vezes sobre o mesmo conjunto, sem mutação no meio,
// produz as mesmas decisões.
func TestMatcherIdempotence(t *testing.T) {
	m := matcher.New(matcher.NewSequenceProvider(), normalize.DefaultAliases())

	start := time.Date(2025, 10, 3, 18, 0, 0, 0, time.UTC)
	refs := []matcher.Game{
		{ID: "p1", HomeTeam: "G2 Esports", AwayTeam: "Team Vitality", Event: "CS2", StartTime: start},
		{ID: "p2", HomeTeam: "T1", AwayTeam: "Gen.G", Event: "League of Legends", StartTime: start},
	}
	cands := []matcher.Game{
		{ID: "c1", HomeTeam: "G2", AwayTeam: "Vitality", Event: "Counter-Strike", StartTime: start},
		{ID: "c2", HomeTeam: "T1", AwayTeam: "Gen G Esports", Event: "LoL", StartTime: start},
	}

	type decision struct {
		id   string
		conf float64
		ok   bool
	}

	run := func() []decision {
		var out []decision
		for _, ref := range refs {
			best, conf, ok := m.FindBestMatch(ref, cands)
			out = append(out, decision{id: best.ID, conf: conf, ok: ok})
		}
		return out
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("decision %d changed between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// Cenário ponta a ponta do pareamento: nomes de livro diferentes, mesma
// partida real, fallback por sequência.
func TestEndToEndG2Vitality(t *testing.T) {
	m := matcher.New(matcher.NewSequenceProvider(), normalize.DefaultAliases())

	start := time.Date(2025, 10, 3, 18, 0, 0, 0, time.UTC)
	ref := matcher.Game{
		ID: "pin-1", HomeTeam: "G2", AwayTeam: "Vitality",
		Event: "CS2 - Blast Premier", StartTime: start,
	}
	cand := matcher.Game{
		ID: "cs-9", HomeTeam: "G2 Esports", AwayTeam: "Team Vitality",
		Event: "Counter-Strike", StartTime: start.Add(30 * time.Minute),
	}

	best, conf, ok := m.FindBestMatch(ref, []matcher.Game{cand})
	if !ok {
		t.Fatalf("expected a match, confidence=%v", conf)
	}
	if best.ID != "cs-9" {
		t.Errorf("best = %q, want cs-9", best.ID)
	}
	// canônicos idênticos (g2/vitality) + 0.2 tempo + 0.1 sport, cap 1.0
	if conf < 0.7 {
		t.Errorf("confidence = %v, want >= 0.7", conf)
	}
}

func TestProviderThresholds(t *testing.T) {
	if got := matcher.NewSequenceProvider().Threshold(); got != 0.7 {
		t.Errorf("sequence threshold = %v, want 0.7", got)
	}
	if got := matcher.NewEmbeddingProvider("http://localhost:9000").Threshold(); got != 0.6 {
		t.Errorf("embedding threshold = %v, want 0.6", got)
	}
}
