package matcher

import (
	"time"

	"github.com/radieske/esports-ev-finder/internal/normalize"
)

// Game é a visão mínima de um evento pra fins de pareamento: times, texto do
// evento (pra inferir a modalidade) e horário agendado (zero = desconhecido).
type Game struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	Event     string
	StartTime time.Time
}

// Matcher pareia um mercado do reference book com o melhor candidato do
// retail book. Seleção gulosa de passada única, sem atribuição global: dois
// mercados reference podem reivindicar o mesmo retail.
type Matcher struct {
	provider SimilarityProvider
	aliases  *normalize.Aliases
}

func New(provider SimilarityProvider, aliases *normalize.Aliases) *Matcher {
	return &Matcher{provider: provider, aliases: aliases}
}

// Provider expõe o backend em uso (o limiar pertence a ele).
func (m *Matcher) Provider() SimilarityProvider { return m.provider }

// Score devolve a confiança de que ref e cand são o mesmo jogo real, em [0,1]:
// média das similaridades home/away + bônus de proximidade de horário
// (0.2 dentro de 1h, 0.1 dentro de 2h) + 0.1 se as modalidades inferidas
// concordam e não são unknown.
func (m *Matcher) Score(ref, cand Game) float64 {
	homeSim := m.teamSimilarity(ref.HomeTeam, cand.HomeTeam)
	awaySim := m.teamSimilarity(ref.AwayTeam, cand.AwayTeam)
	teamScore := (homeSim + awaySim) / 2.0

	timeBonus := 0.0
	if !ref.StartTime.IsZero() && !cand.StartTime.IsZero() {
		diff := ref.StartTime.Sub(cand.StartTime)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff < time.Hour:
			timeBonus = 0.2
		case diff < 2*time.Hour:
			timeBonus = 0.1
		}
	}

	sportBonus := 0.0
	refSport := normalize.InferSport(ref.Event)
	candSport := normalize.InferSport(cand.Event)
	if refSport != normalize.SportUnknown && refSport == candSport {
		sportBonus = 0.1
	}

	total := teamScore + timeBonus + sportBonus
	if total > 1.0 {
		return 1.0
	}
	return total
}

func (m *Matcher) teamSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return m.provider.Similarity(m.aliases.Canonical(a), m.aliases.Canonical(b))
}

// FindBestMatch varre os candidatos e devolve o de maior score, desde que
// estritamente acima do limiar do backend. Sem candidato acima do limiar,
// ok=false e o mercado reference fica sem par neste ciclo.
func (m *Matcher) FindBestMatch(ref Game, candidates []Game) (best Game, confidence float64, ok bool) {
	threshold := m.provider.Threshold()
	bestScore := 0.0

	for _, cand := range candidates {
		score := m.Score(ref, cand)
		if score > bestScore && score > threshold {
			best = cand
			bestScore = score
			ok = true
		}
	}

	return best, bestScore, ok
}
