package oddsmath

import (
	"fmt"
	"math"
)

// Expoente do método power de de-vig. Constante de política fixa, aproxima o
// viés favorito-azarão observado no sharp book; não é derivado do mercado.
const DefaultPowerK = 1.07

// FairPair carrega o resultado de um método de de-vig: odds justas e
// probabilidades implícitas dos dois lados. Por construção,
// HomeProb + AwayProb == 1.0 dentro do método.
type FairPair struct {
	HomeOdds float64
	AwayOdds float64
	HomeProb float64
	AwayProb float64
}

// AmericanToDecimal converte odds americanas para decimais.
// +150 → 2.50, -150 → 1.67 (arredondado em 2 casas). Zero é inválido.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid american odds: cannot be 0")
	}

	if american > 0 {
		return Round2((float64(american) / 100.0) + 1.0), nil
	}
	return Round2((100.0 / float64(-american)) + 1.0), nil
}

// DecimalToAmerican converte odds decimais para americanas.
// 2.50 → +150, 1.67 → -149
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 1.0")
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}
	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability retorna a probabilidade implícita de uma odd decimal.
func ImpliedProbability(decimal float64) (float64, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 1.0")
	}
	return 1.0 / decimal, nil
}

// ProportionalDevig remove o vig proporcionalmente à fatia de cada lado
// (método multiplicativo tradicional): p* = p / (p_home + p_away).
func ProportionalDevig(homeOdds, awayOdds float64) (FairPair, error) {
	pHome, pAway, err := impliedPair(homeOdds, awayOdds)
	if err != nil {
		return FairPair{}, err
	}

	total := pHome + pAway
	fairHome := pHome / total
	fairAway := pAway / total

	return FairPair{
		HomeOdds: 1.0 / fairHome,
		AwayOdds: 1.0 / fairAway,
		HomeProb: fairHome,
		AwayProb: fairAway,
	}, nil
}

// PowerDevig aplica o método power com o expoente padrão.
func PowerDevig(homeOdds, awayOdds float64) (FairPair, error) {
	return PowerDevigK(homeOdds, awayOdds, DefaultPowerK)
}

// PowerDevigK remove o vig elevando cada probabilidade implícita a k e
// normalizando: p* = p^k / (p_home^k + p_away^k).
func PowerDevigK(homeOdds, awayOdds, k float64) (FairPair, error) {
	pHome, pAway, err := impliedPair(homeOdds, awayOdds)
	if err != nil {
		return FairPair{}, err
	}

	pHomeK := math.Pow(pHome, k)
	pAwayK := math.Pow(pAway, k)
	sum := pHomeK + pAwayK

	fairHome := pHomeK / sum
	fairAway := pAwayK / sum

	return FairPair{
		HomeOdds: 1.0 / fairHome,
		AwayOdds: 1.0 / fairAway,
		HomeProb: fairHome,
		AwayProb: fairAway,
	}, nil
}

func impliedPair(homeOdds, awayOdds float64) (float64, float64, error) {
	if homeOdds <= 1.0 || awayOdds <= 1.0 {
		return 0, 0, fmt.Errorf("invalid odds pair (%.2f, %.2f): both must be > 1.0", homeOdds, awayOdds)
	}
	return 1.0 / homeOdds, 1.0 / awayOdds, nil
}

// EV retorna o valor esperado (fração da stake) de apostar um lado:
// probabilidade justa do reference * odd retail do MESMO lado - 1.
func EV(fairProb, retailOdds float64) float64 {
	return fairProb*retailOdds - 1.0
}

// EVPercent é o EV expresso em percentual, arredondado em 2 casas.
func EVPercent(fairProb, retailOdds float64) float64 {
	return Round2(EV(fairProb, retailOdds) * 100.0)
}

// CLV mede os pontos de probabilidade capturados contra a linha de fechamento:
// (1/closing - 1/bet) * 100. Positivo = apostador bateu o fechamento.
func CLV(betOdds, closingOdds float64) float64 {
	return (1.0/closingOdds - 1.0/betOdds) * 100.0
}

// CLVPercent mede o movimento bruto da odd: (bet - closing) / closing * 100.
func CLVPercent(betOdds, closingOdds float64) float64 {
	return (betOdds - closingOdds) / closingOdds * 100.0
}

// Round2 arredonda em 2 casas decimais.
func Round2(v float64) float64 {
	return math.Round(v*100.0) / 100.0
}

// Round4 arredonda em 4 casas decimais (usado pro EV fracionário).
func Round4(v float64) float64 {
	return math.Round(v*10000.0) / 10000.0
}
