package oddsmath_test

import (
	"math"
	"testing"

	"github.com/radieske/esports-ev-finder/internal/oddsmath"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name       string
		american   int
		want       float64
		shouldFail bool
	}{
		{name: "positive +150", american: 150, want: 2.50},
		{name: "positive +100", american: 100, want: 2.00},
		{name: "negative -150", american: -150, want: 1.67},
		{name: "negative -110", american: -110, want: 1.91},
		{name: "heavy favorite -500", american: -500, want: 1.20},
		{name: "longshot +1000", american: 1000, want: 11.00},
		{name: "zero is invalid", american: 0, shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.AmericanToDecimal(tt.american)
			if tt.shouldFail {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AmericanToDecimal(%d) = %v, want %v", tt.american, got, tt.want)
			}
		})
	}
}

// Odds americanas maiores devem gerar decimais maiores; quanto mais negativa a
// odd, mais perto de 1.0 o decimal fica.
func TestAmericanToDecimalMonotonic(t *testing.T) {
	positives := []int{100, 120, 150, 200, 500, 1000}
	for i := 1; i < len(positives); i++ {
		lo, _ := oddsmath.AmericanToDecimal(positives[i-1])
		hi, _ := oddsmath.AmericanToDecimal(positives[i])
		if hi <= lo {
			t.Errorf("expected decimal(%d) > decimal(%d), got %v <= %v", positives[i], positives[i-1], hi, lo)
		}
	}

	negatives := []int{-110, -150, -200, -500, -1000}
	for i := 1; i < len(negatives); i++ {
		prev, _ := oddsmath.AmericanToDecimal(negatives[i-1])
		cur, _ := oddsmath.AmericanToDecimal(negatives[i])
		if cur >= prev {
			t.Errorf("expected decimal(%d) < decimal(%d), got %v >= %v", negatives[i], negatives[i-1], cur, prev)
		}
		if cur <= 1.0 {
			t.Errorf("decimal odds must stay above 1.0, got %v for %d", cur, negatives[i])
		}
	}
}

func TestDevigProbabilitiesSumToOne(t *testing.T) {
	pairs := [][2]float64{
		{1.91, 1.91},
		{1.67, 2.30},
		{1.20, 4.50},
		{3.10, 1.36},
		{2.05, 1.85},
	}

	for _, p := range pairs {
		prop, err := oddsmath.ProportionalDevig(p[0], p[1])
		if err != nil {
			t.Fatalf("ProportionalDevig(%v, %v): %v", p[0], p[1], err)
		}
		if sum := prop.HomeProb + prop.AwayProb; math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("proportional probs for (%v, %v) sum to %v, want 1.0", p[0], p[1], sum)
		}

		pow, err := oddsmath.PowerDevig(p[0], p[1])
		if err != nil {
			t.Fatalf("PowerDevig(%v, %v): %v", p[0], p[1], err)
		}
		if sum := pow.HomeProb + pow.AwayProb; math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("power probs for (%v, %v) sum to %v, want 1.0", p[0], p[1], sum)
		}

		// Odds justas precisam ser a inversa exata das probabilidades
		if math.Abs(1.0/pow.HomeOdds-pow.HomeProb) > 1e-9 {
			t.Errorf("fair odds and prob out of sync: 1/%v != %v", pow.HomeOdds, pow.HomeProb)
		}
	}
}

func TestDevigRejectsInvalidOdds(t *testing.T) {
	if _, err := oddsmath.ProportionalDevig(1.0, 2.0); err == nil {
		t.Error("expected error for odds <= 1.0")
	}
	if _, err := oddsmath.PowerDevig(2.0, 0.5); err == nil {
		t.Error("expected error for odds <= 1.0")
	}
}

// O método power com k > 1 encurta o azarão em relação ao proporcional
// (correção do viés favorito-azarão).
func TestPowerDevigFavoriteLongshotSkew(t *testing.T) {
	prop, _ := oddsmath.ProportionalDevig(1.20, 4.50)
	pow, _ := oddsmath.PowerDevig(1.20, 4.50)

	if pow.HomeProb <= prop.HomeProb {
		t.Errorf("power method should weight the favorite up: power=%v proportional=%v", pow.HomeProb, prop.HomeProb)
	}
	if pow.AwayProb >= prop.AwayProb {
		t.Errorf("power method should weight the longshot down: power=%v proportional=%v", pow.AwayProb, prop.AwayProb)
	}
}

func TestEVPercent(t *testing.T) {
	// prob justa 0.55 contra odd retail 2.00 → EV = 0.55*2.00 - 1 = 0.10
	if got := oddsmath.EVPercent(0.55, 2.00); math.Abs(got-10.0) > 1e-9 {
		t.Errorf("EVPercent(0.55, 2.00) = %v, want 10.0", got)
	}
	// prob 0.40 contra 2.00 → -20%
	if got := oddsmath.EVPercent(0.40, 2.00); math.Abs(got-(-20.0)) > 1e-9 {
		t.Errorf("EVPercent(0.40, 2.00) = %v, want -20.0", got)
	}
}

func TestCLVSignConvention(t *testing.T) {
	// Apostou 2.10, fechou 2.00: bateu o fechamento → positivo (~2.38)
	got := oddsmath.CLV(2.10, 2.00)
	if math.Abs(got-2.38) > 0.01 {
		t.Errorf("CLV(2.10, 2.00) = %v, want ~2.38", got)
	}

	// Apostou 1.90, fechou 2.00: perdeu pro fechamento → negativo
	if got := oddsmath.CLV(1.90, 2.00); got >= 0 {
		t.Errorf("CLV(1.90, 2.00) = %v, want negative", got)
	}

	// Movimento bruto da odd na mesma convenção
	if got := oddsmath.CLVPercent(2.10, 2.00); math.Abs(got-5.0) > 1e-9 {
		t.Errorf("CLVPercent(2.10, 2.00) = %v, want 5.0", got)
	}
}

func TestDecimalToAmericanRoundTrip(t *testing.T) {
	for _, am := range []int{-500, -150, -110, 100, 150, 500} {
		dec, err := oddsmath.AmericanToDecimal(am)
		if err != nil {
			t.Fatalf("AmericanToDecimal(%d): %v", am, err)
		}
		back, err := oddsmath.DecimalToAmerican(dec)
		if err != nil {
			t.Fatalf("DecimalToAmerican(%v): %v", dec, err)
		}
		// arredondamento em 2 casas pode deslocar 1-2 pontos
		if math.Abs(float64(back-am)) > 3 {
			t.Errorf("round trip %d → %v → %d drifted too far", am, dec, back)
		}
	}
}
