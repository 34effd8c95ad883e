package store

import (
	"math"
	"testing"

	"github.com/radieske/esports-ev-finder/internal/oddsmath"
)

func f(v float64) *float64 { return &v }

func TestProjectEVBestBet(t *testing.T) {
	tests := []struct {
		name       string
		homeProb   float64
		awayProb   float64
		retailHome float64
		retailAway float64
		wantBest   string // "" = nil
		wantBestEV float64
	}{
		{
			name:     "home com edge",
			homeProb: 0.55, awayProb: 0.45,
			retailHome: 2.00, retailAway: 2.00,
			wantBest: "home", wantBestEV: 10.0,
		},
		{
			name:     "away com edge",
			homeProb: 0.40, awayProb: 0.60,
			retailHome: 2.00, retailAway: 1.80,
			wantBest: "away", wantBestEV: 8.0,
		},
		{
			name:     "nenhum lado positivo",
			homeProb: 0.48, awayProb: 0.48,
			retailHome: 2.00, retailAway: 1.90,
			wantBest: "", wantBestEV: -4.0,
		},
		{
			name:     "empate positivo vai pro away",
			homeProb: 0.55, awayProb: 0.55,
			retailHome: 2.00, retailAway: 2.00,
			wantBest: "away", wantBestEV: 10.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := MatchedMarket{RetailHomeOdds: tt.retailHome, RetailAwayOdds: tt.retailAway}
			projectEV(&row, tt.homeProb, tt.awayProb, nil, nil)

			if tt.wantBest == "" {
				if row.BestBet != nil {
					t.Fatalf("BestBet = %q, esperava nil", *row.BestBet)
				}
			} else {
				if row.BestBet == nil {
					t.Fatal("BestBet = nil, esperava lado")
				}
				if *row.BestBet != tt.wantBest {
					t.Errorf("BestBet = %q, esperava %q", *row.BestBet, tt.wantBest)
				}
			}
			if math.Abs(row.BestEVPct-tt.wantBestEV) > 1e-9 {
				t.Errorf("BestEVPct = %.4f, esperava %.4f", row.BestEVPct, tt.wantBestEV)
			}
		})
	}
}

func TestProjectEVSharpLineAgainstRetail(t *testing.T) {
	// Linha sharp -150/+130 de-vigada contra odds retail 1.80/2.10: o
	// favorito no soft book paga acima da odd justa, então o edge é home.
	homeDec, err := oddsmath.AmericanToDecimal(-150)
	if err != nil {
		t.Fatalf("AmericanToDecimal(-150): %v", err)
	}
	awayDec, err := oddsmath.AmericanToDecimal(130)
	if err != nil {
		t.Fatalf("AmericanToDecimal(130): %v", err)
	}
	fair, err := oddsmath.PowerDevig(homeDec, awayDec)
	if err != nil {
		t.Fatalf("PowerDevig: %v", err)
	}

	row := MatchedMarket{RetailHomeOdds: 1.80, RetailAwayOdds: 2.10}
	projectEV(&row, fair.HomeProb, fair.AwayProb, nil, nil)

	if row.BestBet == nil || *row.BestBet != "home" {
		t.Fatalf("BestBet = %v, esperava home", row.BestBet)
	}
	if row.BestEVPct <= 0 {
		t.Errorf("BestEVPct = %.4f, esperava positivo", row.BestEVPct)
	}
	if row.AwayEVPct >= 0 {
		t.Errorf("AwayEVPct = %.4f, esperava negativo", row.AwayEVPct)
	}
}

func TestProjectEVNoEdgeStillReportsBest(t *testing.T) {
	// Mercado sem edge não é mercado sem dados: BestEVPct mostra o menos
	// negativo dos dois lados.
	row := MatchedMarket{RetailHomeOdds: 1.80, RetailAwayOdds: 1.85}
	projectEV(&row, 0.50, 0.50, nil, nil)

	if row.BestBet != nil {
		t.Fatalf("BestBet = %q, esperava nil", *row.BestBet)
	}
	if row.BestEVPct != row.AwayEVPct {
		t.Errorf("BestEVPct = %.4f, esperava o lado away (%.4f)", row.BestEVPct, row.AwayEVPct)
	}
	if row.BestEVPct >= 0 {
		t.Errorf("BestEVPct = %.4f, esperava negativo", row.BestEVPct)
	}
}

func TestProjectEVProportionalFallback(t *testing.T) {
	row := MatchedMarket{RetailHomeOdds: 2.10, RetailAwayOdds: 1.95}
	projectEV(&row, 0.52, 0.48, nil, nil)

	if row.HomePropEV != row.HomeEV || row.AwayPropEV != row.AwayEV {
		t.Errorf("sem odds proporcionais o EV prop devia cair pro power: prop=(%.4f,%.4f) power=(%.4f,%.4f)",
			row.HomePropEV, row.AwayPropEV, row.HomeEV, row.AwayEV)
	}
	if row.HomePropEVPct != row.HomeEVPct || row.AwayPropEVPct != row.AwayEVPct {
		t.Error("percentuais prop deviam cair pro power sem dados proporcionais")
	}
}

func TestProjectEVProportionalIndependent(t *testing.T) {
	row := MatchedMarket{RetailHomeOdds: 2.00, RetailAwayOdds: 2.00}
	projectEV(&row, 0.55, 0.45, f(0.53), f(0.47))

	if row.HomeEVPct != 10.0 {
		t.Errorf("HomeEVPct = %.4f, esperava 10.0", row.HomeEVPct)
	}
	if row.HomePropEVPct != 6.0 {
		t.Errorf("HomePropEVPct = %.4f, esperava 6.0", row.HomePropEVPct)
	}
	// Best bet é decidido pelo método power, não pelo proporcional
	if row.BestBet == nil || *row.BestBet != "home" {
		t.Error("BestBet devia ser home pelo método power")
	}
}
