package normalize_test

import (
	"testing"

	"github.com/radieske/esports-ev-finder/internal/normalize"
)

func TestInferSport(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  normalize.Sport
	}{
		{name: "lol by full name", event: "League of Legends - LCK", want: normalize.SportLoL},
		{name: "lol lowercase keyword", event: "lol champions korea", want: normalize.SportLoL},
		{name: "cs2 keyword", event: "CS2 - ESL Pro League", want: normalize.SportCS2},
		{name: "counter-strike hyphen", event: "Counter-Strike Major", want: normalize.SportCS2},
		{name: "counter strike space", event: "counter strike blast premier", want: normalize.SportCS2},
		{name: "unrelated event", event: "NBA Finals", want: normalize.SportUnknown},
		{name: "empty", event: "", want: normalize.SportUnknown},
		// "csgo" não está na lista de substrings: classificador conservador
		{name: "csgo is not cs2", event: "csgo showmatch", want: normalize.SportUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize.InferSport(tt.event); got != tt.want {
				t.Errorf("InferSport(%q) = %q, want %q", tt.event, got, tt.want)
			}
		})
	}
}

func TestNormalizeTeam(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"G2 Esports", "g2 esports"},
		{"Na'Vi", "na vi"},
		{"  Team   Vitality  ", "team vitality"},
		{"9z-Team!", "9z team"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalize.NormalizeTeam(tt.in); got != tt.want {
			t.Errorf("NormalizeTeam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	aliases := normalize.DefaultAliases()

	tests := []struct {
		in   string
		want string
	}{
		{"G2 Esports", "g2"},
		{"Team Vitality", "vitality"},
		{"Na'Vi", "navi"},
		{"Natus Vincere", "navi"},
		{"Cloud 9", "c9"},
		{"DAMWON Gaming", "dk"},
		// sem alias: o normalizado é o canônico
		{"Random Org", "random org"},
	}

	for _, tt := range tests {
		if got := aliases.Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// A tabela é injetada: instâncias diferentes não compartilham estado.
func TestAliasesInjection(t *testing.T) {
	custom := normalize.NewAliases(map[string]string{"my team": "mt"})

	if got := custom.Canonical("My-Team"); got != "mt" {
		t.Errorf("custom alias not applied: got %q", got)
	}
	if got := custom.Canonical("G2 Esports"); got != "g2 esports" {
		t.Errorf("custom table should not know default aliases: got %q", got)
	}
}
