package normalize

import "strings"

// Sport é o código de modalidade inferido do nome do evento/liga.
type Sport string

const (
	SportCS2     Sport = "cs2"
	SportLoL     Sport = "lol"
	SportUnknown Sport = "unknown"
)

// InferSport classifica a modalidade por substring no texto do evento.
// Classificador deliberadamente conservador: sem match parcial além das
// substrings listadas, devolve unknown.
func InferSport(eventName string) Sport {
	if eventName == "" {
		return SportUnknown
	}
	s := strings.ToLower(eventName)

	if strings.Contains(s, "league of legends") || strings.Contains(s, "lol") {
		return SportLoL
	}
	if strings.Contains(s, "cs2") || strings.Contains(s, "counter-strike") || strings.Contains(s, "counter strike") {
		return SportCS2
	}
	return SportUnknown
}
