package normalize

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTeam rebaixa pra minúsculas, troca qualquer sequência
// não-alfanumérica por um espaço e apara as pontas.
func NormalizeTeam(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Aliases mapeia nomes normalizados para um token canônico por organização.
// Tabela estática mantida à mão: variação nova de nome vira entrada nova,
// não mudança de código. Injetada na construção pra evitar estado global.
type Aliases struct {
	table map[string]string
}

// NewAliases cria a tabela a partir de um mapa normalizado→canônico.
func NewAliases(table map[string]string) *Aliases {
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return &Aliases{table: cp}
}

// Canonical normaliza o nome e resolve pelo alias; sem entrada na tabela, o
// próprio nome normalizado é o token canônico.
func (a *Aliases) Canonical(name string) string {
	norm := NormalizeTeam(name)
	if canon, ok := a.table[norm]; ok {
		return canon
	}
	return norm
}

// DefaultAliases devolve a tabela padrão de sinônimos de organizações
// (CS2 + LoL nas ligas LCK/LPL/LCS/LEC).
func DefaultAliases() *Aliases {
	return NewAliases(map[string]string{
		// CS2
		"g2 esports":        "g2",
		"team vitality":     "vitality",
		"faze clan":         "faze",
		"team spirit":       "spirit",
		"ninjas in pyjamas": "nip",
		"natus vincere":     "navi",
		"na vi":             "navi",
		"virtus pro":        "vp",
		"mouz":              "mouz",
		"astralis":          "astralis",
		"complexity":        "complexity",
		"og":                "og",
		"fnatic":            "fnatic",
		"ence":              "ence",
		"big":               "big",
		"mibr":              "mibr",
		"9z team":           "9z",
		"9z":                "9z",
		"gamerlegion":       "gamerlegion",
		"cloud9":            "c9",
		"cloud 9":           "c9",
		"team liquid":       "liquid",
		"evil geniuses":     "eg",
		"pain gaming":       "pain",
		"virtuoso pro":      "vp",
		"furia esports":     "furia",

		// LoL LCK
		"t1 esports":          "t1",
		"t1":                  "t1",
		"gen g":               "gen g",
		"gen g esports":       "gen g",
		"kt rolster":          "kt",
		"dplus kia":           "dk",
		"damwon gaming":       "dk",
		"hanwha life esports": "hle",
		"drx":                 "drx",
		"kwangdong freecs":    "kdf",
		"fredit brion":        "brion",
		"brion":               "brion",
		"nongshim redforce":   "ns",
		"liiv sandbox":        "lsb",
		"sandbox gaming":      "lsb",

		// LoL LPL
		"jd gaming":           "jdg",
		"jingdong gaming":     "jdg",
		"jdg":                 "jdg",
		"top esports":         "tes",
		"funplus phoenix":     "fpx",
		"bilibili gaming":     "blg",
		"weibo gaming":        "weibo",
		"edward gaming":       "edg",
		"invictus gaming":     "ig",
		"lgd gaming":          "lgd",
		"oh my god":           "omg",
		"royal never give up": "rng",
		"team we":             "we",
		"victory five":        "v5",
		"thunder talk gaming": "tt",
		"ultra prime":         "up",
		"rare atom":           "ra",
		"anyones legend":      "al",

		// LoL LCS/LEC
		"100 thieves":          "100t",
		"golden guardians":     "gg",
		"team solo mid":        "tsm",
		"immortals":            "imt",
		"counter logic gaming": "clg",
		"mad lions":            "mad",
		"sk gaming":            "sk",
		"team bds":             "bds",
		"koi":                  "koi",
	})
}
