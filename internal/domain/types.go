package domain

import "strings"

// Accent is one category from the closed accent taxonomy.
type Accent string

const (
	AccentBritish    Accent = "British"
	AccentAmerican   Accent = "American"
	AccentAustralian Accent = "Australian"
	AccentCanadian   Accent = "Canadian"
	AccentIndian     Accent = "Indian"
	AccentIrish      Accent = "Irish"
	AccentScottish   Accent = "Scottish"
	AccentOther      Accent = "Other"
	AccentUnknown    Accent = "Unknown"
)

// KnownAccents lists the classifiable categories in fixed priority order.
// Tie breaks and no-signal defaults follow this order.
var KnownAccents = []Accent{
	AccentBritish,
	AccentAmerican,
	AccentAustralian,
	AccentCanadian,
	AccentIndian,
	AccentIrish,
	AccentScottish,
}

// ParseAccent maps a raw category string onto the taxonomy, case-insensitively.
// A non-empty string outside the taxonomy maps to Other: the text was
// classified, just beyond the known categories. Only an empty string maps
// to Unknown.
func ParseAccent(raw string) Accent {
	name := strings.TrimSpace(raw)
	if name == "" {
		return AccentUnknown
	}

	for _, accent := range KnownAccents {
		if strings.EqualFold(name, string(accent)) {
			return accent
		}
	}
	return AccentOther
}

// Strategy identifies which classifier variant produced a result.
type Strategy string

const (
	StrategyModel     Strategy = "model"
	StrategyHeuristic Strategy = "heuristic"
)

// Classification is the uniform accent classification result.
type Classification struct {
	Accent     Accent   `json:"accent"`
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary"`
	Strategy   Strategy `json:"strategy"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	SpeechModel     string `json:"speechModel"`
	CompletionModel string `json:"completionModel"`
	Strategy        string `json:"strategy"`
}
