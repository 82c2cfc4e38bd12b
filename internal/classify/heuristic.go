package classify

import (
	"context"
	"fmt"
	"strings"

	"accent-detector/internal/domain"
)

// neutralConfidence is reported when no keyword matched at all. The value
// is an explicit policy, not a measurement.
const neutralConfidence = 50.0

// defaultKeywords maps each category to characteristic words and phrases.
// Scoring counts case-insensitive substring occurrences per keyword.
var defaultKeywords = map[domain.Accent][]string{
	domain.AccentBritish:    {"lorry", "lift", "flat", "queue", "fortnight", "brilliant", "rubbish", "mate"},
	domain.AccentAmerican:   {"truck", "elevator", "apartment", "sidewalk", "gotten", "awesome", "vacation"},
	domain.AccentAustralian: {"arvo", "brekkie", "heaps", "reckon", "servo", "g'day", "no worries"},
	domain.AccentCanadian:   {"toque", "loonie", "washroom", "poutine", "hydro bill", "eh"},
	domain.AccentIndian:     {"do the needful", "prepone", "kindly revert", "out of station", "itself only"},
	domain.AccentIrish:      {"craic", "grand so", "eejit", "gas man", "yoke", "wee"},
	domain.AccentScottish:   {"aye", "bonnie", "dreich", "wean", "bairn", "loch", "ken"},
}

// Heuristic scores transcripts against fixed keyword tables. It is a pure
// deterministic function and never fails.
type Heuristic struct {
	priority []domain.Accent
	keywords map[domain.Accent][]string
}

// NewHeuristic builds the classifier with the default keyword tables.
func NewHeuristic() *Heuristic {
	return NewHeuristicWithKeywords(domain.KnownAccents, defaultKeywords)
}

// NewHeuristicWithKeywords builds a classifier over custom tables. The
// priority slice fixes tie-break and no-signal defaults.
func NewHeuristicWithKeywords(priority []domain.Accent, keywords map[domain.Accent][]string) *Heuristic {
	return &Heuristic{
		priority: priority,
		keywords: keywords,
	}
}

// Classify counts keyword occurrences per category and picks the strict
// maximum; ties resolve to the earliest category in priority order. With
// no matches at all it returns the first priority category at the fixed
// neutral confidence. The returned error is always nil.
func (h *Heuristic) Classify(_ context.Context, transcript string) (domain.Classification, error) {
	lower := strings.ToLower(transcript)

	winner := h.priority[0]
	bestScore := 0
	totalScore := 0
	for _, accent := range h.priority {
		score := 0
		for _, keyword := range h.keywords[accent] {
			score += strings.Count(lower, strings.ToLower(keyword))
		}
		totalScore += score
		if score > bestScore {
			bestScore = score
			winner = accent
		}
	}

	if totalScore == 0 {
		return domain.Classification{
			Accent:     winner,
			Confidence: neutralConfidence,
			Summary:    fmt.Sprintf("No characteristic phrases found; defaulting to %s at neutral confidence.", winner),
			Strategy:   domain.StrategyHeuristic,
		}, nil
	}

	confidence := float64(bestScore) / float64(totalScore) * 100
	return domain.Classification{
		Accent:     winner,
		Confidence: confidence,
		Summary:    fmt.Sprintf("Lexical markers suggest a %s accent (%.1f%% of matched keywords).", winner, confidence),
		Strategy:   domain.StrategyHeuristic,
	}, nil
}
