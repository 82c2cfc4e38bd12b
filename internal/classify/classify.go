// Package classify assigns an English accent category to transcript text.
// Two interchangeable strategies exist: a structured language-model call
// and a deterministic lexical heuristic.
package classify

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"accent-detector/internal/domain"
)

// Classifier assigns an accent category to transcript text.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (domain.Classification, error)
}

// clampConfidence forces a confidence value into [0,100]. Non-finite
// values collapse to 0.
func clampConfidence(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// parseConfidence accepts a JSON number or a percentage-formatted string
// ("87", "87%", " 87.5 % ") and normalizes it. Unparseable input yields 0.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return clampConfidence(num)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clampConfidence(num)
}
