package match

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// parseAnalysis interprets raw model output as an analysis record. The
// three list keys are required and must hold strings; match_score may be
// absent (hasScore reports its presence) but when present must be numeric.
// Structural failures return ok=false; the caller falls back to the base
// score with generic text.
func parseAnalysis(raw string) (analysis Analysis, hasScore, ok bool) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Analysis{}, false, false
	}

	for _, key := range []string{"strengths", "gaps", "recommendations"} {
		// A JSON null would decode to a nil slice below, so it counts as
		// missing, not as an empty list.
		if v, present := data[key]; !present || v == nil {
			return Analysis{}, false, false
		}
	}

	score, hasScore, scoreOK := coerceScore(data["match_score"])
	if !scoreOK {
		return Analysis{}, false, false
	}
	// Decoded separately; a numeric string here would otherwise fail the
	// strict list decode below.
	delete(data, "match_score")

	if err := mapstructure.Decode(data, &analysis); err != nil {
		return Analysis{}, false, false
	}

	analysis.MatchScore = score
	return analysis, hasScore, true
}

// coerceScore accepts numbers and numeric strings. Any other present type
// is structurally invalid.
func coerceScore(v any) (score float64, present, ok bool) {
	switch val := v.(type) {
	case nil:
		return 0, false, true
	case float64:
		return val, true, true
	case int:
		return float64(val), true, true
	case string:
		trimmed := strings.TrimSpace(val)
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, false
		}
		return f, true, true
	default:
		return 0, false, false
	}
}

// extractJSON strips markdown code fences that models commonly wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
