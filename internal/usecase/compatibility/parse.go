package compatibility

import (
	"encoding/json"
	"math"
	"strings"
)

// Result is the parsed AI answer.
type Result struct {
	Score           int
	Icebreaker      string
	Summary         string
	SharedInterests []string
}

type rawResult struct {
	Score           *float64 `json:"score"`
	Icebreaker      string   `json:"icebreaker"`
	Summary         string   `json:"summary"`
	SharedInterests []string `json:"shared_interests"`
	SharedCamel     []string `json:"sharedInterests"`
}

// Neutral is the answer used when the model output is unusable.
func Neutral() Result {
	return Result{Score: NeutralScore, Icebreaker: DefaultIcebreaker}
}

// ParseCompatibility extracts a Result from model output. It tolerates code
// fences and surrounding prose. ok is false when the neutral default was used.
func ParseCompatibility(raw string) (Result, bool) {
	body := ExtractJSON(raw)
	if body == "" {
		return Neutral(), false
	}

	var r rawResult
	if err := json.Unmarshal([]byte(body), &r); err != nil || r.Score == nil {
		return Neutral(), false
	}

	result := Result{
		Score:           clampScore(*r.Score),
		Icebreaker:      strings.TrimSpace(r.Icebreaker),
		Summary:         strings.TrimSpace(r.Summary),
		SharedInterests: r.SharedInterests,
	}
	if len(result.SharedInterests) == 0 {
		result.SharedInterests = r.SharedCamel
	}
	if result.Icebreaker == "" {
		result.Icebreaker = DefaultIcebreaker
	}
	return result, true
}

// ExtractJSON returns the outermost {...} object in s, or "".
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return NeutralScore
	}
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
