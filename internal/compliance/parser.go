package compliance

import (
	"encoding/json"
	"math"
	"strings"
)

// Neutral result used when the model's answer cannot be parsed.
const (
	NeutralScore     = 50
	ParseFailureText = "Failed to parse AI response. Please try again."
	rawPrefixChars   = 200
)

// Assessment is the parsed model answer
type Assessment struct {
	ComplianceScore int      `json:"compliance_score"`
	Findings        []string `json:"findings"`
	// Degraded is set when the neutral fallback replaced an unparsable answer
	Degraded bool `json:"-"`
}

type rawAssessment struct {
	ComplianceScore *float64        `json:"compliance_score"`
	RiskScore       *float64        `json:"risk_score"`
	Findings        json.RawMessage `json:"findings"`
}

// Parse extracts the assessment from raw model output. Code fences are
// stripped first. Unparsable output never fails: it yields the neutral score
// with a diagnostic and a prefix of the raw text as findings.
func Parse(raw string) Assessment {
	body := StripFences(raw)

	var r rawAssessment
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return fallback(raw)
	}

	score := r.ComplianceScore
	if score == nil {
		// Older prompts asked for a risk score on the same 0-100 scale.
		score = r.RiskScore
	}
	if score == nil || math.IsNaN(*score) {
		return fallback(raw)
	}

	findings, ok := parseFindings(r.Findings)
	if !ok {
		return fallback(raw)
	}

	return Assessment{
		ComplianceScore: clampScore(*score),
		Findings:        findings,
	}
}

// StripFences removes a surrounding ```json ... ``` or ``` ... ``` block.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string (e.g. "json") up to the first newline.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseFindings(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, true
	}
	var findings []string
	if err := json.Unmarshal(raw, &findings); err != nil {
		return nil, false
	}
	if findings == nil {
		findings = []string{}
	}
	return findings, true
}

func clampScore(f float64) int {
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func fallback(raw string) Assessment {
	return Assessment{
		ComplianceScore: NeutralScore,
		Findings:        []string{ParseFailureText, Truncate(raw, rawPrefixChars)},
		Degraded:        true,
	}
}
