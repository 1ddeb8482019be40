// Package compliance builds the audit prompt and parses the model's answer.
// Both halves are pure: identical inputs give identical outputs.
package compliance

import "strings"

// SystemInstructions is sent as the system turn of every audit.
const SystemInstructions = `You are an expert Indian Labour Law Compliance Auditor.
Review the employee policy against the provided legal context and score how compliant it is.
Respond with strict JSON only, no markdown formatting, in exactly this schema:
{
  "compliance_score": <integer between 0 and 100, where 100 is fully compliant>,
  "findings": ["<finding 1>", "<finding 2>"]
}
Each finding must name the policy clause, the statutory provision it conflicts with or satisfies, and the recommended change.`

// Prompt is a built audit prompt
type Prompt struct {
	System string
	User   string
}

// BuildPrompt assembles the user turn from the legal context and the policy
// text cut to policyCap characters.
func BuildPrompt(legalContext, policyText string, policyCap int) Prompt {
	var b strings.Builder
	b.WriteString("LEGAL CONTEXT:\n")
	b.WriteString(legalContext)
	b.WriteString("\n\nEMPLOYEE POLICY:\n")
	b.WriteString(Truncate(policyText, policyCap))
	b.WriteString("\n\nAnalyze the policy for compliance with the legal context and answer in the JSON schema given.")
	return Prompt{System: SystemInstructions, User: b.String()}
}

// Truncate returns the first n characters of s. n <= 0 returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
