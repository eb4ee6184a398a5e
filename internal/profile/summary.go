package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxSummaryChars caps Summary output for single-line displays.
const maxSummaryChars = 500

// Summary returns a compact one-line description of the profile for CLI
// status output and MCP resources.
func Summary(p *Profile) string {
	if p == nil {
		return "Profile: not yet created."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%s.", p.Name))
	if p.CreatedAt != "" {
		parts = append(parts, fmt.Sprintf("Since %s.", p.CreatedAt))
	}

	var mh []string
	if p.MentalHealth.Mood != "" {
		mh = append(mh, "mood "+p.MentalHealth.Mood)
	}
	if p.MentalHealth.Stress != "" {
		mh = append(mh, "stress "+p.MentalHealth.Stress)
	}
	if p.MentalHealth.Sleep != "" {
		mh = append(mh, "sleep "+p.MentalHealth.Sleep)
	}
	if len(mh) > 0 {
		parts = append(parts, fmt.Sprintf("Intake: %s.", strings.Join(mh, ", ")))
	}

	if len(p.Plan) > 0 {
		parts = append(parts, fmt.Sprintf("Plan: %s.", strings.Join(p.Plan, "; ")))
	}
	if last, ok := p.LastCheckIn(); ok {
		parts = append(parts, fmt.Sprintf("Check-ins: %d, last %s (mood=%s, completed=%s).",
			len(p.History), last.Date, last.Mood, last.Completed))
	}

	summary := strings.Join(parts, " ")
	if len(summary) > maxSummaryChars {
		end := maxSummaryChars
		for end > 0 && !utf8.RuneStart(summary[end]) {
			end--
		}
		summary = summary[:end]
	}
	return summary
}
