package llm

import (
	"strconv"
	"strings"
)

// Trailer field defaults when a line is missing or malformed.
const (
	defaultLeadScore     = 50
	defaultQualification = "Warm"
)

// parseReply splits a raw model reply into the user-visible text and the
// structured trailer fields. The model is prompted to end its reply with
//
//	Lead Score: <int>
//	Qualification: <string>
//	Schedule Meeting: <true|false>
//
// Those lines are stripped from the visible text; each missing or malformed
// field falls back to its default rather than failing the turn.
func parseReply(raw string) Result {
	res := Result{
		LeadScore:     defaultLeadScore,
		Qualification: defaultQualification,
		Raw:           raw,
	}

	var visible []string
	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.Contains(line, "Lead Score:"):
			if score, ok := trailerInt(line); ok {
				res.LeadScore = score
			}
		case strings.Contains(line, "Qualification:"):
			if value := trailerValue(line); value != "" {
				res.Qualification = value
			}
		case strings.Contains(line, "Schedule Meeting:"):
			res.ScheduleMeeting = strings.Contains(strings.ToLower(line), "true")
		default:
			visible = append(visible, line)
		}
	}

	res.Text = strings.TrimSpace(strings.Join(visible, "\n"))
	return res
}

func trailerValue(line string) string {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func trailerInt(line string) (int, bool) {
	value := trailerValue(line)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}
