// Package scoring derives lead-qualification signals from a chat session and
// maps them to a bounded score and a categorical tier.
package scoring

import "strings"

// Tier labels and their recommended follow-up actions.
const (
	TierHot         = "Hot Lead"
	TierWarm        = "Warm Lead"
	TierCold        = "Cold Lead"
	TierUnqualified = "Unqualified"
)

// Signals are the per-turn lead metrics. Each field is a small non-negative
// integer derived from deterministic rules; they are recomputed every turn
// and never persisted.
type Signals struct {
	InterestLevel    int
	BudgetMatch      int
	EngagementTime   int
	FollowUp         int
	OfferResponse    int
	Appointment      int
	PastInteractions int
}

// Total is the unclamped sum of all signal fields.
func (s Signals) Total() int {
	return s.InterestLevel + s.BudgetMatch + s.EngagementTime +
		s.FollowUp + s.OfferResponse + s.Appointment + s.PastInteractions
}

// Derive computes signals from the number of user turns so far (including the
// current message), the stated budget, and the current message text. Keyword
// checks are literal case-insensitive substring matches; the exact keyword
// list is load-bearing for score reproducibility.
func Derive(userTurns int, budget string, message string) Signals {
	lower := strings.ToLower(message)

	s := Signals{
		InterestLevel:  min(30, userTurns*5),
		EngagementTime: min(15, userTurns*3),
	}
	if budget != "" {
		s.BudgetMatch = 20
	}
	if strings.Contains(lower, "follow up") {
		s.FollowUp = 10
	}
	if strings.Contains(lower, "offer") {
		s.OfferResponse = 10
	}
	if strings.Contains(lower, "appointment") {
		s.Appointment = 10
	}
	if userTurns > 1 {
		s.PastInteractions = 5
	}
	return s
}

// Score clamps the signal total to [0, 100].
func Score(s Signals) int {
	total := s.Total()
	if total > 100 {
		return 100
	}
	if total < 0 {
		return 0
	}
	return total
}

// Thresholds are the tier boundaries, evaluated highest first.
type Thresholds struct {
	Hot  int
	Warm int
	Cold int
}

// DefaultThresholds partition [0,100] as
// [0,30) Unqualified, [30,50) Cold, [50,80) Warm, [80,100] Hot.
func DefaultThresholds() Thresholds {
	return Thresholds{Hot: 80, Warm: 50, Cold: 30}
}

// Classify maps a score to its tier label and recommended action. First
// matching threshold wins.
func Classify(score int, th Thresholds) (tier string, action string) {
	switch {
	case score >= th.Hot:
		return TierHot, "Immediate follow-up with personalized offers."
	case score >= th.Warm:
		return TierWarm, "Schedule automated follow-ups and send promotions."
	case score >= th.Cold:
		return TierCold, "Engage with newsletters and remarketing strategies."
	default:
		return TierUnqualified, "Minimal contact. Add to long-term CRM campaigns."
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
