package scoring

import "testing"

func TestScoreClampsToHundred(t *testing.T) {
	s := Signals{
		InterestLevel:    30,
		BudgetMatch:      20,
		EngagementTime:   15,
		FollowUp:         10,
		OfferResponse:    10,
		Appointment:      10,
		PastInteractions: 5,
	}
	if s.Total() != 100 {
		t.Fatalf("expected raw sum 100, got %d", s.Total())
	}
	if Score(s) != 100 {
		t.Fatalf("expected score 100, got %d", Score(s))
	}

	// Push the raw sum past 100 and make sure the clamp holds.
	s.BudgetMatch = 60
	if s.Total() <= 100 {
		t.Fatalf("test setup: expected unclamped sum above 100, got %d", s.Total())
	}
	if Score(s) != 100 {
		t.Fatalf("expected clamped score 100, got %d", Score(s))
	}
}

func TestScoreBoundsForArbitraryInputs(t *testing.T) {
	cases := []Signals{
		{},
		{InterestLevel: 30},
		{InterestLevel: 30, BudgetMatch: 20, EngagementTime: 15},
		{InterestLevel: 1000, PastInteractions: 1000},
	}
	for _, s := range cases {
		got := Score(s)
		if got < 0 || got > 100 {
			t.Errorf("score out of bounds for %+v: %d", s, got)
		}
	}
}

func TestDeriveRules(t *testing.T) {
	s := Derive(4, "250000", "Can we follow up on that OFFER for an appointment?")
	if s.InterestLevel != 20 {
		t.Errorf("interest: expected 20, got %d", s.InterestLevel)
	}
	if s.EngagementTime != 12 {
		t.Errorf("engagement: expected 12, got %d", s.EngagementTime)
	}
	if s.BudgetMatch != 20 {
		t.Errorf("budget: expected 20, got %d", s.BudgetMatch)
	}
	if s.FollowUp != 10 {
		t.Errorf("follow up: expected 10, got %d", s.FollowUp)
	}
	if s.OfferResponse != 10 {
		t.Errorf("offer: expected 10, got %d", s.OfferResponse)
	}
	if s.Appointment != 10 {
		t.Errorf("appointment: expected 10, got %d", s.Appointment)
	}
	if s.PastInteractions != 5 {
		t.Errorf("past interactions: expected 5, got %d", s.PastInteractions)
	}
}

func TestDeriveCapsAndFirstTurn(t *testing.T) {
	s := Derive(10, "", "just browsing")
	if s.InterestLevel != 30 {
		t.Errorf("interest cap: expected 30, got %d", s.InterestLevel)
	}
	if s.EngagementTime != 15 {
		t.Errorf("engagement cap: expected 15, got %d", s.EngagementTime)
	}
	if s.BudgetMatch != 0 {
		t.Errorf("budget: expected 0, got %d", s.BudgetMatch)
	}

	first := Derive(1, "", "hello")
	if first.PastInteractions != 0 {
		t.Errorf("first turn past interactions: expected 0, got %d", first.PastInteractions)
	}
}

func TestClassifyPartitionsScoreRange(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score int
		tier  string
	}{
		{0, TierUnqualified},
		{29, TierUnqualified},
		{30, TierCold},
		{49, TierCold},
		{50, TierWarm},
		{79, TierWarm},
		{80, TierHot},
		{100, TierHot},
	}
	for _, tc := range cases {
		tier, action := Classify(tc.score, th)
		if tier != tc.tier {
			t.Errorf("score %d: expected %q, got %q", tc.score, tc.tier, tier)
		}
		if action == "" {
			t.Errorf("score %d: expected non-empty action", tc.score)
		}
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	th := DefaultThresholds()
	rank := map[string]int{TierUnqualified: 0, TierCold: 1, TierWarm: 2, TierHot: 3}

	prev := -1
	for score := 0; score <= 100; score++ {
		tier, _ := Classify(score, th)
		r, ok := rank[tier]
		if !ok {
			t.Fatalf("score %d: unknown tier %q", score, tier)
		}
		if r < prev {
			t.Fatalf("tier rank decreased at score %d", score)
		}
		prev = r
	}
}
