// Package llm is the boundary to the hosted generation capability. It always
// hands back a usable Result: transport and configuration failures degrade to
// documented defaults instead of propagating.
package llm

import (
	"context"

	"github.com/homequest-ai/lead-assistant/internal/scoring"
)

// Request carries everything the generation capability needs for one turn.
type Request struct {
	// Context is the assembled prompt context: profile fields, retrieved
	// knowledge payloads, and recent transcript lines.
	Context string
	// Question is the visitor's current message.
	Question string
	// Signals are the derived lead parameters, echoed into the prompt.
	Signals scoring.Signals
}

// Result is the structured outcome of one generation call. The Result is
// valid even when the accompanying error is non-nil; callers use the degraded
// fields and treat the error as diagnostic only.
type Result struct {
	// Text is the user-visible answer with the structured trailer stripped.
	Text string
	// LeadScore is parsed from the "Lead Score:" trailer line, default 50.
	LeadScore int
	// Qualification is parsed from the "Qualification:" line, default "Warm".
	Qualification string
	// ScheduleMeeting is parsed from the "Schedule Meeting:" line.
	ScheduleMeeting bool
	// Raw is the unmodified model reply (or the failure note).
	Raw string
	// Note records why a degraded result was produced, empty on success.
	Note string
}

// Generator produces a reply plus qualification fields for a chat turn.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}
