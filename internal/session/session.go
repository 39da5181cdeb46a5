// Package session holds per-visitor conversation state: contact details and
// the running chat transcript.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session: not found")

// Session is the state carried across a visitor's chat turns.
type Session struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Budget     string    `json:"budget"`
	Transcript []string  `json:"transcript"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Append adds a transcript line.
func (s *Session) Append(line string) {
	s.Transcript = append(s.Transcript, line)
}

// UserTurns counts the visitor's messages in the transcript.
func (s *Session) UserTurns() int {
	n := 0
	for _, line := range s.Transcript {
		if strings.HasPrefix(line, "User:") {
			n++
		}
	}
	return n
}

// LastLine returns the most recent transcript line, or "" when empty.
func (s *Session) LastLine() string {
	if len(s.Transcript) == 0 {
		return ""
	}
	return s.Transcript[len(s.Transcript)-1]
}

// RecentContext joins the last n transcript lines.
func (s *Session) RecentContext(n int) string {
	if n <= 0 || len(s.Transcript) == 0 {
		return ""
	}
	start := len(s.Transcript) - n
	if start < 0 {
		start = 0
	}
	return strings.Join(s.Transcript[start:], "\n")
}

// Store persists sessions between chat turns.
type Store interface {
	// Load returns the session for id, or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Save persists the session.
	Save(ctx context.Context, s *Session) error
}
